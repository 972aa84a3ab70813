package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ballog/ballog-api/external/naver"
	"github.com/ballog/ballog-api/internal/config"
	"github.com/ballog/ballog-api/internal/domain/game"
	"github.com/ballog/ballog-api/internal/domain/schedule"
	"github.com/ballog/ballog-api/internal/domain/stadium"
	"github.com/ballog/ballog-api/internal/domain/team"
	cachedrepo "github.com/ballog/ballog-api/internal/infrastructure/repository/cache"
	"github.com/ballog/ballog-api/internal/infrastructure/repository/memory"
	"github.com/ballog/ballog-api/internal/infrastructure/repository/postgres"
	"github.com/ballog/ballog-api/internal/interfaces/httpapi"
	idgen "github.com/ballog/ballog-api/internal/platform/id"
	"github.com/ballog/ballog-api/internal/platform/logging"
	"github.com/ballog/ballog-api/internal/platform/resilience"
	"github.com/ballog/ballog-api/internal/progress"
	"github.com/ballog/ballog-api/internal/usecase"
)

const seedTimeout = 15 * time.Second

type repositories struct {
	teams    team.Repository
	games    game.Repository
	stadiums stadium.Repository
	uow      schedule.UnitOfWork
	close    func() error
}

// NewHTTPServer builds the service graph for the configured storage driver.
// The returned cleanup stops any active crawl, ends open progress streams and
// releases the database.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	teams := cachedrepo.NewTeamRepository(repos.teams, cfg.CacheTTL)
	resolver := usecase.NewTeamResolver(teams, cfg.CacheTTL)
	teamSvc := usecase.NewTeamService(teams, resolver, logger)

	seedCtx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()
	if _, err := teamSvc.EnsureSeeded(seedCtx, memory.SeedTeams()); err != nil {
		_ = repos.close()
		return nil, nil, fmt.Errorf("seed teams: %w", err)
	}

	source := naver.NewClient(naver.ClientConfig{
		BaseURL:   cfg.ScheduleProviderBaseURL,
		Category:  cfg.ScheduleProviderCategory,
		UserAgent: cfg.ScheduleProviderUserAgent,
		Referer:   cfg.ScheduleProviderReferer,
		Timeout:   cfg.ScheduleProviderTimeout,
		Location:  cfg.ScheduleProviderLocation,
		Logger:    logger.Named("naver"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ScheduleProviderCircuitEnabled,
			FailureThreshold: cfg.ScheduleProviderCircuitFailures,
			OpenTimeout:      cfg.ScheduleProviderCircuitOpenTime,
			HalfOpenMaxReq:   cfg.ScheduleProviderCircuitHalfOpenRq,
		},
	})

	broadcaster := progress.NewBroadcaster(cfg.ProgressBufferSize)
	crawlSvc, err := usecase.NewCrawlService(
		source,
		usecase.NewScheduleMapper(resolver, cfg.ScheduleProviderLocation),
		usecase.NewReconcileService(repos.uow, idgen.NewUUIDGenerator(), logger.Named("reconcile")),
		broadcaster,
		logger.Named("crawl"),
		usecase.CrawlConfig{
			Category: cfg.ScheduleProviderCategory,
			MaxDays:  cfg.CrawlMaxDays,
			DayDelay: cfg.CrawlDayDelay,
			Location: cfg.ScheduleProviderLocation,
		},
	)
	if err != nil {
		_ = repos.close()
		return nil, nil, fmt.Errorf("build crawl service: %w", err)
	}
	gameSvc := usecase.NewGameService(
		repos.games,
		teams,
		cachedrepo.NewStadiumRepository(repos.stadiums, cfg.CacheTTL),
		cfg.ScheduleProviderLocation,
	)

	handler := httpapi.NewHandler(crawlSvc, teamSvc, gameSvc, broadcaster, logger, httpapi.HandlerOptions{
		ProgressStreamTimeout: cfg.ProgressStreamTimeout,
		Location:              cfg.ScheduleProviderLocation,
	})
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	// Shutdown waits for connections to go idle; open progress streams only
	// end once their subscriptions close.
	server.RegisterOnShutdown(broadcaster.CloseAll)

	cleanup := func() {
		crawlSvc.Close()
		broadcaster.CloseAll()
		if err := repos.close(); err != nil {
			logger.Error("close storage failed", "error", err)
		}
	}

	logger.Info("service graph ready", "storage_driver", cfg.StorageDriver, "provider_category", cfg.ScheduleProviderCategory)
	return server, cleanup, nil
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memory.NewScheduleStore(nil)
		return repositories{
			teams:    memory.NewTeamRepository(nil),
			games:    store.Games(),
			stadiums: store.Stadiums(),
			uow:      store,
			close:    func() error { return nil },
		}, nil
	case config.StoragePostgres:
		db, err := openDatabase(cfg)
		if err != nil {
			return repositories{}, err
		}
		logger.Info("database connected", "db_name", dbNameFromURL(cfg.DBURL), "max_open_conns", cfg.DBMaxOpenConns)
		return repositories{
			teams:    postgres.NewTeamRepository(db),
			games:    postgres.NewGameRepository(db),
			stadiums: postgres.NewStadiumRepository(db),
			uow:      postgres.NewScheduleUnitOfWork(db),
			close:    db.Close,
		}, nil
	default:
		return repositories{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
