package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ballog/ballog-api/internal/domain/game"
	"github.com/ballog/ballog-api/internal/domain/schedule"
	"github.com/ballog/ballog-api/internal/domain/stadium"
	"github.com/ballog/ballog-api/internal/platform/id"
	"github.com/ballog/ballog-api/internal/platform/logging"
)

type ReconcileOutcome string

const (
	ReconcileCreated ReconcileOutcome = "created"
	ReconcileUpdated ReconcileOutcome = "updated"
)

// ReconcileService upserts canonical games by natural key and creates
// stadiums on first sight.
type ReconcileService struct {
	uow    schedule.UnitOfWork
	ids    id.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewReconcileService(uow schedule.UnitOfWork, ids id.Generator, logger *logging.Logger) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconcileService{
		uow:    uow,
		ids:    ids,
		logger: logger,
		now:    time.Now,
	}
}

// Reconcile stores g atomically. A unique-key conflict means a concurrent
// writer inserted the same row first; the entry is then re-read and applied
// as an update in a fresh unit of work.
func (s *ReconcileService) Reconcile(ctx context.Context, g CanonicalGame) (ReconcileOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.Reconcile")
	defer span.End()

	outcome, err := s.reconcileOnce(ctx, g)
	if errors.Is(err, ErrPersistenceConflict) {
		s.logger.DebugContext(ctx, "reconcile conflict, retrying as update",
			"external_id", g.ExternalID,
			"game_date_time", g.DateTime,
			"home", g.HomeTeam.Code,
			"away", g.AwayTeam.Code,
		)
		outcome, err = s.reconcileOnce(ctx, g)
	}
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func (s *ReconcileService) reconcileOnce(ctx context.Context, g CanonicalGame) (ReconcileOutcome, error) {
	var outcome ReconcileOutcome
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx schedule.Tx) error {
		now := s.now()
		existing, found, err := tx.Games.FindByKey(ctx, g.Key())
		if err != nil {
			return fmt.Errorf("find game by key: %w", err)
		}

		result := game.Result{
			HomeScore:  g.HomeScore,
			AwayScore:  g.AwayScore,
			Status:     g.Status,
			ExternalID: g.ExternalID,
		}
		if found {
			if err := tx.Games.UpdateResult(ctx, existing.ID, result, now); err != nil {
				return fmt.Errorf("update game result: %w", err)
			}
			outcome = ReconcileUpdated
			return nil
		}

		venue, err := s.resolveStadium(ctx, tx.Stadiums, stadiumNameFor(g))
		if err != nil {
			return err
		}

		gameID, err := s.ids.NewID()
		if err != nil {
			return fmt.Errorf("generate game id: %w", err)
		}
		item := game.Game{
			ID:         gameID,
			ExternalID: g.ExternalID,
			DateTime:   g.DateTime,
			HomeTeamID: g.HomeTeam.ID,
			AwayTeamID: g.AwayTeam.ID,
			StadiumID:  venue.ID,
			HomeScore:  g.HomeScore,
			AwayScore:  g.AwayScore,
			Status:     g.Status,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := item.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
		}
		if err := tx.Games.Create(ctx, item); err != nil {
			return fmt.Errorf("create game: %w", err)
		}
		outcome = ReconcileCreated
		return nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func (s *ReconcileService) resolveStadium(ctx context.Context, repo stadium.Repository, name string) (stadium.Stadium, error) {
	candidates, err := repo.FindMatching(ctx, name)
	if err != nil {
		return stadium.Stadium{}, fmt.Errorf("find stadium %q: %w", name, err)
	}
	if match, ok := stadium.BestMatch(candidates, name); ok {
		return match, nil
	}

	stadiumID, err := s.ids.NewID()
	if err != nil {
		return stadium.Stadium{}, fmt.Errorf("generate stadium id: %w", err)
	}
	created := stadium.Stadium{ID: stadiumID, Name: name}
	if err := repo.Create(ctx, created); err != nil {
		return stadium.Stadium{}, fmt.Errorf("create stadium %q: %w", name, err)
	}
	s.logger.InfoContext(ctx, "stadium created", "stadium_id", stadiumID, "name", name)
	return created, nil
}

// stadiumNameFor falls back to "<home team name> Home" when the provider
// omits the venue.
func stadiumNameFor(g CanonicalGame) string {
	if name := strings.TrimSpace(g.StadiumName); name != "" {
		return name
	}
	return g.HomeTeam.Name + " Home"
}
