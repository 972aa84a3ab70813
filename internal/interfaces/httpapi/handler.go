package httpapi

import (
	"time"

	"github.com/ballog/ballog-api/internal/platform/logging"
	"github.com/ballog/ballog-api/internal/progress"
	"github.com/ballog/ballog-api/internal/usecase"
	"github.com/go-playground/validator/v10"
)

const (
	defaultProgressStreamTimeout = 30 * time.Minute
	defaultHeartbeatInterval     = 15 * time.Second
	sseWriteTimeout              = 10 * time.Second
)

type Handler struct {
	crawlService      *usecase.CrawlService
	teamService       *usecase.TeamService
	gameService       *usecase.GameService
	broadcaster       *progress.Broadcaster
	logger            *logging.Logger
	validator         *validator.Validate
	location          *time.Location
	streamTimeout     time.Duration
	heartbeatInterval time.Duration
}

// HandlerOptions tunes the progress stream and response rendering.
type HandlerOptions struct {
	ProgressStreamTimeout time.Duration
	HeartbeatInterval     time.Duration
	Location              *time.Location
}

func NewHandler(
	crawlService *usecase.CrawlService,
	teamService *usecase.TeamService,
	gameService *usecase.GameService,
	broadcaster *progress.Broadcaster,
	logger *logging.Logger,
	opts HandlerOptions,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.ProgressStreamTimeout <= 0 {
		opts.ProgressStreamTimeout = defaultProgressStreamTimeout
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaultHeartbeatInterval
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &Handler{
		crawlService:      crawlService,
		teamService:       teamService,
		gameService:       gameService,
		broadcaster:       broadcaster,
		logger:            logger,
		validator:         validator.New(),
		location:          opts.Location,
		streamTimeout:     opts.ProgressStreamTimeout,
		heartbeatInterval: opts.HeartbeatInterval,
	}
}
