package usecase

import (
	"errors"

	"github.com/ballog/ballog-api/internal/domain/schedule"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrSourceUnavailable     = errors.New("schedule source unavailable")
	ErrUnresolvedTeam        = errors.New("unresolved team")
	ErrInvalidEntry          = errors.New("invalid schedule entry")
	ErrPersistenceConflict   = schedule.ErrConflict
	ErrRunInProgress         = errors.New("crawl run already in progress")
)
