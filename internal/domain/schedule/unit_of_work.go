package schedule

import (
	"context"
	"errors"

	"github.com/ballog/ballog-api/internal/domain/game"
	"github.com/ballog/ballog-api/internal/domain/stadium"
)

// ErrConflict is returned by repositories when a write races with another
// writer on a unique key (game natural key or stadium name).
var ErrConflict = errors.New("unique key conflict")

// Tx holds the repositories bound to one unit of work.
type Tx struct {
	Games    game.Repository
	Stadiums stadium.Repository
}

// UnitOfWork runs fn atomically: either every write made through tx is
// persisted or none is.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
