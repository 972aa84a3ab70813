package postgres

import (
	"context"
	"fmt"

	"github.com/ballog/ballog-api/internal/domain/schedule"
	"github.com/jmoiron/sqlx"
)

// ScheduleUnitOfWork runs reconciliation writes in one database transaction.
type ScheduleUnitOfWork struct {
	db *sqlx.DB
}

func NewScheduleUnitOfWork(db *sqlx.DB) *ScheduleUnitOfWork {
	return &ScheduleUnitOfWork{db: db}
}

func (u *ScheduleUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx schedule.Tx) error) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schedule tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	bound := schedule.Tx{
		Games:    &GameRepository{db: tx, lockTx: true},
		Stadiums: &StadiumRepository{db: tx},
	}
	if err := fn(ctx, bound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: commit schedule tx: %v", schedule.ErrConflict, err)
		}
		return fmt.Errorf("commit schedule tx: %w", err)
	}
	return nil
}
