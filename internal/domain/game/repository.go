package game

import (
	"context"
	"time"
)

// Repository describes game persistence needs from use cases.
type Repository interface {
	FindByKey(ctx context.Context, key Key) (Game, bool, error)
	Create(ctx context.Context, g Game) error
	UpdateResult(ctx context.Context, gameID string, result Result, updatedAt time.Time) error
	// ListBetween returns games scheduled in [from, to), ordered by date time.
	ListBetween(ctx context.Context, from, to time.Time) ([]Game, error)
}
