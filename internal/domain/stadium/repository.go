package stadium

import "context"

// Repository exposes stadium lookups and lazy creation.
type Repository interface {
	// FindMatching returns stadiums whose stored name contains name or is
	// contained in it, compared case-insensitively.
	FindMatching(ctx context.Context, name string) ([]Stadium, error)
	Create(ctx context.Context, s Stadium) error
	GetByID(ctx context.Context, stadiumID string) (Stadium, bool, error)
}
