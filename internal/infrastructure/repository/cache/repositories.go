package cache

import (
	"context"
	"time"

	"github.com/ballog/ballog-api/internal/domain/stadium"
	"github.com/ballog/ballog-api/internal/domain/team"
	basecache "github.com/ballog/ballog-api/internal/platform/cache"
)

const (
	teamListKey  = "team:list"
	teamIDPrefix = "team:id:"
	stadiumIDKey = "stadium:id:"
)

// TeamRepository caches team reads in front of another repository. Create
// drops every cached team entry.
type TeamRepository struct {
	next  team.Repository
	lists *basecache.Store[[]team.Team]
	byID  *basecache.Store[team.Team]
}

func NewTeamRepository(next team.Repository, ttl time.Duration) *TeamRepository {
	return &TeamRepository{
		next:  next,
		lists: basecache.NewStore[[]team.Team](ttl),
		byID:  basecache.NewStore[team.Team](ttl),
	}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	items, err := r.lists.GetOrLoad(ctx, teamListKey, func(ctx context.Context) ([]team.Team, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	key := teamIDPrefix + teamID
	if item, ok := r.byID.Get(ctx, key); ok {
		return item, true, nil
	}

	item, exists, err := r.next.GetByID(ctx, teamID)
	if err != nil || !exists {
		return team.Team{}, false, err
	}
	r.byID.Set(ctx, key, item)
	return item, true, nil
}

// Count always reads through; seeding depends on it being exact.
func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	return r.next.Count(ctx)
}

func (r *TeamRepository) Create(ctx context.Context, item team.Team) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.lists.Delete(ctx, teamListKey)
	r.byID.DeletePrefix(ctx, teamIDPrefix)
	return nil
}

// StadiumRepository caches stadium lookups by id. Misses are not cached so
// stadiums inferred during a crawl become visible on the next read.
type StadiumRepository struct {
	next stadium.Repository
	byID *basecache.Store[stadium.Stadium]
}

func NewStadiumRepository(next stadium.Repository, ttl time.Duration) *StadiumRepository {
	return &StadiumRepository{
		next: next,
		byID: basecache.NewStore[stadium.Stadium](ttl),
	}
}

func (r *StadiumRepository) FindMatching(ctx context.Context, name string) ([]stadium.Stadium, error) {
	return r.next.FindMatching(ctx, name)
}

func (r *StadiumRepository) GetByID(ctx context.Context, stadiumID string) (stadium.Stadium, bool, error) {
	key := stadiumIDKey + stadiumID
	if item, ok := r.byID.Get(ctx, key); ok {
		return item, true, nil
	}

	item, exists, err := r.next.GetByID(ctx, stadiumID)
	if err != nil || !exists {
		return stadium.Stadium{}, false, err
	}
	r.byID.Set(ctx, key, item)
	return item, true, nil
}

func (r *StadiumRepository) Create(ctx context.Context, item stadium.Stadium) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.byID.Delete(ctx, stadiumIDKey+item.ID)
	return nil
}
