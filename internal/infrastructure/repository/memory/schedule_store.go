package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ballog/ballog-api/internal/domain/game"
	"github.com/ballog/ballog-api/internal/domain/schedule"
	"github.com/ballog/ballog-api/internal/domain/stadium"
)

// ScheduleStore keeps games and stadiums in memory and implements
// schedule.UnitOfWork. Writes are serialized. A unit of work mutates a staged
// copy of the state that replaces the committed state only when it succeeds,
// so readers never observe a unit's writes before commit.
type ScheduleStore struct {
	txMu sync.Mutex

	mu        sync.RWMutex
	committed *storeState
}

type storeState struct {
	games         map[string]game.Game
	gameIDByKey   map[string]string
	stadiums      map[string]stadium.Stadium
	stadiumByName map[string]string
}

func NewScheduleStore(stadiums []stadium.Stadium) *ScheduleStore {
	state := &storeState{
		games:         make(map[string]game.Game),
		gameIDByKey:   make(map[string]string),
		stadiums:      make(map[string]stadium.Stadium),
		stadiumByName: make(map[string]string),
	}
	for _, item := range stadiums {
		state.stadiums[item.ID] = item
		state.stadiumByName[stadiumNameKey(item.Name)] = item.ID
	}
	return &ScheduleStore{committed: state}
}

func (s *ScheduleStore) Games() *GameRepository {
	return &GameRepository{store: s}
}

func (s *ScheduleStore) Stadiums() *StadiumRepository {
	return &StadiumRepository{store: s}
}

func (s *ScheduleStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx schedule.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	staged := s.committed.clone()
	s.mu.RUnlock()

	tx := schedule.Tx{
		Games:    &GameRepository{store: s, staged: staged},
		Stadiums: &StadiumRepository{store: s, staged: staged},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = staged
	s.mu.Unlock()
	return nil
}

func (st *storeState) clone() *storeState {
	return &storeState{
		games:         maps.Clone(st.games),
		gameIDByKey:   maps.Clone(st.gameIDByKey),
		stadiums:      maps.Clone(st.stadiums),
		stadiumByName: maps.Clone(st.stadiumByName),
	}
}

// view runs fn against the staged state inside a unit of work, otherwise
// against the committed state under the read lock.
func (s *ScheduleStore) view(staged *storeState, fn func(st *storeState)) {
	if staged != nil {
		fn(staged)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.committed)
}

// update applies fn to the staged state, or outside a unit of work commits
// it directly. Direct writes also hold txMu so a concurrent commit cannot
// replace them with an older copy.
func (s *ScheduleStore) update(staged *storeState, fn func(st *storeState) error) error {
	if staged != nil {
		return fn(staged)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.committed)
}

type GameRepository struct {
	store  *ScheduleStore
	staged *storeState
}

func (r *GameRepository) FindByKey(_ context.Context, key game.Key) (game.Game, bool, error) {
	var (
		item game.Game
		ok   bool
	)
	r.store.view(r.staged, func(st *storeState) {
		gameID, found := st.gameIDByKey[key.String()]
		if !found {
			return
		}
		item, ok = st.games[gameID]
	})
	return item, ok, nil
}

func (r *GameRepository) Create(_ context.Context, item game.Game) error {
	if err := item.Validate(); err != nil {
		return err
	}

	return r.store.update(r.staged, func(st *storeState) error {
		key := item.Key().String()
		if _, exists := st.gameIDByKey[key]; exists {
			return fmt.Errorf("%w: game key %s", schedule.ErrConflict, key)
		}
		if _, exists := st.games[item.ID]; exists {
			return fmt.Errorf("%w: game id %s", schedule.ErrConflict, item.ID)
		}
		st.games[item.ID] = item
		st.gameIDByKey[key] = item.ID
		return nil
	})
}

func (r *GameRepository) UpdateResult(_ context.Context, gameID string, result game.Result, updatedAt time.Time) error {
	return r.store.update(r.staged, func(st *storeState) error {
		item, ok := st.games[gameID]
		if !ok {
			return fmt.Errorf("game %s not found", gameID)
		}
		item.ApplyResult(result, updatedAt)
		st.games[gameID] = item
		return nil
	})
}

func (r *GameRepository) ListBetween(_ context.Context, from, to time.Time) ([]game.Game, error) {
	out := make([]game.Game, 0)
	r.store.view(r.staged, func(st *storeState) {
		for _, item := range st.games {
			if item.DateTime.Before(from) || !item.DateTime.Before(to) {
				continue
			}
			out = append(out, item)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateTime.Equal(out[j].DateTime) {
			return out[i].DateTime.Before(out[j].DateTime)
		}
		return out[i].HomeTeamID < out[j].HomeTeamID
	})

	return out, nil
}

type StadiumRepository struct {
	store  *ScheduleStore
	staged *storeState
}

func (r *StadiumRepository) FindMatching(_ context.Context, name string) ([]stadium.Stadium, error) {
	out := make([]stadium.Stadium, 0)
	r.store.view(r.staged, func(st *storeState) {
		for _, item := range st.stadiums {
			if stadium.Matches(item.Name, name) {
				out = append(out, item)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (r *StadiumRepository) Create(_ context.Context, item stadium.Stadium) error {
	if err := item.Validate(); err != nil {
		return err
	}

	return r.store.update(r.staged, func(st *storeState) error {
		nameKey := stadiumNameKey(item.Name)
		if _, exists := st.stadiumByName[nameKey]; exists {
			return fmt.Errorf("%w: stadium %q", schedule.ErrConflict, item.Name)
		}
		st.stadiums[item.ID] = item
		st.stadiumByName[nameKey] = item.ID
		return nil
	})
}

func (r *StadiumRepository) GetByID(_ context.Context, stadiumID string) (stadium.Stadium, bool, error) {
	var (
		item stadium.Stadium
		ok   bool
	)
	r.store.view(r.staged, func(st *storeState) {
		item, ok = st.stadiums[stadiumID]
	})
	return item, ok, nil
}

func stadiumNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
