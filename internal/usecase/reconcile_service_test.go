package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ballog/ballog-api/internal/domain/game"
	"github.com/ballog/ballog-api/internal/domain/schedule"
	"github.com/ballog/ballog-api/internal/domain/stadium"
	"github.com/ballog/ballog-api/internal/domain/team"
	"github.com/ballog/ballog-api/internal/infrastructure/repository/memory"
	"github.com/ballog/ballog-api/internal/platform/logging"
)

var (
	testTwins = team.Team{ID: "kbo-lg", Name: "Twins", Code: "LG"}
	testWiz   = team.Team{ID: "kbo-kt", Name: "Wiz", Code: "KT"}
)

func canonicalFixture() CanonicalGame {
	return CanonicalGame{
		ExternalID: "20240323LGKT02024",
		DateTime:   time.Date(2024, 3, 23, 14, 0, 0, 0, time.UTC),
		HomeTeam:   testTwins,
		AwayTeam:   testWiz,
		Status:     game.StatusScheduled,
	}
}

func TestReconcileService_CreatesThenUpdates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewScheduleStore(nil)
	service := NewReconcileService(store, &sequenceIDs{}, logging.NewNop())

	outcome, err := service.Reconcile(ctx, canonicalFixture())
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if outcome != ReconcileCreated {
		t.Fatalf("expected created, got %s", outcome)
	}

	updated := canonicalFixture()
	updated.HomeScore, updated.AwayScore, updated.Status = 5, 3, game.StatusFinished
	updated.StadiumName = "Somewhere Else"
	outcome, err = service.Reconcile(ctx, updated)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if outcome != ReconcileUpdated {
		t.Fatalf("expected updated, got %s", outcome)
	}

	items, err := store.Games().ListBetween(ctx, time.Time{}, time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected exactly one game, got %d", len(items))
	}
	got := items[0]
	if got.Status != game.StatusFinished || got.HomeScore != 5 || got.AwayScore != 3 {
		t.Fatalf("unexpected stored game: %+v", got)
	}

	venue, ok, _ := store.Stadiums().GetByID(ctx, got.StadiumID)
	if !ok || venue.Name != "Twins Home" {
		t.Fatalf("expected stadium untouched by update, got %+v ok=%v", venue, ok)
	}
}

func TestReconcileService_InfersHomeStadium(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewScheduleStore(nil)
	service := NewReconcileService(store, &sequenceIDs{}, logging.NewNop())

	if _, err := service.Reconcile(ctx, canonicalFixture()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	matches, err := store.Stadiums().FindMatching(ctx, "Twins Home")
	if err != nil {
		t.Fatalf("find stadium: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "Twins Home" {
		t.Fatalf("expected a stadium named %q, got %+v", "Twins Home", matches)
	}
}

func TestReconcileService_ReusesContainedStadium(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewScheduleStore([]stadium.Stadium{{ID: "jamsil", Name: "Jamsil"}})
	service := NewReconcileService(store, &sequenceIDs{}, logging.NewNop())

	g := canonicalFixture()
	g.StadiumName = "Jamsil Baseball Stadium"
	if _, err := service.Reconcile(ctx, g); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	stored, ok, err := store.Games().FindByKey(ctx, g.Key())
	if err != nil || !ok {
		t.Fatalf("expected stored game, ok=%v err=%v", ok, err)
	}
	if stored.StadiumID != "jamsil" {
		t.Fatalf("expected existing stadium reused, got %s", stored.StadiumID)
	}
	if all, _ := store.Stadiums().FindMatching(ctx, "Jamsil Baseball Stadium"); len(all) != 1 {
		t.Fatalf("expected no new stadium, got %+v", all)
	}
}

// conflictOnceUoW simulates a concurrent writer inserting the same game
// between the lookup and the insert of the first attempt.
type conflictOnceUoW struct {
	inner    *memory.ScheduleStore
	attempts int
}

func (u *conflictOnceUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx schedule.Tx) error) error {
	u.attempts++
	if u.attempts > 1 {
		return u.inner.WithinTx(ctx, fn)
	}

	racer := canonicalFixture()
	err := u.inner.WithinTx(ctx, func(ctx context.Context, tx schedule.Tx) error {
		if err := tx.Stadiums.Create(ctx, stadium.Stadium{ID: "racer-stadium", Name: "Racer Park"}); err != nil {
			return err
		}
		return tx.Games.Create(ctx, game.Game{
			ID:         "racer",
			DateTime:   racer.DateTime,
			HomeTeamID: racer.HomeTeam.ID,
			AwayTeamID: racer.AwayTeam.ID,
			StadiumID:  "racer-stadium",
			Status:     game.StatusScheduled,
		})
	})
	if err != nil {
		return err
	}
	return fmt.Errorf("create game: %w", schedule.ErrConflict)
}

func TestReconcileService_RetriesConflictAsUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewScheduleStore(nil)
	uow := &conflictOnceUoW{inner: store}
	service := NewReconcileService(uow, &sequenceIDs{}, logging.NewNop())

	g := canonicalFixture()
	g.Status = game.StatusInProgress
	outcome, err := service.Reconcile(ctx, g)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if outcome != ReconcileUpdated {
		t.Fatalf("expected update after conflict, got %s", outcome)
	}
	if uow.attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", uow.attempts)
	}

	stored, ok, _ := store.Games().FindByKey(ctx, g.Key())
	if !ok || stored.ID != "racer" || stored.Status != game.StatusInProgress {
		t.Fatalf("unexpected stored game: %+v ok=%v", stored, ok)
	}
}

// failAfterIDs hands out ok ids and then fails.
type failAfterIDs struct {
	ok int
}

func (g *failAfterIDs) NewID() (string, error) {
	if g.ok == 0 {
		return "", errors.New("entropy exhausted")
	}
	g.ok--
	return fmt.Sprintf("ok-%d", g.ok), nil
}

func TestReconcileService_RollsBackOnFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewScheduleStore(nil)
	service := NewReconcileService(store, &failAfterIDs{ok: 1}, logging.NewNop())

	if _, err := service.Reconcile(ctx, canonicalFixture()); err == nil {
		t.Fatalf("expected id generation error")
	}
	if matches, _ := store.Stadiums().FindMatching(ctx, "Twins Home"); len(matches) != 0 {
		t.Fatalf("expected no stadium persisted, got %+v", matches)
	}
}
