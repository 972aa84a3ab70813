package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ballog/ballog-api/internal/domain/game"
	"github.com/ballog/ballog-api/internal/domain/schedule"
	"github.com/ballog/ballog-api/internal/domain/stadium"
)

func TestScheduleStore_WithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewScheduleStore(nil)
	errBoom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx schedule.Tx) error {
		if err := tx.Stadiums.Create(ctx, stadium.Stadium{ID: "s1", Name: "Jamsil"}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}

	if _, ok, _ := store.Stadiums().GetByID(ctx, "s1"); ok {
		t.Fatalf("expected stadium rolled back")
	}
}

func TestScheduleStore_ReadsDoNotSeeUncommittedWrites(t *testing.T) {
	ctx := context.Background()
	store := NewScheduleStore(nil)
	errBoom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx schedule.Tx) error {
		if err := tx.Stadiums.Create(ctx, stadium.Stadium{ID: "s1", Name: "Munhak"}); err != nil {
			return err
		}
		if _, ok, _ := tx.Stadiums.GetByID(ctx, "s1"); !ok {
			t.Fatalf("expected staged stadium visible inside the unit of work")
		}
		if _, ok, _ := store.Stadiums().GetByID(ctx, "s1"); ok {
			t.Fatalf("expected staged stadium hidden from readers before commit")
		}
		matches, _ := store.Stadiums().FindMatching(ctx, "Munhak")
		if len(matches) != 0 {
			t.Fatalf("expected no committed matches, got %+v", matches)
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}

	err = store.WithinTx(ctx, func(ctx context.Context, tx schedule.Tx) error {
		return tx.Stadiums.Create(ctx, stadium.Stadium{ID: "s2", Name: "Sajik"})
	})
	if err != nil {
		t.Fatalf("commit unit of work: %v", err)
	}
	if _, ok, _ := store.Stadiums().GetByID(ctx, "s2"); !ok {
		t.Fatalf("expected committed stadium visible")
	}
}

func TestGameRepository_CreateRejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	store := NewScheduleStore([]stadium.Stadium{{ID: "s1", Name: "Jamsil"}})
	kickoff := time.Date(2024, 3, 23, 14, 0, 0, 0, time.UTC)
	item := game.Game{
		ID:         "g1",
		DateTime:   kickoff,
		HomeTeamID: "kbo-lg",
		AwayTeamID: "kbo-kt",
		StadiumID:  "s1",
		Status:     game.StatusScheduled,
	}

	if err := store.Games().Create(ctx, item); err != nil {
		t.Fatalf("create game: %v", err)
	}
	item.ID = "g2"
	if err := store.Games().Create(ctx, item); !errors.Is(err, schedule.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	got, ok, err := store.Games().FindByKey(ctx, game.Key{DateTime: kickoff, HomeTeamID: "kbo-lg", AwayTeamID: "kbo-kt"})
	if err != nil || !ok || got.ID != "g1" {
		t.Fatalf("expected g1, got %+v ok=%v err=%v", got, ok, err)
	}
}

func TestGameRepository_UpdateResultAndListBetween(t *testing.T) {
	ctx := context.Background()
	store := NewScheduleStore([]stadium.Stadium{{ID: "s1", Name: "Jamsil"}})
	day := time.Date(2024, 3, 23, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"g2", "g1"} {
		err := store.Games().Create(ctx, game.Game{
			ID:         id,
			DateTime:   day.Add(time.Duration(18-i*4) * time.Hour),
			HomeTeamID: "h" + id,
			AwayTeamID: "a" + id,
			StadiumID:  "s1",
			Status:     game.StatusScheduled,
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	now := day.Add(20 * time.Hour)
	if err := store.Games().UpdateResult(ctx, "g2", game.Result{HomeScore: 5, AwayScore: 3, Status: game.StatusFinished}, now); err != nil {
		t.Fatalf("update result: %v", err)
	}

	items, err := store.Games().ListBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list between: %v", err)
	}
	if len(items) != 2 || items[0].ID != "g1" || items[1].ID != "g2" {
		t.Fatalf("unexpected order: %+v", items)
	}
	if items[1].Status != game.StatusFinished || items[1].HomeScore != 5 {
		t.Fatalf("expected g2 updated, got %+v", items[1])
	}

	if err := store.Games().UpdateResult(ctx, "missing", game.Result{Status: game.StatusFinished}, now); err == nil {
		t.Fatalf("expected error for missing game")
	}
}

func TestStadiumRepository_FindMatching(t *testing.T) {
	ctx := context.Background()
	store := NewScheduleStore([]stadium.Stadium{
		{ID: "s1", Name: "Jamsil"},
		{ID: "s2", Name: "Sajik"},
	})

	items, err := store.Stadiums().FindMatching(ctx, "JAMSIL Baseball Stadium")
	if err != nil {
		t.Fatalf("find matching: %v", err)
	}
	if len(items) != 1 || items[0].ID != "s1" {
		t.Fatalf("unexpected matches: %+v", items)
	}

	if err := store.Stadiums().Create(ctx, stadium.Stadium{ID: "s3", Name: " sajik "}); !errors.Is(err, schedule.ErrConflict) {
		t.Fatalf("expected conflict on duplicate name, got %v", err)
	}
}

func TestTeamRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTeamRepository(SeedTeams())

	count, err := repo.Count(ctx)
	if err != nil || count != 10 {
		t.Fatalf("expected 10 seeded teams, got %d err=%v", count, err)
	}

	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].Name > items[i].Name {
			t.Fatalf("expected teams sorted by name")
		}
	}

	if _, ok, _ := repo.GetByID(ctx, "kbo-lg"); !ok {
		t.Fatalf("expected LG Twins")
	}
	dup := SeedTeams()[0]
	dup.ID = "other"
	if err := repo.Create(ctx, dup); err == nil {
		t.Fatalf("expected duplicate code error")
	}
}
