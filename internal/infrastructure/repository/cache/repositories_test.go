package cache

import (
	"context"
	"testing"
	"time"

	"github.com/ballog/ballog-api/internal/domain/stadium"
	"github.com/ballog/ballog-api/internal/domain/team"
	"github.com/ballog/ballog-api/internal/infrastructure/repository/memory"
	teammock "github.com/ballog/ballog-api/internal/mocks/domain/team"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTeamRepository_ListIsCachedUntilCreate(t *testing.T) {
	ctx := context.Background()
	next := teammock.NewRepository(t)
	lg := team.Team{ID: "kbo-lg", Name: "LG Twins", Code: "LG"}
	kt := team.Team{ID: "kbo-kt", Name: "KT Wiz", Code: "KT"}

	next.On("List", mock.Anything).Return([]team.Team{lg}, nil).Once()
	next.On("Create", mock.Anything, kt).Return(nil).Once()
	next.On("List", mock.Anything).Return([]team.Team{lg, kt}, nil).Once()

	repo := NewTeamRepository(next, time.Minute)

	first, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	again, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, first, again)

	require.NoError(t, repo.Create(ctx, kt))

	refreshed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, refreshed, 2)
}

func TestTeamRepository_GetByIDSkipsMisses(t *testing.T) {
	ctx := context.Background()
	next := teammock.NewRepository(t)
	lg := team.Team{ID: "kbo-lg", Name: "LG Twins", Code: "LG"}

	next.On("GetByID", mock.Anything, "kbo-lg").Return(lg, true, nil).Once()
	next.On("GetByID", mock.Anything, "missing").Return(team.Team{}, false, nil).Twice()

	repo := NewTeamRepository(next, time.Minute)
	for i := 0; i < 2; i++ {
		item, ok, err := repo.GetByID(ctx, "kbo-lg")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, lg, item)

		_, ok, err = repo.GetByID(ctx, "missing")
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestTeamRepository_CountReadsThrough(t *testing.T) {
	next := teammock.NewRepository(t)
	next.On("Count", mock.Anything).Return(0, nil).Once()
	next.On("Count", mock.Anything).Return(10, nil).Once()

	repo := NewTeamRepository(next, time.Minute)
	first, err := repo.Count(context.Background())
	require.NoError(t, err)
	second, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{0, 10}, []int{first, second})
}

func TestStadiumRepository_GetByIDSeesLaterCreates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewScheduleStore(nil)
	repo := NewStadiumRepository(store.Stadiums(), time.Minute)

	_, ok, err := repo.GetByID(ctx, "st-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Stadiums().Create(ctx, stadium.Stadium{ID: "st-1", Name: "잠실"}))

	item, ok, err := repo.GetByID(ctx, "st-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "잠실", item.Name)

	matches, err := repo.FindMatching(ctx, "잠실야구장")
	require.NoError(t, err)
	require.Len(t, matches, 1)
}
