package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ballog/ballog-api/internal/domain/game"
	"github.com/ballog/ballog-api/internal/domain/stadium"
	"github.com/ballog/ballog-api/internal/domain/team"
)

// GameDetails is a game with its teams and stadium resolved.
type GameDetails struct {
	Game     game.Game
	HomeTeam team.Team
	AwayTeam team.Team
	Stadium  stadium.Stadium
}

type GameService struct {
	gameRepo    game.Repository
	teamRepo    team.Repository
	stadiumRepo stadium.Repository
	location    *time.Location
}

func NewGameService(gameRepo game.Repository, teamRepo team.Repository, stadiumRepo stadium.Repository, loc *time.Location) *GameService {
	if loc == nil {
		loc = time.UTC
	}
	return &GameService{
		gameRepo:    gameRepo,
		teamRepo:    teamRepo,
		stadiumRepo: stadiumRepo,
		location:    loc,
	}
}

// ListMonthly returns the games scheduled in the given calendar month, read
// in the service location.
func (s *GameService) ListMonthly(ctx context.Context, year, month int) ([]GameDetails, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.ListMonthly")
	defer span.End()

	if year < 1982 || year > 9999 {
		return nil, fmt.Errorf("%w: invalid year %d", ErrInvalidInput, year)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: invalid month %d", ErrInvalidInput, month)
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.location)
	to := from.AddDate(0, 1, 0)
	games, err := s.gameRepo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list games between: %w", err)
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	teamByID := make(map[string]team.Team, len(teams))
	for _, item := range teams {
		teamByID[item.ID] = item
	}

	stadiumByID := make(map[string]stadium.Stadium)
	out := make([]GameDetails, 0, len(games))
	for _, item := range games {
		venue, ok := stadiumByID[item.StadiumID]
		if !ok {
			found, exists, err := s.stadiumRepo.GetByID(ctx, item.StadiumID)
			if err != nil {
				return nil, fmt.Errorf("get stadium %s: %w", item.StadiumID, err)
			}
			if exists {
				venue = found
			}
			stadiumByID[item.StadiumID] = venue
		}

		out = append(out, GameDetails{
			Game:     item,
			HomeTeam: teamByID[item.HomeTeamID],
			AwayTeam: teamByID[item.AwayTeamID],
			Stadium:  venue,
		})
	}

	return out, nil
}
