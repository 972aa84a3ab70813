package usecase

import (
	"context"
	"fmt"

	"github.com/ballog/ballog-api/internal/domain/team"
	"github.com/ballog/ballog-api/internal/platform/logging"
)

type TeamService struct {
	teamRepo team.Repository
	resolver *TeamResolver
	logger   *logging.Logger
}

func NewTeamService(teamRepo team.Repository, resolver *TeamResolver, logger *logging.Logger) *TeamService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamService{
		teamRepo: teamRepo,
		resolver: resolver,
		logger:   logger,
	}
}

func (s *TeamService) List(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.List")
	defer span.End()

	items, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return items, nil
}

// EnsureSeeded inserts seeds when the team table is empty. It returns the
// number of teams created.
func (s *TeamService) EnsureSeeded(ctx context.Context, seeds []team.Team) (int, error) {
	count, err := s.teamRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count teams: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, item := range seeds {
		if err := item.Validate(); err != nil {
			return 0, fmt.Errorf("%w: seed team %s: %v", ErrInvalidInput, item.Code, err)
		}
		if err := s.teamRepo.Create(ctx, item); err != nil {
			return 0, fmt.Errorf("create seed team %s: %w", item.Code, err)
		}
	}
	if s.resolver != nil {
		s.resolver.Invalidate(ctx)
	}

	s.logger.InfoContext(ctx, "teams seeded", "count", len(seeds))
	return len(seeds), nil
}
