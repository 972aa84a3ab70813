package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ballog/ballog-api/internal/domain/game"
	"github.com/ballog/ballog-api/internal/domain/team"
	"github.com/ballog/ballog-api/internal/platform/cache"
)

// ExternalScheduleEntry is one game as reported by the schedule provider.
// It is never persisted.
type ExternalScheduleEntry struct {
	ExternalID   string
	CategoryID   string
	GameDateTime string
	HomeTeamCode string
	HomeTeamName string
	AwayTeamCode string
	AwayTeamName string
	HomeScore    *int
	AwayScore    *int
	StatusCode   string
	Cancel       bool
	Stadium      string
	DoubleHeader int
}

// ScheduleSource fetches the provider schedule for the inclusive date window
// [from, to]. Implementations make exactly one attempt and report failures
// as ErrSourceUnavailable.
type ScheduleSource interface {
	FetchSchedule(ctx context.Context, from, to time.Time) ([]ExternalScheduleEntry, error)
}

// CanonicalGame is a schedule entry that passed validation and whose teams
// were both resolved.
type CanonicalGame struct {
	ExternalID   string
	DateTime     time.Time
	HomeTeam     team.Team
	AwayTeam     team.Team
	StadiumName  string
	HomeScore    int
	AwayScore    int
	Status       game.Status
	DoubleHeader int
}

func (g CanonicalGame) Key() game.Key {
	return game.Key{DateTime: g.DateTime, HomeTeamID: g.HomeTeam.ID, AwayTeamID: g.AwayTeam.ID}
}

// MapStatus translates a provider status code. The explicit cancel flag
// overrides any code; unknown codes map to scheduled.
func MapStatus(code string, explicitCancel bool) game.Status {
	if explicitCancel {
		return game.StatusCanceled
	}

	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "BEFORE":
		return game.StatusScheduled
	case "LIVE":
		return game.StatusInProgress
	case "RESULT", "END":
		return game.StatusFinished
	case "CANCEL":
		return game.StatusCanceled
	case "SUSPEND":
		return game.StatusSuspended
	default:
		return game.StatusScheduled
	}
}

const teamsByCodeCacheKey = "teams:by-code"

// TeamResolver looks teams up by exact short code. The team table is
// reference data, so the code index is cached for the configured TTL.
type TeamResolver struct {
	repo  team.Repository
	cache *cache.Store[map[string]team.Team]
}

func NewTeamResolver(repo team.Repository, ttl time.Duration) *TeamResolver {
	return &TeamResolver{
		repo:  repo,
		cache: cache.NewStore[map[string]team.Team](ttl),
	}
}

// Resolve returns (team, true, nil) on a hit and (zero, false, nil) on a
// miss. Only repository failures are errors.
func (r *TeamResolver) Resolve(ctx context.Context, code string) (team.Team, bool, error) {
	code = normalizeTeamCode(code)
	if code == "" {
		return team.Team{}, false, nil
	}

	index, err := r.cache.GetOrLoad(ctx, teamsByCodeCacheKey, r.loadIndex)
	if err != nil {
		return team.Team{}, false, err
	}

	item, ok := index[code]
	return item, ok, nil
}

// Invalidate drops the cached code index.
func (r *TeamResolver) Invalidate(ctx context.Context) {
	r.cache.Delete(ctx, teamsByCodeCacheKey)
}

func (r *TeamResolver) loadIndex(ctx context.Context) (map[string]team.Team, error) {
	items, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	index := make(map[string]team.Team, len(items))
	for _, item := range items {
		if code := normalizeTeamCode(item.Code); code != "" {
			index[code] = item
		}
	}
	return index, nil
}

func normalizeTeamCode(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

const providerDateTimeLayout = "2006-01-02T15:04:05"

// ScheduleMapper turns provider entries into canonical games.
type ScheduleMapper struct {
	teams    *TeamResolver
	location *time.Location
}

// NewScheduleMapper builds a mapper. Zone-less provider date-times are read
// in loc; a nil loc means UTC.
func NewScheduleMapper(teams *TeamResolver, loc *time.Location) *ScheduleMapper {
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleMapper{teams: teams, location: loc}
}

// ToCanonical validates entry and resolves both teams. It fails with
// ErrInvalidEntry for missing or malformed fields and ErrUnresolvedTeam when
// a team code matches no known team.
func (m *ScheduleMapper) ToCanonical(ctx context.Context, entry ExternalScheduleEntry) (CanonicalGame, error) {
	externalID := strings.TrimSpace(entry.ExternalID)
	if externalID == "" {
		return CanonicalGame{}, fmt.Errorf("%w: external id is required", ErrInvalidEntry)
	}

	homeCode := entryTeamCode(entry.HomeTeamCode, entry.HomeTeamName)
	awayCode := entryTeamCode(entry.AwayTeamCode, entry.AwayTeamName)
	if homeCode == "" || awayCode == "" {
		return CanonicalGame{}, fmt.Errorf("%w: team is required game=%s", ErrInvalidEntry, externalID)
	}

	dateTime, err := m.parseDateTime(entry.GameDateTime)
	if err != nil {
		return CanonicalGame{}, fmt.Errorf("%w: game=%s: %v", ErrInvalidEntry, externalID, err)
	}

	home, ok, err := m.teams.Resolve(ctx, homeCode)
	if err != nil {
		return CanonicalGame{}, fmt.Errorf("resolve home team: %w", err)
	}
	if !ok {
		return CanonicalGame{}, fmt.Errorf("%w: home=%s game=%s", ErrUnresolvedTeam, homeCode, externalID)
	}
	away, ok, err := m.teams.Resolve(ctx, awayCode)
	if err != nil {
		return CanonicalGame{}, fmt.Errorf("resolve away team: %w", err)
	}
	if !ok {
		return CanonicalGame{}, fmt.Errorf("%w: away=%s game=%s", ErrUnresolvedTeam, awayCode, externalID)
	}

	return CanonicalGame{
		ExternalID:   externalID,
		DateTime:     dateTime,
		HomeTeam:     home,
		AwayTeam:     away,
		StadiumName:  strings.TrimSpace(entry.Stadium),
		HomeScore:    scoreOrZero(entry.HomeScore),
		AwayScore:    scoreOrZero(entry.AwayScore),
		Status:       MapStatus(entry.StatusCode, entry.Cancel),
		DoubleHeader: entry.DoubleHeader,
	}, nil
}

func (m *ScheduleMapper) parseDateTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("date time is required")
	}
	if value, err := time.ParseInLocation(providerDateTimeLayout, raw, m.location); err == nil {
		return value, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date time %q", raw)
	}
	return value.In(m.location), nil
}

// entryTeamCode prefers the provider team code and falls back to the name
// field, which some feeds fill with the code instead.
func entryTeamCode(code, name string) string {
	if v := strings.TrimSpace(code); v != "" {
		return v
	}
	return strings.TrimSpace(name)
}

func scoreOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
