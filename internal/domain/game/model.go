package game

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
	StatusCanceled   Status = "CANCELED"
	StatusSuspended  Status = "SUSPENDED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusFinished, StatusCanceled, StatusSuspended:
		return true
	default:
		return false
	}
}

// Game is one scheduled KBO game. At most one Game exists per Key.
type Game struct {
	ID         string
	ExternalID string
	DateTime   time.Time
	HomeTeamID string
	AwayTeamID string
	StadiumID  string
	HomeScore  int
	AwayScore  int
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Key is the natural identity of a game, independent of the provider id.
type Key struct {
	DateTime   time.Time
	HomeTeamID string
	AwayTeamID string
}

func (g Game) Key() Key {
	return Key{DateTime: g.DateTime, HomeTeamID: g.HomeTeamID, AwayTeamID: g.AwayTeamID}
}

// String renders the key in a form usable as a map key. Instants are
// normalized to UTC so the same moment in two zones collapses.
func (k Key) String() string {
	return strings.Join([]string{k.DateTime.UTC().Format(time.RFC3339), k.HomeTeamID, k.AwayTeamID}, "|")
}

// Result is the mutable part of a game refreshed on every sighting.
type Result struct {
	HomeScore  int
	AwayScore  int
	Status     Status
	ExternalID string
}

// ApplyResult overwrites score, status and external id. Last write wins.
func (g *Game) ApplyResult(r Result, now time.Time) {
	g.HomeScore = r.HomeScore
	g.AwayScore = r.AwayScore
	g.Status = r.Status
	if r.ExternalID != "" {
		g.ExternalID = r.ExternalID
	}
	g.UpdatedAt = now
}

func (g Game) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("game id is required")
	}
	if g.DateTime.IsZero() {
		return fmt.Errorf("game date time is required")
	}
	if g.HomeTeamID == "" || g.AwayTeamID == "" {
		return fmt.Errorf("game teams are required")
	}
	if g.StadiumID == "" {
		return fmt.Errorf("game stadium is required")
	}
	if !g.Status.Valid() {
		return fmt.Errorf("invalid game status %q", g.Status)
	}

	return nil
}
