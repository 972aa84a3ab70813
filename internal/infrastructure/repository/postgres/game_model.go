package postgres

import (
	"database/sql"
	"time"

	"github.com/ballog/ballog-api/internal/domain/game"
)

type gameTableModel struct {
	ID           string         `db:"id"`
	ExternalID   sql.NullString `db:"external_id"`
	GameDateTime time.Time      `db:"game_date_time"`
	HomeTeamID   string         `db:"home_team_id"`
	AwayTeamID   string         `db:"away_team_id"`
	StadiumID    string         `db:"stadium_id"`
	HomeScore    int            `db:"home_score"`
	AwayScore    int            `db:"away_score"`
	Status       string         `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

var gameColumns = mustModelColumns(gameTableModel{})

type gameInsertModel struct {
	ID           string         `db:"id"`
	ExternalID   sql.NullString `db:"external_id"`
	GameDateTime time.Time      `db:"game_date_time"`
	HomeTeamID   string         `db:"home_team_id"`
	AwayTeamID   string         `db:"away_team_id"`
	StadiumID    string         `db:"stadium_id"`
	HomeScore    int            `db:"home_score"`
	AwayScore    int            `db:"away_score"`
	Status       string         `db:"status"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (m gameTableModel) toDomain() game.Game {
	return game.Game{
		ID:         m.ID,
		ExternalID: m.ExternalID.String,
		DateTime:   m.GameDateTime.UTC(),
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		StadiumID:  m.StadiumID,
		HomeScore:  m.HomeScore,
		AwayScore:  m.AwayScore,
		Status:     game.Status(m.Status),
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func gameInsertFromDomain(item game.Game) gameInsertModel {
	createdAt := utc(item.CreatedAt)
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := utc(item.UpdatedAt)
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	return gameInsertModel{
		ID:           item.ID,
		ExternalID:   nullString(item.ExternalID),
		GameDateTime: utc(item.DateTime),
		HomeTeamID:   item.HomeTeamID,
		AwayTeamID:   item.AwayTeamID,
		StadiumID:    item.StadiumID,
		HomeScore:    item.HomeScore,
		AwayScore:    item.AwayScore,
		Status:       string(item.Status),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}
