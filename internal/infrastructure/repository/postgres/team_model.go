package postgres

import (
	"database/sql"
	"time"

	"github.com/ballog/ballog-api/internal/domain/team"
)

type teamTableModel struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	ShortName    string         `db:"short_name"`
	Code         string         `db:"code"`
	PrimaryColor sql.NullString `db:"primary_color"`
	LogoURL      sql.NullString `db:"logo_url"`
	CreatedAt    time.Time      `db:"created_at,readonly"`
	UpdatedAt    time.Time      `db:"updated_at,readonly"`
}

var teamColumns = mustModelColumns(teamTableModel{})

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:           m.ID,
		Name:         m.Name,
		ShortName:    m.ShortName,
		Code:         m.Code,
		PrimaryColor: m.PrimaryColor.String,
		LogoURL:      m.LogoURL.String,
	}
}

func teamRowFromDomain(item team.Team) teamTableModel {
	return teamTableModel{
		ID:           item.ID,
		Name:         item.Name,
		ShortName:    item.ShortName,
		Code:         item.Code,
		PrimaryColor: nullString(item.PrimaryColor),
		LogoURL:      nullString(item.LogoURL),
	}
}
