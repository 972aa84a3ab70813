package postgres

import (
	"database/sql"
	"strings"
	"time"

	"github.com/ballog/ballog-api/internal/domain/stadium"
)

type stadiumTableModel struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	WeatherKeyword sql.NullString `db:"weather_keyword"`
	CreatedAt      time.Time      `db:"created_at,readonly"`
}

var stadiumColumns = mustModelColumns(stadiumTableModel{})

func (m stadiumTableModel) toDomain() stadium.Stadium {
	return stadium.Stadium{
		ID:             m.ID,
		Name:           m.Name,
		WeatherKeyword: m.WeatherKeyword.String,
	}
}

func stadiumRowFromDomain(item stadium.Stadium) stadiumTableModel {
	return stadiumTableModel{
		ID:             item.ID,
		Name:           strings.TrimSpace(item.Name),
		WeatherKeyword: nullString(item.WeatherKeyword),
	}
}
