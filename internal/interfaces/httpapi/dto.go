package httpapi

import (
	"time"

	"github.com/ballog/ballog-api/internal/domain/stadium"
	"github.com/ballog/ballog-api/internal/domain/team"
	"github.com/ballog/ballog-api/internal/usecase"
)

type crawlScheduleRequest struct {
	StartDate string `validate:"required,datetime=2006-01-02"`
	EndDate   string `validate:"required,datetime=2006-01-02"`
}

type monthlyGamesRequest struct {
	Year  int `validate:"required,min=1982,max=9999"`
	Month int `validate:"required,min=1,max=12"`
}

type crawlAcceptedDTO struct {
	Message string       `json:"message"`
	Run     runStatusDTO `json:"run"`
}

type runStatusDTO struct {
	State         string   `json:"state"`
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	TotalDays     int      `json:"totalDays"`
	DaysProcessed int      `json:"daysProcessed"`
	Percent       int      `json:"percent"`
	Created       int      `json:"created"`
	Updated       int      `json:"updated"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	FailedDays    []string `json:"failedDays,omitempty"`
	StartedAt     string   `json:"startedAt,omitempty"`
	FinishedAt    string   `json:"finishedAt,omitempty"`
	LastError     string   `json:"lastError,omitempty"`
}

type teamDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ShortName    string `json:"shortName"`
	Code         string `json:"code,omitempty"`
	LogoURL      string `json:"logoUrl,omitempty"`
	PrimaryColor string `json:"primaryColor,omitempty"`
}

type stadiumDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	WeatherKeyword string `json:"weatherKeyword,omitempty"`
}

type gameDTO struct {
	ID           string     `json:"id"`
	GameDateTime string     `json:"gameDateTime"`
	GameID       string     `json:"gameId,omitempty"`
	HomeTeam     teamDTO    `json:"homeTeam"`
	AwayTeam     teamDTO    `json:"awayTeam"`
	Stadium      stadiumDTO `json:"stadium"`
	HomeScore    int        `json:"homeScore"`
	AwayScore    int        `json:"awayScore"`
	Status       string     `json:"status"`
}

func runStatusToDTO(status usecase.RunStatus) runStatusDTO {
	return runStatusDTO{
		State:         string(status.State),
		StartDate:     status.StartDate,
		EndDate:       status.EndDate,
		TotalDays:     status.TotalDays,
		DaysProcessed: status.DaysProcessed,
		Percent:       status.Percent,
		Created:       status.Created,
		Updated:       status.Updated,
		Skipped:       status.Skipped,
		Failed:        status.Failed,
		FailedDays:    status.FailedDays,
		StartedAt:     formatOptionalTime(status.StartedAt),
		FinishedAt:    formatOptionalTime(status.FinishedAt),
		LastError:     status.LastError,
	}
}

func teamToDTO(item team.Team) teamDTO {
	return teamDTO{
		ID:           item.ID,
		Name:         item.Name,
		ShortName:    item.ShortName,
		Code:         item.Code,
		LogoURL:      item.LogoURL,
		PrimaryColor: item.PrimaryColor,
	}
}

func stadiumToDTO(item stadium.Stadium) stadiumDTO {
	return stadiumDTO{
		ID:             item.ID,
		Name:           item.Name,
		WeatherKeyword: item.WeatherKeyword,
	}
}

func gameDetailsToDTO(item usecase.GameDetails, loc *time.Location) gameDTO {
	return gameDTO{
		ID:           item.Game.ID,
		GameDateTime: item.Game.DateTime.In(loc).Format(time.RFC3339),
		GameID:       item.Game.ExternalID,
		HomeTeam:     teamToDTO(item.HomeTeam),
		AwayTeam:     teamToDTO(item.AwayTeam),
		Stadium:      stadiumToDTO(item.Stadium),
		HomeScore:    item.Game.HomeScore,
		AwayScore:    item.Game.AwayScore,
		Status:       string(item.Game.Status),
	}
}

func formatOptionalTime(value *time.Time) string {
	if value == nil || value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
