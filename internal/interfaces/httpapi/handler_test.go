package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ballog/ballog-api/internal/domain/game"
	"github.com/ballog/ballog-api/internal/domain/stadium"
	"github.com/ballog/ballog-api/internal/usecase"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	h := newHandlerHarness(t, HandlerOptions{})

	rec := h.do(t, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope[map[string]string](t, rec)
	require.Equal(t, "ok", body.Data["status"])
}

func TestTriggerScheduleCrawl_Accepted(t *testing.T) {
	h := newHandlerHarness(t, HandlerOptions{})
	h.source.set("2024-03-23", usecase.ExternalScheduleEntry{
		ExternalID:   "20240323LGKT02024",
		CategoryID:   "kbo",
		GameDateTime: "2024-03-23T14:00:00",
		HomeTeamCode: "LG",
		AwayTeamCode: "KT",
		StatusCode:   "BEFORE",
		Stadium:      "잠실",
	})

	rec := h.do(t, http.MethodPost, "/api/v1/admin/crawl/schedule?startDate=2024-03-23&endDate=2024-03-24")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	body := decodeEnvelope[crawlAcceptedDTO](t, rec)
	require.Equal(t, "Crawling initiated in background from 2024-03-23 to 2024-03-24", body.Data.Message)
	require.Equal(t, "RUNNING", body.Data.Run.State)
	require.Equal(t, 2, body.Data.Run.TotalDays)

	status := h.waitForState(t, usecase.RunStateCompleted)
	require.Equal(t, 1, status.Created)
	require.Equal(t, 100, status.Percent)

	rec = h.do(t, http.MethodGet, "/api/v1/admin/crawl/status")
	require.Equal(t, http.StatusOK, rec.Code)
	snapshot := decodeEnvelope[runStatusDTO](t, rec)
	require.Equal(t, "COMPLETED", snapshot.Data.State)
	require.Equal(t, 2, snapshot.Data.DaysProcessed)
	require.NotEmpty(t, snapshot.Data.FinishedAt)
}

func TestTriggerScheduleCrawl_InvalidInput(t *testing.T) {
	cases := []struct {
		name  string
		query string
	}{
		{name: "missing end date", query: "startDate=2024-03-23"},
		{name: "missing both", query: ""},
		{name: "bad layout", query: "startDate=2024/03/23&endDate=2024-03-24"},
		{name: "reversed range", query: "startDate=2024-03-24&endDate=2024-03-23"},
		{name: "range too long", query: "startDate=2024-01-01&endDate=2024-12-31"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandlerHarness(t, HandlerOptions{})

			rec := h.do(t, http.MethodPost, "/api/v1/admin/crawl/schedule?"+tc.query)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			body := decodeEnvelope[any](t, rec)
			require.NotNil(t, body.Error)
			require.Equal(t, "INVALID_ARGUMENT", body.Error.Status)
			require.Equal(t, usecase.RunStateIdle, h.crawl.Status().State)
		})
	}
}

func TestTriggerScheduleCrawl_RejectsWhileRunning(t *testing.T) {
	h := newHandlerHarness(t, HandlerOptions{})
	gate := make(chan struct{})
	h.source.gate = gate

	first := h.do(t, http.MethodPost, "/api/v1/admin/crawl/schedule?startDate=2024-03-23&endDate=2024-03-23")
	require.Equal(t, http.StatusAccepted, first.Code)

	second := h.do(t, http.MethodPost, "/api/v1/admin/crawl/schedule?startDate=2024-04-01&endDate=2024-04-01")
	require.Equal(t, http.StatusConflict, second.Code, second.Body.String())
	body := decodeEnvelope[any](t, second)
	require.Equal(t, "ABORTED", body.Error.Status)

	close(gate)
	status := h.waitForState(t, usecase.RunStateCompleted)
	require.Equal(t, "2024-03-23", status.StartDate)
}

func TestListTeams(t *testing.T) {
	h := newHandlerHarness(t, HandlerOptions{})

	rec := h.do(t, http.MethodGet, "/api/v1/teams")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope[[]teamDTO](t, rec)
	require.Len(t, body.Data, 10)

	byCode := make(map[string]teamDTO, len(body.Data))
	for _, item := range body.Data {
		byCode[item.Code] = item
	}
	require.Equal(t, "SSG Landers", byCode["SK"].Name)
	require.Equal(t, "SSG", byCode["SK"].ShortName)
}

func TestListMonthlyGames(t *testing.T) {
	h := newHandlerHarness(t, HandlerOptions{})
	ctx := context.Background()

	require.NoError(t, h.store.Stadiums().Create(ctx, stadium.Stadium{ID: "st-jamsil", Name: "잠실", WeatherKeyword: "Seoul"}))
	inMonth := game.Game{
		ID:         "g-1",
		ExternalID: "20240323LGKT02024",
		DateTime:   time.Date(2024, time.March, 23, 14, 0, 0, 0, time.UTC),
		HomeTeamID: "kbo-lg",
		AwayTeamID: "kbo-kt",
		StadiumID:  "st-jamsil",
		HomeScore:  5,
		AwayScore:  3,
		Status:     game.StatusFinished,
	}
	nextMonth := inMonth
	nextMonth.ID = "g-2"
	nextMonth.ExternalID = ""
	nextMonth.DateTime = time.Date(2024, time.April, 1, 18, 30, 0, 0, time.UTC)
	require.NoError(t, h.store.Games().Create(ctx, inMonth))
	require.NoError(t, h.store.Games().Create(ctx, nextMonth))

	rec := h.do(t, http.MethodGet, "/api/v1/games/monthly?year=2024&month=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeEnvelope[[]gameDTO](t, rec)
	require.Len(t, body.Data, 1)
	got := body.Data[0]
	require.Equal(t, "g-1", got.ID)
	require.Equal(t, "20240323LGKT02024", got.GameID)
	require.Equal(t, "2024-03-23T14:00:00Z", got.GameDateTime)
	require.Equal(t, "LG", got.HomeTeam.ShortName)
	require.Equal(t, "KT", got.AwayTeam.ShortName)
	require.Equal(t, "잠실", got.Stadium.Name)
	require.Equal(t, "Seoul", got.Stadium.WeatherKeyword)
	require.Equal(t, 5, got.HomeScore)
	require.Equal(t, 3, got.AwayScore)
	require.Equal(t, "FINISHED", got.Status)
}

func TestListMonthlyGames_InvalidQuery(t *testing.T) {
	h := newHandlerHarness(t, HandlerOptions{})

	targets := []string{
		"/api/v1/games/monthly?month=3",
		"/api/v1/games/monthly?year=2024",
		"/api/v1/games/monthly?year=abc&month=3",
		"/api/v1/games/monthly?year=2024&month=13",
		"/api/v1/games/monthly?year=1900&month=3",
	}
	for _, target := range targets {
		rec := h.do(t, http.MethodGet, target)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestRouter_UnknownMethodIsRejected(t *testing.T) {
	h := newHandlerHarness(t, HandlerOptions{})

	rec := h.do(t, http.MethodGet, "/api/v1/admin/crawl/schedule")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
