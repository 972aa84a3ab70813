package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ballog/ballog-api/internal/usecase"
)

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	items, err := h.teamService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]teamDTO, 0, len(items))
	for _, item := range items {
		out = append(out, teamToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListMonthlyGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMonthlyGames")
	defer span.End()

	query := r.URL.Query()
	year, err := parseIntQuery(query.Get("year"), "year")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	month, err := parseIntQuery(query.Get("month"), "month")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	req := monthlyGamesRequest{Year: year, Month: month}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.gameService.ListMonthly(ctx, req.Year, req.Month)
	if err != nil {
		h.logger.ErrorContext(ctx, "list monthly games failed", "year", req.Year, "month", req.Month, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]gameDTO, 0, len(items))
	for _, item := range items {
		out = append(out, gameDetailsToDTO(item, h.location))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func parseIntQuery(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", usecase.ErrInvalidInput, name)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return value, nil
}
