package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ballog/ballog-api/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
)

func (h *Handler) TriggerScheduleCrawl(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerScheduleCrawl")
	defer span.End()

	query := r.URL.Query()
	req := crawlScheduleRequest{
		StartDate: strings.TrimSpace(query.Get("startDate")),
		EndDate:   strings.TrimSpace(query.Get("endDate")),
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	span.SetAttributes(
		attribute.String("crawl.start_date", req.StartDate),
		attribute.String("crawl.end_date", req.EndDate),
	)
	status, err := h.crawlService.Start(ctx, usecase.CrawlInput{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		markSpanError(span, err)
		h.logger.WarnContext(ctx, "schedule crawl rejected", "start_date", req.StartDate, "end_date", req.EndDate, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, crawlAcceptedDTO{
		Message: fmt.Sprintf("Crawling initiated in background from %s to %s", req.StartDate, req.EndDate),
		Run:     runStatusToDTO(status),
	})
}

func (h *Handler) GetCrawlStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCrawlStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, runStatusToDTO(h.crawlService.Status()))
}
