package httpapi

import "net/http"

const progressStreamPath = "/api/v1/admin/crawl/progress"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicScheduleRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /api/v1/games/monthly", handler.ListMonthlyGames)
}

func registerAdminCrawlRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /api/v1/admin/crawl/schedule", handler.TriggerScheduleCrawl)
	mux.HandleFunc("GET /api/v1/admin/crawl/status", handler.GetCrawlStatus)
	// Long-lived; RequestLogging records it once the stream closes.
	mux.HandleFunc("GET "+progressStreamPath, handler.StreamCrawlProgress)
}
