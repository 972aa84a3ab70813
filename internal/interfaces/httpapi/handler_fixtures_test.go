package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ballog/ballog-api/internal/infrastructure/repository/memory"
	"github.com/ballog/ballog-api/internal/platform/logging"
	"github.com/ballog/ballog-api/internal/progress"
	"github.com/ballog/ballog-api/internal/usecase"
	sonic "github.com/bytedance/sonic"
)

type stubScheduleSource struct {
	mu      sync.Mutex
	entries map[string][]usecase.ExternalScheduleEntry
	gate    chan struct{}
}

func newStubScheduleSource() *stubScheduleSource {
	return &stubScheduleSource{entries: make(map[string][]usecase.ExternalScheduleEntry)}
}

func (s *stubScheduleSource) set(day string, entries ...usecase.ExternalScheduleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[day] = entries
}

func (s *stubScheduleSource) FetchSchedule(ctx context.Context, from, _ time.Time) ([]usecase.ExternalScheduleEntry, error) {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[from.Format("2006-01-02")], nil
}

type handlerHarness struct {
	handler     *Handler
	router      http.Handler
	crawl       *usecase.CrawlService
	store       *memory.ScheduleStore
	source      *stubScheduleSource
	broadcaster *progress.Broadcaster
}

func newHandlerHarness(t *testing.T, opts HandlerOptions) *handlerHarness {
	t.Helper()

	logger := logging.NewNop()
	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	store := memory.NewScheduleStore(nil)
	source := newStubScheduleSource()
	broadcaster := progress.NewBroadcaster(progress.DefaultBufferSize)
	resolver := usecase.NewTeamResolver(teamRepo, time.Minute)

	crawl, err := usecase.NewCrawlService(
		source,
		usecase.NewScheduleMapper(resolver, time.UTC),
		usecase.NewReconcileService(store, &counterIDs{}, logger),
		broadcaster,
		logger,
		usecase.CrawlConfig{Category: "kbo", MaxDays: 31, Location: time.UTC},
	)
	if err != nil {
		t.Fatalf("new crawl service: %v", err)
	}
	t.Cleanup(func() {
		crawl.Close()
		broadcaster.CloseAll()
	})

	if opts.Location == nil {
		opts.Location = time.UTC
	}
	handler := NewHandler(
		crawl,
		usecase.NewTeamService(teamRepo, resolver, logger),
		usecase.NewGameService(store.Games(), teamRepo, store.Stadiums(), time.UTC),
		broadcaster,
		logger,
		opts,
	)

	return &handlerHarness{
		handler:     handler,
		router:      NewRouter(handler, logger, nil),
		crawl:       crawl,
		store:       store,
		source:      source,
		broadcaster: broadcaster,
	}
}

func (h *handlerHarness) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *handlerHarness) waitForState(t *testing.T, want usecase.RunState) usecase.RunStatus {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		status := h.crawl.Status()
		if status.State == want {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for run state %s, got %s", want, h.crawl.Status().State)
	return usecase.RunStatus{}
}

type counterIDs struct {
	mu   sync.Mutex
	next int
}

func (g *counterIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%d", g.next), nil
}

type envelope[T any] struct {
	APIVersion string `json:"apiVersion"`
	Data       T      `json:"data"`
	Error      *struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
	} `json:"error"`
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()

	var out envelope[T]
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
	return out
}
