package httpapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ballog/ballog-api/internal/progress"
	"github.com/ballog/ballog-api/internal/usecase"
	"github.com/stretchr/testify/require"
	"github.com/valyala/bytebufferpool"
)

func TestEncodeProgressFrame(t *testing.T) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	err := encodeProgressFrame(buf, progress.Event{Message: "2024-03-23 crawled (1/2)", Percent: 50, Final: true})
	require.NoError(t, err)
	require.Equal(t, "event: progress\ndata: {\"message\":\"2024-03-23 crawled (1/2)\",\"percent\":50}\n\n", buf.String())
}

func TestStreamCrawlProgress_ForwardsUntilFinalEvent(t *testing.T) {
	h := newHandlerHarness(t, HandlerOptions{})
	h.source.set("2024-03-23", usecase.ExternalScheduleEntry{
		CategoryID:   "kbo",
		GameDateTime: "2024-03-23T14:00:00",
		HomeTeamCode: "LG",
		AwayTeamCode: "KT",
		StatusCode:   "BEFORE",
	})

	server := httptest.NewServer(h.router)
	defer server.Close()

	resp, err := http.Get(server.URL + progressStreamPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Equal(t, 1, h.broadcaster.Count())

	trigger, err := http.Post(server.URL+"/api/v1/admin/crawl/schedule?startDate=2024-03-22&endDate=2024-03-23", "application/json", nil)
	require.NoError(t, err)
	_ = trigger.Body.Close()
	require.Equal(t, http.StatusAccepted, trigger.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	stream := string(raw)

	want := []string{
		"event: progress\ndata: {\"message\":\"2024-03-22 crawled (1/2)\",\"percent\":50}\n\n",
		"event: progress\ndata: {\"message\":\"2024-03-23 crawled (2/2)\",\"percent\":100}\n\n",
		"event: progress\ndata: {\"message\":\"crawl completed\",\"percent\":100}\n\n",
	}
	last := -1
	for _, frame := range want {
		idx := strings.Index(stream, frame)
		require.Greater(t, idx, last, "frame %q missing or out of order in %q", frame, stream)
		last = idx
	}

	require.Eventually(t, func() bool { return h.broadcaster.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStreamCrawlProgress_ClosesWhenIdle(t *testing.T) {
	h := newHandlerHarness(t, HandlerOptions{
		ProgressStreamTimeout: 50 * time.Millisecond,
		HeartbeatInterval:     time.Hour,
	})

	server := httptest.NewServer(h.router)
	defer server.Close()

	started := time.Now()
	resp, err := http.Get(server.URL + progressStreamPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Empty(t, string(raw))
	require.Less(t, time.Since(started), 2*time.Second)
	require.Eventually(t, func() bool { return h.broadcaster.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStreamCrawlProgress_WritesHeartbeats(t *testing.T) {
	h := newHandlerHarness(t, HandlerOptions{
		ProgressStreamTimeout: 200 * time.Millisecond,
		HeartbeatInterval:     20 * time.Millisecond,
	})

	server := httptest.NewServer(h.router)
	defer server.Close()

	resp, err := http.Get(server.URL + progressStreamPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), ": keep-alive\n\n")
	require.NotContains(t, string(raw), "event: progress")
}

func TestStreamCrawlProgress_EndsOnBroadcasterShutdown(t *testing.T) {
	h := newHandlerHarness(t, HandlerOptions{HeartbeatInterval: time.Hour})

	server := httptest.NewServer(h.router)
	defer server.Close()

	resp, err := http.Get(server.URL + progressStreamPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	h.broadcaster.CloseAll()

	done := make(chan struct{})
	go func() {
		_, _ = io.ReadAll(resp.Body)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("stream did not close after broadcaster shutdown")
	}
}
