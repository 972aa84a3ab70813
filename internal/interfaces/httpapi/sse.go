package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/ballog/ballog-api/internal/progress"
	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"
)

const progressEventName = "progress"

var heartbeatFrame = []byte(": keep-alive\n\n")

// StreamCrawlProgress holds the connection open and forwards progress events
// as server-sent events until the run finishes, the client goes away, or the
// stream stays idle past the configured timeout.
func (h *Handler) StreamCrawlProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StreamCrawlProgress")
	defer span.End()

	rc := http.NewResponseController(w)
	sub := h.broadcaster.Subscribe()
	defer func() {
		sub.Close()
		if dropped := sub.Dropped(); dropped > 0 {
			h.logger.WarnContext(ctx, "progress subscriber dropped events", "subscription_id", sub.ID, "dropped", dropped)
		}
	}()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := flushStream(rc); err != nil {
		return
	}

	h.logger.DebugContext(ctx, "progress stream opened", "subscription_id", sub.ID, "subscribers", h.broadcaster.Count())

	idle := time.NewTimer(h.streamTimeout)
	defer idle.Stop()
	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-idle.C:
			h.logger.DebugContext(ctx, "progress stream idle timeout", "subscription_id", sub.ID)
			return
		case <-heartbeat.C:
			if err := writeStreamFrame(rc, w, heartbeatFrame); err != nil {
				return
			}
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeProgressEvent(rc, w, event); err != nil {
				h.logger.DebugContext(ctx, "progress stream write failed", "subscription_id", sub.ID, "error", err)
				return
			}
			if event.Final {
				return
			}
			resetTimer(idle, h.streamTimeout)
		}
	}
}

func writeProgressEvent(rc *http.ResponseController, w http.ResponseWriter, event progress.Event) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := encodeProgressFrame(buf, event); err != nil {
		return err
	}
	return writeStreamFrame(rc, w, buf.B)
}

func encodeProgressFrame(buf *bytebufferpool.ByteBuffer, event progress.Event) error {
	payload, err := sonic.Marshal(event)
	if err != nil {
		return err
	}

	_, _ = buf.WriteString("event: ")
	_, _ = buf.WriteString(progressEventName)
	_, _ = buf.WriteString("\ndata: ")
	_, _ = buf.Write(payload)
	_, _ = buf.WriteString("\n\n")
	return nil
}

func writeStreamFrame(rc *http.ResponseController, w http.ResponseWriter, frame []byte) error {
	if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	return flushStream(rc)
}

func flushStream(rc *http.ResponseController) error {
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}
