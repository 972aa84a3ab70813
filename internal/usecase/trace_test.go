package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestStartUsecaseSpan_NoParentIsNoop(t *testing.T) {
	ctx := context.Background()
	got, span := startUsecaseSpan(ctx, "usecase.CrawlService.Start")
	defer span.End()

	assert.Equal(t, ctx, got)
	assert.False(t, span.SpanContext().IsValid())
}

func TestStartDetachedSpan_LinksTriggeringSpan(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	got, span := startDetachedSpan(ctx, "usecase.CrawlService.Run")
	defer span.End()

	// The global provider is a no-op in tests, so the returned span carries
	// the parent context through unchanged rather than recording.
	assert.False(t, span.IsRecording())
	recordSpanError(span, errors.New("boom"))
	assert.NotNil(t, got)
}
