package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordMerge(ctx, "a", time.Second, errors.New("x"))
		m.RecordMissingFields(ctx, "a", 2)
		m.RecordFallback(ctx, "a")
		m.RecordExport(ctx, "html", 10)
	})
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	got, span := sm.StartMergeSpan(ctx, "a", "b")
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())

	got, _ = sm.StartLoadSpan(ctx, "dir", "a")
	assert.Equal(t, ctx, got)
	got, _ = sm.StartExportSpan(ctx, "html")
	assert.Equal(t, ctx, got)

	assert.NotPanics(t, func() {
		sm.EndSpanWithError(span, errors.New("x"))
		sm.AddSpanEvent(ctx, "e")
	})
}
