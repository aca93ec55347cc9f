package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

// RecordMerge does nothing.
func (NoopMetrics) RecordMerge(_ context.Context, _ string, _ time.Duration, _ error) {}

// RecordMissingFields does nothing.
func (NoopMetrics) RecordMissingFields(_ context.Context, _ string, _ int) {}

// RecordFallback does nothing.
func (NoopMetrics) RecordFallback(_ context.Context, _ string) {}

// RecordExport does nothing.
func (NoopMetrics) RecordExport(_ context.Context, _ string, _ int64) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartMergeSpan returns ctx unchanged and a no-op span.
func (NoopSpanManager) StartMergeSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartLoadSpan returns ctx unchanged and a no-op span.
func (NoopSpanManager) StartLoadSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartExportSpan returns ctx unchanged and a no-op span.
func (NoopSpanManager) StartExportSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
