package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records docmerge metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordMerge records one merge with its duration and error status.
	RecordMerge(ctx context.Context, templateKey string, duration time.Duration, err error)

	// RecordMissingFields records how many template fields a record lacked.
	RecordMissingFields(ctx context.Context, templateKey string, count int)

	// RecordFallback records a merge that used the sample document.
	RecordFallback(ctx context.Context, templateKey string)

	// RecordExport records the size of an exported document.
	RecordExport(ctx context.Context, format string, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	merges        metric.Int64Counter
	mergeLatency  metric.Float64Histogram
	mergeErrors   metric.Int64Counter
	missingFields metric.Int64Histogram
	fallbacks     metric.Int64Counter
	exportSize    metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily builds the instruments on the global provider.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("docmerge"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	merges, err := meter.Int64Counter("docmerge.merge.count",
		metric.WithDescription("Number of template merges"),
	)
	if err != nil {
		return nil, err
	}

	mergeLatency, err := meter.Float64Histogram("docmerge.merge.latency_ms",
		metric.WithDescription("Merge latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	mergeErrors, err := meter.Int64Counter("docmerge.merge.errors",
		metric.WithDescription("Number of failed merges"),
	)
	if err != nil {
		return nil, err
	}

	missingFields, err := meter.Int64Histogram("docmerge.merge.missing_fields",
		metric.WithDescription("Template fields absent from the record"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter("docmerge.template.fallbacks",
		metric.WithDescription("Merges that used the sample document"),
	)
	if err != nil {
		return nil, err
	}

	exportSize, err := meter.Int64Histogram("docmerge.export.size_bytes",
		metric.WithDescription("Exported document size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		merges:        merges,
		mergeLatency:  mergeLatency,
		mergeErrors:   mergeErrors,
		missingFields: missingFields,
		fallbacks:     fallbacks,
		exportSize:    exportSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before the first call:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderWithMeter builds a recorder on a specific meter.
func NewMetricsRecorderWithMeter(meter metric.Meter) (MetricsRecorder, error) {
	m, err := newOtelMetrics(meter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordMerge records a merge.
func (m *otelMetrics) RecordMerge(ctx context.Context, templateKey string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("template", templateKey))

	m.merges.Add(ctx, 1, attrs)
	m.mergeLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.mergeErrors.Add(ctx, 1, attrs)
	}
}

// RecordMissingFields records the missing field count.
func (m *otelMetrics) RecordMissingFields(ctx context.Context, templateKey string, count int) {
	m.missingFields.Record(ctx, int64(count), metric.WithAttributes(attribute.String("template", templateKey)))
}

// RecordFallback records a fallback.
func (m *otelMetrics) RecordFallback(ctx context.Context, templateKey string) {
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("template", templateKey)))
}

// RecordExport records an export.
func (m *otelMetrics) RecordExport(ctx context.Context, format string, sizeBytes int64) {
	m.exportSize.Record(ctx, sizeBytes, metric.WithAttributes(attribute.String("format", format)))
}
