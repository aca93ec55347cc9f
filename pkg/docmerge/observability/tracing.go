package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span and event attribute keys.
const (
	AttrTemplateKey    = attribute.Key("template.key")
	AttrTemplateSource = attribute.Key("template.source")
	AttrDocumentID     = attribute.Key("document.id")
	AttrExportFormat   = attribute.Key("export.format")
	AttrFallbackReason = attribute.Key("docmerge.fallback.reason")
	AttrRetryAttempt   = attribute.Key("docmerge.retry.attempt")
)

// Span names.
const (
	SpanMerge        = "docmerge.merge"
	SpanTemplateLoad = "docmerge.template.load"
	SpanExport       = "docmerge.export"
)

var tracer = otel.Tracer("docmerge")

// SpanManager starts and finishes the spans of a merge.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartMergeSpan starts the root span of one merge.
	StartMergeSpan(ctx context.Context, templateKey, docID string) (context.Context, trace.Span)

	// StartLoadSpan starts a client span around a template source lookup.
	StartLoadSpan(ctx context.Context, source, key string) (context.Context, trace.Span)

	// StartExportSpan starts a span around rendering one document.
	StartExportSpan(ctx context.Context, format string) (context.Context, trace.Span)

	// EndSpanWithError sets the span status from err and ends it.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the span in ctx, if it is recording.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager backed by the global OTel tracer
// provider. Set the provider first:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return otelSpanManager{}
}

func start(ctx context.Context, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithSpanKind(kind), trace.WithAttributes(attrs...))
}

func (otelSpanManager) StartMergeSpan(ctx context.Context, templateKey, docID string) (context.Context, trace.Span) {
	return start(ctx, SpanMerge, trace.SpanKindInternal,
		AttrTemplateKey.String(templateKey),
		AttrDocumentID.String(docID),
	)
}

func (otelSpanManager) StartLoadSpan(ctx context.Context, source, key string) (context.Context, trace.Span) {
	return start(ctx, SpanTemplateLoad, trace.SpanKindClient,
		AttrTemplateSource.String(source),
		AttrTemplateKey.String(key),
	)
}

func (otelSpanManager) StartExportSpan(ctx context.Context, format string) (context.Context, trace.Span) {
	return start(ctx, SpanExport, trace.SpanKindInternal, AttrExportFormat.String(format))
}

func (otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// EndSpanWithError marks span as failed when err is non-nil, Ok otherwise,
// and ends it. A nil span is ignored.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the recording span in ctx.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
