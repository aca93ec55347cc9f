package document

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/docmerge/pkg/docmerge/catalog"
	docerr "github.com/randalmurphal/docmerge/pkg/docmerge/errors"
	"github.com/randalmurphal/docmerge/pkg/docmerge/observability"
	"github.com/randalmurphal/docmerge/pkg/docmerge/placeholder"
	"github.com/randalmurphal/docmerge/pkg/docmerge/record"
	"github.com/randalmurphal/docmerge/pkg/docmerge/source"
)

// Request asks for one template merged with one record.
type Request struct {
	Template catalog.Template
	RecordID string

	// Record supplies the field values. A nil Record leaves every marker
	// in place.
	Record placeholder.Record

	// RecordName is the display name used in the export file name. When
	// empty it is read from the record's name field.
	RecordName string
}

// Merger loads templates and fills them with record values.
type Merger struct {
	templates source.Source
	engine    *placeholder.Engine
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	fallback  bool
	nameField string
	now       func() time.Time
}

// Option configures a Merger.
type Option func(*Merger)

// WithEngine sets the substitution engine. Default: placeholder.NewEngine().
func WithEngine(e *placeholder.Engine) Option {
	return func(m *Merger) {
		if e != nil {
			m.engine = e
		}
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(m *Merger) {
		m.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r observability.MetricsRecorder) Option {
	return func(m *Merger) {
		if r != nil {
			m.metrics = r
		}
	}
}

// WithSpanManager sets the span manager.
func WithSpanManager(s observability.SpanManager) Option {
	return func(m *Merger) {
		if s != nil {
			m.spans = s
		}
	}
}

// WithFallback controls whether a missing or corrupt template is replaced
// by SampleTemplate. Default: true.
func WithFallback(enabled bool) Option {
	return func(m *Merger) {
		m.fallback = enabled
	}
}

// WithNameField sets the record field used as display name.
// Default: record.DefaultNameField.
func WithNameField(name string) Option {
	return func(m *Merger) {
		if name != "" {
			m.nameField = name
		}
	}
}

// NewMerger creates a Merger reading template text from templates.
func NewMerger(templates source.Source, opts ...Option) *Merger {
	m := &Merger{
		templates: templates,
		engine:    placeholder.NewEngine(),
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		fallback:  true,
		nameField: record.DefaultNameField,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge renders req.Template with req.Record.
//
// Missing fields never fail a merge; they are reported on the Document.
// A template that is missing or corrupt yields the sample document when
// fallback is enabled. Every other load failure is returned.
func (m *Merger) Merge(ctx context.Context, req Request) (*Document, error) {
	key := req.Template.FileName
	if key == "" {
		return nil, docerr.Malformed("merge", "template %q has no file name", req.Template.ID)
	}

	doc := &Document{
		ID:           uuid.New(),
		TemplateID:   req.Template.ID,
		TemplateName: req.Template.Name,
		RecordID:     req.RecordID,
		RecordName:   req.RecordName,
		CreatedAt:    m.now(),
	}
	if doc.RecordName == "" {
		if v, ok := req.Record.Get(m.nameField); ok {
			doc.RecordName = placeholder.FormatValue(v)
		}
	}

	ctx, span := m.spans.StartMergeSpan(ctx, key, doc.ID.String())

	logger := observability.EnrichLogger(m.logger, doc.ID.String(), key, req.RecordID)
	observability.LogMergeStart(logger, key, req.RecordID)
	elapsed := observability.TimedOperation()
	start := m.now()

	rec := req.Record
	text, err := m.load(ctx, key)
	if err != nil {
		if !m.fallback || !docerr.IsFallbackEligible(err) {
			err = fmt.Errorf("merge %s: %w", key, err)
			observability.LogMergeError(logger, key, err, elapsed())
			m.metrics.RecordMerge(ctx, key, m.now().Sub(start), err)
			m.spans.EndSpanWithError(span, err)
			return nil, err
		}

		observability.LogTemplateFallback(logger, key, err)
		m.metrics.RecordFallback(ctx, key)
		m.spans.AddSpanEvent(ctx, "template.fallback", observability.AttrFallbackReason.String(err.Error()))

		text = SampleTemplate()
		doc.Fallback = true
		doc.Notice = fmt.Sprintf("Template %q could not be loaded (%v). A sample document is shown instead.", displayName(req.Template), err)
		if rec != nil {
			if _, ok := rec.Get("template_name"); !ok {
				rec = rec.With("template_name", displayName(req.Template))
			}
		}
	}

	doc.Placeholders = placeholder.ExtractPlaceholders(text)
	doc.MissingFields = placeholder.ValidateRecord(rec, doc.Placeholders).MissingFields
	if len(doc.MissingFields) > 0 {
		observability.LogMissingFields(logger, key, doc.MissingFields)
		m.metrics.RecordMissingFields(ctx, key, len(doc.MissingFields))
	}

	doc.HTML = m.engine.Substitute(text, rec)

	m.metrics.RecordMerge(ctx, key, m.now().Sub(start), nil)
	m.spans.EndSpanWithError(span, nil)
	observability.LogMergeComplete(logger, key, elapsed(), len(doc.Placeholders), len(doc.MissingFields))
	return doc, nil
}

// Placeholders loads a template and returns its distinct marker names.
func (m *Merger) Placeholders(ctx context.Context, t catalog.Template) ([]string, error) {
	if t.FileName == "" {
		return nil, docerr.Malformed("placeholders", "template %q has no file name", t.ID)
	}
	text, err := m.load(ctx, t.FileName)
	if err != nil {
		return nil, err
	}
	return placeholder.ExtractPlaceholders(text), nil
}

func (m *Merger) load(ctx context.Context, key string) (string, error) {
	ctx, span := m.spans.StartLoadSpan(ctx, m.templates.Name(), key)
	text, err := m.templates.Load(ctx, key)
	m.spans.EndSpanWithError(span, err)
	return text, err
}

func displayName(t catalog.Template) string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}
