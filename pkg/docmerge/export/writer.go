package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/randalmurphal/docmerge/pkg/docmerge/document"
	"github.com/randalmurphal/docmerge/pkg/docmerge/observability"
)

// FileWriter exports documents into a directory. Files are replaced
// atomically, so readers never see a partial document.
type FileWriter struct {
	dir      string
	exporter Exporter
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
}

// WriterOption configures a FileWriter.
type WriterOption func(*FileWriter)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) WriterOption {
	return func(w *FileWriter) {
		w.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r observability.MetricsRecorder) WriterOption {
	return func(w *FileWriter) {
		if r != nil {
			w.metrics = r
		}
	}
}

// WithSpanManager sets the span manager.
func WithSpanManager(s observability.SpanManager) WriterOption {
	return func(w *FileWriter) {
		if s != nil {
			w.spans = s
		}
	}
}

// NewFileWriter creates a FileWriter for dir using exporter.
func NewFileWriter(dir string, exporter Exporter, opts ...WriterOption) *FileWriter {
	w := &FileWriter{
		dir:      dir,
		exporter: exporter,
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *FileWriter) Dir() string { return w.dir }

// Write exports doc to <dir>/<doc.Filename(format)> and returns the path
// and size written.
func (w *FileWriter) Write(ctx context.Context, doc *document.Document) (string, int64, error) {
	format := w.exporter.Format()
	ctx, span := w.spans.StartExportSpan(ctx, format)

	path, size, err := w.write(ctx, doc, format)
	w.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogExportError(w.logger, format, err)
		return "", 0, err
	}

	w.metrics.RecordExport(ctx, format, size)
	observability.LogExport(w.logger, format, path, size)
	return path, size, nil
}

func (w *FileWriter) write(ctx context.Context, doc *document.Document, format string) (string, int64, error) {
	var buf bytes.Buffer
	size, err := w.exporter.Export(ctx, doc, &buf)
	if err != nil {
		return "", 0, fmt.Errorf("export %s: %w", format, err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(w.dir, doc.Filename(format))
	if err := atomic.WriteFile(path, &buf); err != nil {
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}
	return path, size, nil
}
