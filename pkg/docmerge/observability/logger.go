// Package observability holds the slog helpers, OTel metrics and OTel
// spans used by the merge pipeline.
//
// Every log helper accepts a nil logger. NoopMetrics and NoopSpanManager
// stand in when metrics or tracing are off.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds document context to a logger.
// Returns a new logger with doc_id, template, and record_id fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, doc.ID.String(), "contract.html", "17")
//	enriched.Info("exporting") // includes doc_id, template, record_id
func EnrichLogger(logger *slog.Logger, docID, templateKey, recordID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("doc_id", docID),
		slog.String("template", templateKey),
		slog.String("record_id", recordID),
	)
}

// LogMergeStart logs the start of a merge.
func LogMergeStart(logger *slog.Logger, templateKey, recordID string) {
	if logger == nil {
		return
	}
	logger.Debug("merge starting",
		slog.String("template", templateKey),
		slog.String("record_id", recordID),
	)
}

// LogMergeComplete logs a successful merge.
func LogMergeComplete(logger *slog.Logger, templateKey string, durationMs float64, placeholders, missing int) {
	if logger == nil {
		return
	}
	logger.Info("merge completed",
		slog.String("template", templateKey),
		slog.Float64("duration_ms", durationMs),
		slog.Int("placeholders", placeholders),
		slog.Int("missing_fields", missing),
	)
}

// LogMergeError logs a failed merge.
func LogMergeError(logger *slog.Logger, templateKey string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("merge failed",
		slog.String("template", templateKey),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogMissingFields logs fields the record could not supply. Not an error:
// the document still renders with blanks.
func LogMissingFields(logger *slog.Logger, templateKey string, missing []string) {
	if logger == nil || len(missing) == 0 {
		return
	}
	logger.Warn("record is missing template fields",
		slog.String("template", templateKey),
		slog.Any("fields", missing),
	)
}

// LogTemplateFallback logs that the sample document replaced a template
// that could not be loaded.
func LogTemplateFallback(logger *slog.Logger, templateKey string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("template unavailable, using sample document",
		slog.String("template", templateKey),
		slog.String("error", err.Error()),
	)
}

// LogFetchRetry logs a failed template fetch that will be retried after wait.
func LogFetchRetry(logger *slog.Logger, templateKey string, attempt int, err error, wait time.Duration) {
	if logger == nil {
		return
	}
	logger.Warn("template fetch failed, retrying",
		slog.String("template", templateKey),
		slog.Int("attempt", attempt),
		slog.Duration("wait", wait),
		slog.String("error", err.Error()),
	)
}

// LogExport logs a written export.
func LogExport(logger *slog.Logger, format, path string, sizeBytes int64) {
	if logger == nil {
		return
	}
	logger.Info("document exported",
		slog.String("format", format),
		slog.String("path", path),
		slog.Int64("size_bytes", sizeBytes),
	)
}

// LogExportError logs a failed export.
func LogExportError(logger *slog.Logger, format string, err error) {
	if logger == nil {
		return
	}
	logger.Error("export failed",
		slog.String("format", format),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
