package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/randalmurphal/docmerge/pkg/docmerge/catalog"
	"github.com/randalmurphal/docmerge/pkg/docmerge/config"
	"github.com/randalmurphal/docmerge/pkg/docmerge/document"
	docerr "github.com/randalmurphal/docmerge/pkg/docmerge/errors"
	"github.com/randalmurphal/docmerge/pkg/docmerge/export"
	"github.com/randalmurphal/docmerge/pkg/docmerge/history"
	"github.com/randalmurphal/docmerge/pkg/docmerge/observability"
	"github.com/randalmurphal/docmerge/pkg/docmerge/placeholder"
	"github.com/randalmurphal/docmerge/pkg/docmerge/record"
	"github.com/randalmurphal/docmerge/pkg/docmerge/source"
)

// app wires the docmerge packages together for one CLI invocation.
type app struct {
	settings config.Settings
	logger   *slog.Logger
	catalog  *catalog.Catalog
	records  record.Source
	merger   *document.Merger
	writer   *export.FileWriter
	history  history.Store
	cancel   context.CancelFunc
}

func newApp(ctx context.Context, settings config.Settings, logOut io.Writer) (*app, error) {
	logger, err := newLogger(settings.Log, logOut)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(settings.Templates.Catalog, logger)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	templates, err := newTemplateSource(watchCtx, settings.Templates, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	store, err := newHistoryStore(settings.History)
	if err != nil {
		cancel()
		return nil, err
	}

	metrics := observability.NewMetricsRecorder()
	spans := observability.NewSpanManager()
	engine := placeholder.NewEngine(append(settings.EngineOptions(), placeholder.WithLogger(logger))...)

	return &app{
		settings: settings,
		logger:   logger,
		catalog:  cat,
		records: record.NewJSONFileSource(settings.Records.File,
			record.WithIDField(settings.Records.IDField),
			record.WithNameField(settings.Records.NameField),
		),
		merger: document.NewMerger(templates,
			document.WithEngine(engine),
			document.WithLogger(logger),
			document.WithMetrics(metrics),
			document.WithSpanManager(spans),
			document.WithFallback(settings.Templates.Fallback),
			document.WithNameField(settings.Records.NameField),
		),
		writer: export.NewFileWriter(settings.Export.Dir, export.NewHTMLExporter(),
			export.WithLogger(logger),
			export.WithMetrics(metrics),
			export.WithSpanManager(spans),
		),
		history: store,
		cancel:  cancel,
	}, nil
}

// Close stops the template watcher and closes the history store.
func (a *app) Close() error {
	a.cancel()
	return a.history.Close()
}

// template resolves a catalog id. Anything not in the catalog is treated
// as a template file name, so ad-hoc templates work without a catalog entry.
func (a *app) template(ref string) (catalog.Template, error) {
	if t, ok := a.catalog.Get(ref); ok {
		return t, nil
	}
	if ref == "" {
		return catalog.Template{}, docerr.Malformed("resolve template", "template reference is empty")
	}
	base := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	return catalog.Template{
		ID:       ref,
		Name:     strings.TrimSuffix(base, path.Ext(base)),
		FileName: ref,
		Category: catalog.DefaultCategory,
	}, nil
}

func newLogger(s config.LogSettings, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if s.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func loadCatalog(catalogPath string, logger *slog.Logger) (*catalog.Catalog, error) {
	if catalogPath == "" {
		return catalog.New(), nil
	}
	cat, err := catalog.Load(catalogPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no template catalog, using file names", slog.String("path", catalogPath))
		return catalog.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}

func newTemplateSource(ctx context.Context, s config.TemplateSettings, logger *slog.Logger) (source.Source, error) {
	var sources []source.Source
	if s.Dir != "" {
		sources = append(sources, source.NewDirSource(s.Dir))
	}
	if s.BaseURL != "" {
		httpSrc, err := source.NewHTTPSource(s.BaseURL,
			source.WithTimeout(s.FetchTimeout),
			source.WithHTTPLogger(logger),
			source.WithRetry(docerr.NewRetryConfig(docerr.WithMaxAttempts(s.Retries+1))),
		)
		if err != nil {
			return nil, err
		}
		sources = append(sources, httpSrc)
	}

	var src source.Source
	if len(sources) == 1 {
		src = sources[0]
	} else {
		src = source.NewChainSource(sources...)
	}
	if !s.Cache {
		return src, nil
	}

	cached := source.NewCachedSource(src, logger)
	if s.Watch && s.Dir != "" {
		if err := cached.Watch(ctx, s.Dir); err != nil {
			return nil, fmt.Errorf("watch templates: %w", err)
		}
	}
	return cached, nil
}

func newHistoryStore(s config.HistorySettings) (history.Store, error) {
	if s.DB == "" {
		return history.NewMemoryStore(), nil
	}
	if dir := filepath.Dir(s.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	return history.NewSQLiteStore(s.DB)
}
