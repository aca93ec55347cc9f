package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/randalmurphal/docmerge/pkg/docmerge/placeholder"
)

// Settings is the resolved configuration for a docmerge process.
type Settings struct {
	Templates TemplateSettings
	Records   RecordSettings
	Engine    EngineSettings
	Export    ExportSettings
	History   HistorySettings
	Log       LogSettings
}

// TemplateSettings locates template text and the template catalog.
type TemplateSettings struct {
	Dir          string
	BaseURL      string
	Catalog      string
	Fallback     bool
	Cache        bool
	Watch        bool
	FetchTimeout time.Duration
	Retries      int
}

// RecordSettings locates employee records.
type RecordSettings struct {
	File      string
	IDField   string
	NameField string
}

// EngineSettings configures the placeholder engine.
type EngineSettings struct {
	TrustedFields []string
	RawSubstrings []string
}

// ExportSettings configures where rendered documents are written.
type ExportSettings struct {
	Dir string
}

// HistorySettings configures the merge history store. DB defaults to
// ./data/history.db; an empty DB keeps history in memory for one process.
type HistorySettings struct {
	DB string
}

// LogSettings configures the slog handler.
type LogSettings struct {
	Level  string
	Format string
}

// Defaults returns Settings with every default applied.
func Defaults() Settings {
	return Resolve(New(nil))
}

// Resolve reads Settings from cfg, filling in defaults.
func Resolve(cfg Config) Settings {
	return Settings{
		Templates: TemplateSettings{
			Dir:          cfg.String("templates.dir", "./templates"),
			BaseURL:      cfg.String("templates.base_url", ""),
			Catalog:      cfg.String("templates.catalog", "./data/templates.json"),
			Fallback:     cfg.Bool("templates.fallback", true),
			Cache:        cfg.Bool("templates.cache", true),
			Watch:        cfg.Bool("templates.watch", false),
			FetchTimeout: cfg.Duration("templates.fetch_timeout", 10*time.Second),
			Retries:      cfg.Int("templates.retries", 3),
		},
		Records: RecordSettings{
			File:      cfg.String("records.file", "./data/employees.json"),
			IDField:   cfg.String("records.id_field", "id"),
			NameField: cfg.String("records.name_field", "naam_voornaam_werknemer"),
		},
		Engine: EngineSettings{
			TrustedFields: cfg.StringSlice("engine.trusted_fields", []string{}),
			RawSubstrings: cfg.StringSlice("engine.raw_substrings", placeholder.DefaultRawSubstrings),
		},
		Export: ExportSettings{
			Dir: cfg.String("export.dir", "./out"),
		},
		History: HistorySettings{
			DB: cfg.String("history.db", "./data/history.db"),
		},
		Log: LogSettings{
			Level:  cfg.String("log.level", "info"),
			Format: cfg.String("log.format", "text"),
		},
	}
}

// Validate reports every invalid setting at once.
func (s Settings) Validate() error {
	var errs []error
	if s.Templates.Retries < 0 {
		errs = append(errs, fmt.Errorf("templates.retries must be >= 0, got %d", s.Templates.Retries))
	}
	if s.Templates.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("templates.fetch_timeout must be positive, got %s", s.Templates.FetchTimeout))
	}
	if s.Templates.Dir == "" && s.Templates.BaseURL == "" {
		errs = append(errs, errors.New("one of templates.dir or templates.base_url is required"))
	}
	for _, sub := range s.Engine.RawSubstrings {
		if strings.TrimSpace(sub) == "" {
			errs = append(errs, errors.New("engine.raw_substrings must not contain empty entries"))
			break
		}
	}
	if s.Records.IDField == "" {
		errs = append(errs, errors.New("records.id_field is required"))
	}
	if _, err := ParseLevel(s.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", s.Log.Format))
	}
	return errors.Join(errs...)
}

// EngineOptions returns placeholder options matching the engine settings.
func (s Settings) EngineOptions() []placeholder.Option {
	return []placeholder.Option{
		placeholder.WithTrustedFields(s.Engine.TrustedFields...),
		placeholder.WithRawSubstrings(s.Engine.RawSubstrings...),
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
