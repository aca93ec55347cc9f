package placeholder

import (
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// markerPattern matches {{name}} and {{name|safe}}. The name may hold any
// character except '}' and '|', including whitespace and newlines.
var markerPattern = regexp.MustCompile(`\{\{([^}|]+)(\|safe)?\}\}`)

// Marker is one placeholder occurrence in a template.
type Marker struct {
	// Name is the field name with surrounding whitespace removed.
	Name string

	// Safe is true when the marker carries the |safe suffix.
	Safe bool

	// Start and End are the byte offsets of the whole marker.
	Start, End int
}

// Engine substitutes record values into templates.
//
// Create with NewEngine and configure with Option functions.
// Engine is safe for concurrent use after construction.
type Engine struct {
	trusted       map[string]struct{}
	rawSubstrings []string
	logger        *slog.Logger
}

// NewEngine creates a new Engine with the given options.
//
// Default configuration:
//   - no trusted fields
//   - raw substrings: "_image_tag", "_options"
//   - no logging
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		trusted:       make(map[string]struct{}),
		rawSubstrings: append([]string(nil), DefaultRawSubstrings...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Substitute replaces every marker in template with the matching record
// value and returns the new text.
//
// An empty template yields "". A nil record returns template unchanged.
// Missing or nil values become "". Values are HTML-escaped unless the field
// is raw (see IsRaw) or the marker is {{name|safe}}.
func (e *Engine) Substitute(template string, record Record) string {
	if template == "" {
		return ""
	}
	if record == nil {
		return template
	}

	markers := Scan(template)
	if len(markers) == 0 {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))
	last := 0
	for _, m := range markers {
		b.WriteString(template[last:m.Start])
		b.WriteString(e.resolve(m, record))
		last = m.End
	}
	b.WriteString(template[last:])
	return b.String()
}

// IsRaw reports whether values for name are inserted without escaping even
// when the marker lacks |safe.
func (e *Engine) IsRaw(name string) bool {
	if _, ok := e.trusted[name]; ok {
		return true
	}
	for _, sub := range e.rawSubstrings {
		if strings.Contains(name, sub) {
			return true
		}
	}
	return false
}

func (e *Engine) resolve(m Marker, record Record) string {
	v, ok := record.Get(m.Name)
	if !ok {
		if e.logger != nil {
			e.logger.Debug("placeholder unresolved", slog.String("name", m.Name))
		}
		return ""
	}

	s := FormatValue(v)
	if m.Safe || e.IsRaw(m.Name) {
		return s
	}
	return EscapeHTML(s)
}

// Scan returns every marker in template, left to right, non-overlapping.
func Scan(template string) []Marker {
	matches := markerPattern.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return nil
	}

	markers := make([]Marker, 0, len(matches))
	for _, loc := range matches {
		markers = append(markers, Marker{
			Name:  strings.TrimSpace(template[loc[2]:loc[3]]),
			Safe:  loc[4] >= 0,
			Start: loc[0],
			End:   loc[1],
		})
	}
	return markers
}

// ExtractPlaceholders returns the distinct field names referenced in
// template, in order of first occurrence.
func ExtractPlaceholders(template string) []string {
	markers := Scan(template)
	names := make([]string, 0, len(markers))
	seen := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		if _, dup := seen[m.Name]; dup {
			continue
		}
		seen[m.Name] = struct{}{}
		names = append(names, m.Name)
	}
	return names
}

// ValidationResult reports which required fields a record lacks.
type ValidationResult struct {
	IsValid       bool     `json:"isValid"`
	MissingFields []string `json:"missingFields"`
}

// ValidateRecord checks record against requiredFields. A field is missing
// when absent or nil. MissingFields is never nil.
func ValidateRecord(record Record, requiredFields []string) ValidationResult {
	missing := make([]string, 0)
	for _, field := range requiredFields {
		if _, ok := record.Get(field); !ok {
			missing = append(missing, field)
		}
	}
	return ValidationResult{
		IsValid:       len(missing) == 0,
		MissingFields: missing,
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML replaces & < > " ' with their entity forms. Nothing else is
// touched; the rich-text editor round-trips these exact entities.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// formatFloat renders floats in plain decimal form, never with an exponent.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		// -0 prints as "0".
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// defaultEngine is the package-level engine with default settings.
var defaultEngine = NewEngine()

// Substitute replaces markers in template using the default engine.
//
// Example:
//
//	placeholder.Substitute("{{a}}{{b}}", placeholder.Record{"a": "1", "b": 2})
//	// "12"
func Substitute(template string, record Record) string {
	return defaultEngine.Substitute(template, record)
}
