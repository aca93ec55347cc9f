// Package document merges templates with employee records into rendered
// documents.
package document

import (
	_ "embed"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed sample.html
var sampleTemplate string

// SampleTemplate returns the built-in contract template used when the
// requested template cannot be loaded. It reads {{template_name}} for its
// heading.
func SampleTemplate() string {
	return sampleTemplate
}

// Document is the result of one merge.
type Document struct {
	ID           uuid.UUID `json:"id"`
	TemplateID   string    `json:"templateId"`
	TemplateName string    `json:"templateName"`
	RecordID     string    `json:"recordId"`
	RecordName   string    `json:"recordName"`
	HTML         string    `json:"html"`

	// Placeholders lists the distinct marker names in the template, in
	// order of first occurrence.
	Placeholders []string `json:"placeholders"`

	// MissingFields lists placeholders the record had no value for. They
	// render as empty text.
	MissingFields []string `json:"missingFields"`

	// Fallback is set when the sample template replaced an unloadable one.
	Fallback bool   `json:"fallback"`
	Notice   string `json:"notice,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Filename returns the export file name for this document.
func (d *Document) Filename(ext string) string {
	return ExportFilename(d.TemplateName, d.RecordName, ext)
}

// ExportFilename builds "<template> - <name>.<ext>". Diacritics are folded
// to their base letters; any other character outside letters, digits,
// space, '-' and '.' becomes '_'. An empty name drops the " - <name>" part.
func ExportFilename(templateName, recordName, ext string) string {
	base := sanitizeFilePart(templateName)
	if base == "" {
		base = "document"
	}
	if name := sanitizeFilePart(recordName); name != "" {
		base += " - " + name
	}
	if ext = strings.TrimPrefix(strings.TrimSpace(ext), "."); ext != "" {
		base += "." + sanitizeFilePart(ext)
	}
	return base
}

func sanitizeFilePart(s string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.TrimSpace(s),
	)
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, folded)
}
