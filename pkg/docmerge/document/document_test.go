package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/docmerge/pkg/docmerge/placeholder"
)

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name     string
		template string
		record   string
		ext      string
		want     string
	}{
		{"plain", "Arbeidsovereenkomst", "Peeters Jan", "pdf", "Arbeidsovereenkomst - Peeters Jan.pdf"},
		{"diacritics folded", "Overeenkomst", "Çelik Zoë", "html", "Overeenkomst - Celik Zoe.html"},
		{"accented template", "Attest vakantiegeld é", "Dubois", "html", "Attest vakantiegeld e - Dubois.html"},
		{"path separators", "a/b", `c\d`, "html", "a_b - c_d.html"},
		{"unfoldable letters", "Straße", "Øster", "html", "Stra_e - _ster.html"},
		{"leading dot ext", "T", "N", ".html", "T - N.html"},
		{"no ext", "T", "N", "", "T - N"},
		{"no record name", "Contract", "", "html", "Contract.html"},
		{"no template name", "", "", "html", "document.html"},
		{"trims", "  T  ", "  N ", "pdf", "T - N.pdf"},
		{"keeps dashes and dots", "v1.2-final", "x", "pdf", "v1.2-final - x.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExportFilename(tt.template, tt.record, tt.ext))
		})
	}
}

func TestDocument_Filename(t *testing.T) {
	d := &Document{TemplateName: "Contract", RecordName: "Jan"}
	assert.Equal(t, "Contract - Jan.html", d.Filename("html"))
}

func TestSampleTemplate(t *testing.T) {
	sample := SampleTemplate()
	assert.NotEmpty(t, sample)

	names := placeholder.ExtractPlaceholders(sample)
	assert.Contains(t, names, "template_name")
	assert.Contains(t, names, "naam_voornaam_werknemer")
	assert.Contains(t, names, "company_logo_image_tag")
	assert.False(t, strings.Contains(sample, "${"))
}
