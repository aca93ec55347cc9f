package export

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/docmerge/pkg/docmerge/document"
	"github.com/randalmurphal/docmerge/pkg/docmerge/observability"
)

type exportCounter struct {
	observability.NoopMetrics
	formats []string
	sizes   []int64
}

func (c *exportCounter) RecordExport(_ context.Context, format string, size int64) {
	c.formats = append(c.formats, format)
	c.sizes = append(c.sizes, size)
}

func TestFileWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	metrics := &exportCounter{}
	w := NewFileWriter(dir, NewHTMLExporter(), WithMetrics(metrics))

	doc := &document.Document{TemplateName: "Arbeidsovereenkomst", RecordName: "Çelik Zoë", HTML: "<p>x</p>"}
	path, size, err := w.Write(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Arbeidsovereenkomst - Celik Zoe.html"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)
	assert.Contains(t, string(data), "<p>x</p>")
	assert.Equal(t, []string{"html"}, metrics.formats)
	assert.Equal(t, []int64{size}, metrics.sizes)
	assert.Equal(t, dir, w.Dir())
}

func TestFileWriter_Overwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewFileWriter(dir, NewHTMLExporter())
	doc := &document.Document{TemplateName: "T", RecordName: "N", HTML: "<p>one</p>"}

	_, _, err := w.Write(context.Background(), doc)
	require.NoError(t, err)
	doc.HTML = "<p>two</p>"
	path, _, err := w.Write(context.Background(), doc)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<p>two</p>")
	assert.NotContains(t, string(data), "<p>one</p>")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

type brokenExporter struct{}

func (brokenExporter) Format() string { return "bin" }
func (brokenExporter) Export(context.Context, *document.Document, io.Writer) (int64, error) {
	return 0, errors.New("renderer offline")
}

func TestFileWriter_ExportError(t *testing.T) {
	metrics := &exportCounter{}
	dir := filepath.Join(t.TempDir(), "never")
	w := NewFileWriter(dir, brokenExporter{}, WithMetrics(metrics))

	_, _, err := w.Write(context.Background(), &document.Document{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer offline")
	assert.Empty(t, metrics.formats)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}
