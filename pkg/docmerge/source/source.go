// Package source loads template text for the merge pipeline.
//
// Every Source reports a missing template as *errors.NotFoundError and
// binary or undecodable text as *errors.CorruptContentError, so the merge
// pipeline can decide whether to fall back to a sample document.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"unicode/utf8"

	docerr "github.com/randalmurphal/docmerge/pkg/docmerge/errors"
)

// Source supplies template text for a key such as "contract.html".
// Implementations must be safe for concurrent use.
type Source interface {
	Load(ctx context.Context, key string) (string, error)
	Name() string
}

// CheckContent rejects template text that cannot be HTML: empty text,
// invalid UTF-8, U+FFFD replacement characters left by a lossy decode, or
// C0 control characters other than tab, line feed and carriage return.
func CheckContent(key, text string) error {
	if text == "" {
		return &docerr.CorruptContentError{Key: key, Reason: "empty template"}
	}
	if !utf8.ValidString(text) {
		return &docerr.CorruptContentError{Key: key, Reason: "not valid UTF-8; save the file as UTF-8 HTML"}
	}
	if strings.ContainsRune(text, utf8.RuneError) {
		return &docerr.CorruptContentError{Key: key, Reason: "contains replacement characters; the file looks binary"}
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			return &docerr.CorruptContentError{Key: key, Reason: fmt.Sprintf("contains control character 0x%02X at byte %d", c, i)}
		}
	}
	return nil
}

// validateKey rejects keys that are not clean relative paths.
func validateKey(key string) error {
	if key == "" || key == "." || !fs.ValidPath(key) {
		return docerr.Malformed("load template", "invalid template key %q", key)
	}
	return nil
}

// MemorySource serves templates from a map.
type MemorySource struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewMemorySource creates a MemorySource holding a copy of templates.
func NewMemorySource(templates map[string]string) *MemorySource {
	m := &MemorySource{templates: make(map[string]string, len(templates))}
	for k, v := range templates {
		m.templates[k] = v
	}
	return m
}

// Set adds or replaces a template.
func (m *MemorySource) Set(key, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[key] = text
}

// Load implements Source.
func (m *MemorySource) Load(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	text, ok := m.templates[key]
	m.mu.RUnlock()
	if !ok {
		return "", docerr.TemplateNotFound(key)
	}
	if err := CheckContent(key, text); err != nil {
		return "", err
	}
	return text, nil
}

// Name implements Source.
func (m *MemorySource) Name() string { return "memory" }
