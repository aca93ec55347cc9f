package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	docerr "github.com/randalmurphal/docmerge/pkg/docmerge/errors"
)

// DirSource reads templates from a directory. Keys are slash-separated
// paths relative to the directory; keys that would escape it are rejected.
type DirSource struct {
	dir  string
	fsys fs.FS
}

// NewDirSource creates a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir, fsys: os.DirFS(dir)}
}

// NewFSSource creates a DirSource over an arbitrary fs.FS, e.g. an
// embed.FS or fstest.MapFS.
func NewFSSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

// Dir returns the directory this source reads, or "" for NewFSSource.
func (s *DirSource) Dir() string { return s.dir }

// Name implements Source.
func (s *DirSource) Name() string { return "dir" }

// Load implements Source.
func (s *DirSource) Load(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateKey(key); err != nil {
		return "", err
	}

	data, err := fs.ReadFile(s.fsys, key)
	if errors.Is(err, fs.ErrNotExist) {
		return "", docerr.TemplateNotFound(key)
	}
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", key, err)
	}

	text := string(data)
	if err := CheckContent(key, text); err != nil {
		return "", err
	}
	return text, nil
}
