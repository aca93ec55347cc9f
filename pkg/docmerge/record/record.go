// Package record loads employee records for the merge pipeline.
package record

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/tidwall/gjson"

	docerr "github.com/randalmurphal/docmerge/pkg/docmerge/errors"
	"github.com/randalmurphal/docmerge/pkg/docmerge/placeholder"
)

// Source supplies employee records by id.
type Source interface {
	Record(ctx context.Context, id string) (placeholder.Record, error)
	List(ctx context.Context) ([]Summary, error)
}

// Summary identifies a record for listings.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Default field names for JSONFileSource.
const (
	DefaultIDField   = "id"
	DefaultNameField = "naam_voornaam_werknemer"
)

// JSONFileSource reads records from a JSON file holding an array of
// objects. The file is re-read on every call so edits are picked up without
// a restart.
type JSONFileSource struct {
	path      string
	idField   string
	nameField string

	// gjson paths for the fields, escaped so names holding '.', '*', '?'
	// or '@' are matched literally.
	idPath   string
	namePath string
}

// JSONOption configures a JSONFileSource.
type JSONOption func(*JSONFileSource)

// WithIDField sets the field that identifies a record. The name is a plain
// top-level key, never a path.
func WithIDField(name string) JSONOption {
	return func(s *JSONFileSource) {
		if name != "" {
			s.idField = name
		}
	}
}

// WithNameField sets the field shown as the record's display name.
func WithNameField(name string) JSONOption {
	return func(s *JSONFileSource) {
		if name != "" {
			s.nameField = name
		}
	}
}

// NewJSONFileSource creates a JSONFileSource for path.
func NewJSONFileSource(path string, opts ...JSONOption) *JSONFileSource {
	s := &JSONFileSource{
		path:      path,
		idField:   DefaultIDField,
		nameField: DefaultNameField,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.idPath = gjson.Escape(s.idField)
	s.namePath = gjson.Escape(s.nameField)
	return s
}

// Record returns the record whose id field matches id. Numeric and string
// ids compare by their string form, so "7" finds {"id": 7}.
func (s *JSONFileSource) Record(ctx context.Context, id string) (placeholder.Record, error) {
	elems, err := s.elements(ctx)
	if err != nil {
		return nil, err
	}
	for _, el := range elems {
		if v := el.Get(s.idPath); v.Exists() && v.String() == id {
			return placeholder.ParseRecordJSON([]byte(el.Raw))
		}
	}
	return nil, docerr.RecordNotFound(id)
}

// List returns a summary for every record that has an id, in file order.
func (s *JSONFileSource) List(ctx context.Context) ([]Summary, error) {
	elems, err := s.elements(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(elems))
	for _, el := range elems {
		id := el.Get(s.idPath)
		if !id.Exists() {
			continue
		}
		out = append(out, Summary{ID: id.String(), Name: el.Get(s.namePath).String()})
	}
	return out, nil
}

func (s *JSONFileSource) elements(ctx context.Context) ([]gjson.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("records file %s: %w", s.path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read records file %s: %w", s.path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, docerr.Malformed("load records", "%s is not valid JSON", s.path)
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, docerr.Malformed("load records", "%s must hold a JSON array of objects", s.path)
	}
	elems := root.Array()
	for i, el := range elems {
		if !el.IsObject() {
			return nil, docerr.Malformed("load records", "%s: element %d is not an object", s.path, i)
		}
	}
	return elems, nil
}

// MemorySource serves records from memory. Records are cloned on the way in
// and out, so callers cannot mutate stored data.
type MemorySource struct {
	mu        sync.RWMutex
	records   map[string]placeholder.Record
	order     []string
	nameField string
}

// NewMemorySource creates an empty MemorySource that reads display names
// from nameField.
func NewMemorySource(nameField string) *MemorySource {
	if nameField == "" {
		nameField = DefaultNameField
	}
	return &MemorySource{
		records:   make(map[string]placeholder.Record),
		nameField: nameField,
	}
}

// Put adds or replaces the record for id.
func (m *MemorySource) Put(id string, r placeholder.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		m.order = append(m.order, id)
	}
	m.records[id] = r.Clone()
}

// Record implements Source.
func (m *MemorySource) Record(ctx context.Context, id string) (placeholder.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, docerr.RecordNotFound(id)
	}
	return r.Clone(), nil
}

// List implements Source. Records appear in insertion order.
func (m *MemorySource) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, Summary{ID: id, Name: placeholder.FormatValue(m.records[id][m.nameField])})
	}
	return out, nil
}

// SortByName orders summaries by display name, then id.
func SortByName(list []Summary) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}
