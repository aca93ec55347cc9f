// Package catalog holds the list of document templates a user can pick from.
package catalog

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultCategory groups templates that declare no category.
const DefaultCategory = "Other"

// Template describes one document template. FileName is the key handed to
// a template source.
type Template struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	FileName   string `json:"fileName" yaml:"fileName"`
	Category   string `json:"category,omitempty" yaml:"category,omitempty"`
	IsPlanning bool   `json:"isPlanning,omitempty" yaml:"isPlanning,omitempty"`
}

// Group is one category and its templates in catalog order.
type Group struct {
	Category  string
	Templates []Template
}

// Catalog is a thread-safe, insertion-ordered set of templates keyed by ID.
type Catalog struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Template
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{byID: make(map[string]Template)}
}

// Register adds or replaces a template. A replaced template keeps its
// original position.
func (c *Catalog) Register(t Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registerLocked(t)
}

// RegisterMany adds templates in order.
func (c *Catalog) RegisterMany(ts ...Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range ts {
		c.registerLocked(t)
	}
}

func (c *Catalog) registerLocked(t Template) {
	if _, exists := c.byID[t.ID]; !exists {
		c.order = append(c.order, t.ID)
	}
	c.byID[t.ID] = t
}

// Get returns the template for id and whether it exists.
func (c *Catalog) Get(id string) (Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	return t, ok
}

// Has returns true if id is registered.
func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byID[id]
	return ok
}

// Delete removes id. Deleting an unknown id is a no-op.
func (c *Catalog) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		return
	}
	delete(c.byID, id)
	c.order = slices.DeleteFunc(c.order, func(k string) bool { return k == id })
}

// List returns a snapshot of all templates in registration order.
func (c *Catalog) List() []Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// GroupByCategory groups templates by category. Categories appear in the
// order they are first seen; templates without one land in DefaultCategory.
func (c *Catalog) GroupByCategory() []Group {
	var groups []Group
	index := make(map[string]int)
	for _, t := range c.List() {
		cat := t.Category
		if cat == "" {
			cat = DefaultCategory
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, Group{Category: cat})
		}
		groups[i].Templates = append(groups[i].Templates, t)
	}
	return groups
}

// Load reads a catalog file. JSON and YAML lists are both accepted.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a list of templates. IDs must be unique and every entry
// needs a file name.
func Parse(data []byte) (*Catalog, error) {
	var ts []Template
	if err := yaml.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := New()
	for i, t := range ts {
		if t.ID == "" {
			return nil, fmt.Errorf("catalog entry %d: missing id", i)
		}
		if t.FileName == "" {
			return nil, fmt.Errorf("catalog entry %q: missing fileName", t.ID)
		}
		if c.Has(t.ID) {
			return nil, fmt.Errorf("catalog entry %q: duplicate id", t.ID)
		}
		c.Register(t)
	}
	return c, nil
}
