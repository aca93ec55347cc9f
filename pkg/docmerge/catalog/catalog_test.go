package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_RegisterAndGet(t *testing.T) {
	c := New()
	c.Register(Template{ID: "1", Name: "Contract", FileName: "contract.html"})

	got, ok := c.Get("1")
	require.True(t, ok)
	assert.Equal(t, "contract.html", got.FileName)
	assert.True(t, c.Has("1"))
	assert.False(t, c.Has("2"))
	assert.Equal(t, 1, c.Len())

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCatalog_OrderPreserved(t *testing.T) {
	c := New()
	c.RegisterMany(
		Template{ID: "b", Name: "B"},
		Template{ID: "a", Name: "A"},
		Template{ID: "c", Name: "C"},
	)
	c.Register(Template{ID: "a", Name: "A2"})

	var names []string
	for _, tpl := range c.List() {
		names = append(names, tpl.Name)
	}
	assert.Equal(t, []string{"B", "A2", "C"}, names)

	c.Delete("a")
	c.Delete("unknown")
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "c", c.List()[1].ID)
}

func TestCatalog_GroupByCategory(t *testing.T) {
	c := New()
	c.RegisterMany(
		Template{ID: "1", Category: "Contracts"},
		Template{ID: "2"},
		Template{ID: "3", Category: "Planning", IsPlanning: true},
		Template{ID: "4", Category: "Contracts"},
	)

	groups := c.GroupByCategory()
	require.Len(t, groups, 3)
	assert.Equal(t, "Contracts", groups[0].Category)
	assert.Len(t, groups[0].Templates, 2)
	assert.Equal(t, "4", groups[0].Templates[1].ID)
	assert.Equal(t, DefaultCategory, groups[1].Category)
	assert.Equal(t, "Planning", groups[2].Category)
	assert.True(t, groups[2].Templates[0].IsPlanning)

	assert.Empty(t, New().GroupByCategory())
}

func TestCatalog_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			c.Register(Template{ID: id, FileName: id + ".html"})
			_, _ = c.Get(id)
			_ = c.List()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, c.Len())
}

func TestParse(t *testing.T) {
	t.Run("json list", func(t *testing.T) {
		c, err := Parse([]byte(`[
			{"id": "1", "name": "Arbeidsovereenkomst", "fileName": "contract.html", "category": "Contracts"},
			{"id": "2", "name": "Weekplanning", "fileName": "planning.html", "isPlanning": true}
		]`))
		require.NoError(t, err)
		require.Equal(t, 2, c.Len())

		tpl, _ := c.Get("2")
		assert.True(t, tpl.IsPlanning)
		assert.Equal(t, "planning.html", tpl.FileName)
	})

	t.Run("yaml list", func(t *testing.T) {
		c, err := Parse([]byte("- id: a\n  name: A\n  fileName: a.html\n"))
		require.NoError(t, err)
		assert.True(t, c.Has("a"))
	})

	t.Run("errors", func(t *testing.T) {
		tests := map[string]string{
			"missing id":       `[{"fileName": "a.html"}]`,
			"missing fileName": `[{"id": "a"}]`,
			"duplicate id":     `[{"id": "a", "fileName": "a.html"}, {"id": "a", "fileName": "b.html"}]`,
			"not a list":       `{"id": "a"}`,
		}
		for name, input := range tests {
			t.Run(name, func(t *testing.T) {
				_, err := Parse([]byte(input))
				assert.Error(t, err)
			})
		}
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "1", "fileName": "a.html"}]`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "read catalog")
}
