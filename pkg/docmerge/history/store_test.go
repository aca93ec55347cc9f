package history_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/docmerge/pkg/docmerge/document"
	"github.com/randalmurphal/docmerge/pkg/docmerge/history"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) history.Store

var base = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func entry(id string, minutes int) history.Entry {
	return history.Entry{
		DocumentID:    id,
		TemplateID:    "contract",
		RecordID:      "17",
		Filename:      "Contract - Jan.html",
		MissingFields: []string{"erkenning_nr"},
		CreatedAt:     base.Add(time.Duration(minutes) * time.Minute),
	}
}

// storeContractTest runs the same behavior checks against any Store.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	t.Run(name+"/Save_and_Get", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		want := entry("doc-1", 0)
		want.Fallback = true
		require.NoError(t, store.Save(want))

		got, err := store.Get("doc-1")
		require.NoError(t, err)
		assert.Equal(t, want.DocumentID, got.DocumentID)
		assert.Equal(t, want.TemplateID, got.TemplateID)
		assert.Equal(t, want.RecordID, got.RecordID)
		assert.Equal(t, want.Filename, got.Filename)
		assert.Equal(t, want.MissingFields, got.MissingFields)
		assert.True(t, got.Fallback)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run(name+"/Get_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Get("nope")
		assert.ErrorIs(t, err, history.ErrNotFound)
	})

	t.Run(name+"/Save_RequiresID", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		assert.ErrorIs(t, store.Save(history.Entry{}), history.ErrMissingID)
	})

	t.Run(name+"/Save_Overwrite", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save(entry("doc-1", 0)))
		second := entry("doc-1", 1)
		second.Filename = "renamed.html"
		require.NoError(t, store.Save(second))

		got, err := store.Get("doc-1")
		require.NoError(t, err)
		assert.Equal(t, "renamed.html", got.Filename)

		all, err := store.List(0)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run(name+"/Save_FillsCreatedAt", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		before := time.Now().Add(-time.Second)
		require.NoError(t, store.Save(history.Entry{DocumentID: "doc-1"}))

		got, err := store.Get("doc-1")
		require.NoError(t, err)
		assert.True(t, got.CreatedAt.After(before))
		assert.NotNil(t, got.MissingFields)
	})

	t.Run(name+"/List_NewestFirst", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save(entry("old", 0)))
		require.NoError(t, store.Save(entry("new", 10)))
		require.NoError(t, store.Save(entry("mid", 5)))

		all, err := store.List(0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "new", all[0].DocumentID)
		assert.Equal(t, "mid", all[1].DocumentID)
		assert.Equal(t, "old", all[2].DocumentID)

		two, err := store.List(2)
		require.NoError(t, err)
		require.Len(t, two, 2)
		assert.Equal(t, "new", two[0].DocumentID)
	})

	t.Run(name+"/List_Empty", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		all, err := store.List(10)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run(name+"/DeleteBefore", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		for i := 0; i < 5; i++ {
			require.NoError(t, store.Save(entry(fmt.Sprintf("doc-%d", i), i)))
		}

		n, err := store.DeleteBefore(base.Add(3 * time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		left, err := store.List(0)
		require.NoError(t, err)
		require.Len(t, left, 2)
		assert.Equal(t, "doc-4", left[0].DocumentID)
		assert.Equal(t, "doc-3", left[1].DocumentID)
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())

		assert.ErrorIs(t, store.Save(entry("doc-1", 0)), history.ErrStoreClosed)
		_, err := store.Get("doc-1")
		assert.ErrorIs(t, err, history.ErrStoreClosed)
		_, err = store.List(0)
		assert.ErrorIs(t, err, history.ErrStoreClosed)
		_, err = store.DeleteBefore(base)
		assert.ErrorIs(t, err, history.ErrStoreClosed)
		assert.NoError(t, store.Close())
	})

	t.Run(name+"/Concurrent", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("doc-%d", i)
				_ = store.Save(entry(id, i))
				_, _ = store.Get(id)
				_, _ = store.List(5)
			}(i)
		}
		wg.Wait()

		all, err := store.List(0)
		require.NoError(t, err)
		assert.Len(t, all, 20)
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContractTest(t, "MemoryStore", func(t *testing.T) history.Store {
		return history.NewMemoryStore()
	})
}

func TestSQLiteStore_Contract(t *testing.T) {
	storeContractTest(t, "SQLiteStore", func(t *testing.T) history.Store {
		store, err := history.NewSQLiteStore(":memory:")
		require.NoError(t, err)
		return store
	})
}

func TestSQLiteStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store1, err := history.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store1.Save(entry("doc-1", 0)))
	require.NoError(t, store1.Close())

	store2, err := history.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	got, err := store2.Get("doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"erkenning_nr"}, got.MissingFields)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := history.NewSQLiteStore("/nonexistent/path/history.db")
	assert.Error(t, err)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := history.NewMemoryStore()
	e := entry("doc-1", 0)
	require.NoError(t, store.Save(e))
	e.MissingFields[0] = "changed"

	got, err := store.Get("doc-1")
	require.NoError(t, err)
	got.MissingFields[0] = "mutated"

	again, err := store.Get("doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"erkenning_nr"}, again.MissingFields)
	assert.Equal(t, 1, store.Len())
}

func TestEntryFor(t *testing.T) {
	doc := &document.Document{
		ID:            uuid.MustParse("3f8a1c2e-0000-4000-8000-000000000001"),
		TemplateID:    "contract",
		RecordID:      "17",
		MissingFields: []string{"a"},
		Fallback:      true,
		CreatedAt:     base,
	}

	e := history.EntryFor(doc, "Contract - Jan.html")
	assert.Equal(t, "3f8a1c2e-0000-4000-8000-000000000001", e.DocumentID)
	assert.Equal(t, "Contract - Jan.html", e.Filename)
	assert.True(t, e.Fallback)
	assert.Equal(t, base, e.CreatedAt)

	doc.MissingFields[0] = "b"
	assert.Equal(t, []string{"a"}, e.MissingFields)
}
