package history

import (
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps history in memory. Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	seq     int64
	closed  bool
}

// memoryEntry keeps insertion order to break CreatedAt ties.
type memoryEntry struct {
	Entry
	seq int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Save implements Store.
func (m *MemoryStore) Save(e Entry) error {
	e, err := prepare(e)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.seq++
	m.entries[e.DocumentID] = memoryEntry{Entry: e, seq: m.seq}
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(documentID string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Entry{}, ErrStoreClosed
	}
	e, ok := m.entries[documentID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return copyEntry(e.Entry), nil
}

// List implements Store.
func (m *MemoryStore) List(limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	all := make([]memoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].seq > all[j].seq
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]Entry, len(all))
	for i, e := range all {
		out[i] = copyEntry(e.Entry)
	}
	return out, nil
}

// DeleteBefore implements Store.
func (m *MemoryStore) DeleteBefore(t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	var n int64
	for id, e := range m.entries {
		if e.CreatedAt.Before(t) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.entries = nil
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func copyEntry(e Entry) Entry {
	e.MissingFields = slices.Clone(e.MissingFields)
	return e
}
