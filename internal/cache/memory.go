package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// MemoryStore is a map-backed Backend. It exists for tests and for
// running without a writable data directory.
type MemoryStore struct {
	entries map[string]*Entry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// SetClock overrides the timestamp source for Put. Tests use this to
// plant entries at a chosen age.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.now = now
}

// Get returns the entry for key, if present.
func (m *MemoryStore) Get(key string) (*Entry, bool) {
	entry, ok := m.entries[key]
	return entry, ok
}

// Put stores payload under key stamped with the current clock time.
func (m *MemoryStore) Put(key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload for %s: %w", key, err)
	}
	m.entries[key] = &Entry{Timestamp: m.now(), Data: data}
	return nil
}

// Delete removes the entry for key.
func (m *MemoryStore) Delete(key string) error {
	delete(m.entries, key)
	return nil
}

// Keys lists stored keys in sorted order.
func (m *MemoryStore) Keys() ([]string, error) {
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
