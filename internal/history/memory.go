package history

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/justestif/moodtunes/internal/db"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]db.HistoryEntry // by user, oldest first
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]db.HistoryEntry)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, entry *db.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	e := *entry
	e.Recommendations = slices.Clone(entry.Recommendations)
	m.entries[entry.UserID] = append(m.entries[entry.UserID], e)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, userID string, limit int) ([]db.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.entries[userID])
	slices.SortStableFunc(out, func(a, b db.HistoryEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, userID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.entries[userID]
	i := slices.IndexFunc(entries, func(e db.HistoryEntry) bool { return e.ID == id })
	if i < 0 {
		return db.ErrNotFound
	}
	m.entries[userID] = slices.Delete(entries, i, i+1)
	return nil
}
