package auth

import (
	"context"
	"sync"
	"time"

	"github.com/justestif/moodtunes/internal/db"
)

// MemoryUsers is an in-process UserStore used when the database is disabled.
type MemoryUsers struct {
	mu    sync.Mutex
	users map[string]db.User
}

// NewMemoryUsers creates an empty MemoryUsers.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]db.User)}
}

// Upsert implements UserStore.
func (m *MemoryUsers) Upsert(_ context.Context, user *db.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	user.CreatedAt = now
	if prev, ok := m.users[user.ID]; ok {
		user.CreatedAt = prev.CreatedAt
	}
	user.UpdatedAt = now
	m.users[user.ID] = *user
	return nil
}
