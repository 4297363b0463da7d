package library

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/moodtunes/internal/db"
)

// MemoryFavorites is an in-process FavoriteStore.
type MemoryFavorites struct {
	mu    sync.RWMutex
	items map[string][]db.Favorite // by user, in insertion order
	now   func() time.Time
}

// NewMemoryFavorites creates an empty MemoryFavorites.
func NewMemoryFavorites() *MemoryFavorites {
	return &MemoryFavorites{items: make(map[string][]db.Favorite), now: time.Now}
}

// Add implements FavoriteStore.
func (m *MemoryFavorites) Add(_ context.Context, fav *db.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.items[fav.UserID] {
		if f.YouTubeID == fav.YouTubeID {
			return db.ErrDuplicate
		}
	}
	if fav.ID == uuid.Nil {
		fav.ID = uuid.New()
	}
	fav.AddedAt = m.now()
	m.items[fav.UserID] = append(m.items[fav.UserID], *fav)
	return nil
}

// List implements FavoriteStore.
func (m *MemoryFavorites) List(_ context.Context, userID string) ([]db.Favorite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := slices.Clone(m.items[userID])
	slices.Reverse(out)
	return out, nil
}

// Delete implements FavoriteStore.
func (m *MemoryFavorites) Delete(_ context.Context, userID, youtubeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	favs := m.items[userID]
	i := slices.IndexFunc(favs, func(f db.Favorite) bool { return f.YouTubeID == youtubeID })
	if i < 0 {
		return db.ErrNotFound
	}
	m.items[userID] = slices.Delete(favs, i, i+1)
	return nil
}

// Exists implements FavoriteStore.
func (m *MemoryFavorites) Exists(_ context.Context, userID, youtubeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.ContainsFunc(m.items[userID], func(f db.Favorite) bool { return f.YouTubeID == youtubeID }), nil
}

// MemoryPlaylists is an in-process PlaylistStore.
type MemoryPlaylists struct {
	mu        sync.RWMutex
	playlists []*db.Playlist // in creation order
	now       func() time.Time
}

// NewMemoryPlaylists creates an empty MemoryPlaylists.
func NewMemoryPlaylists() *MemoryPlaylists {
	return &MemoryPlaylists{now: time.Now}
}

func (m *MemoryPlaylists) find(userID string, id uuid.UUID) *db.Playlist {
	for _, p := range m.playlists {
		if p.ID == id && p.UserID == userID {
			return p
		}
	}
	return nil
}

// snapshot copies p so callers never share the stored songs slice.
func snapshot(p *db.Playlist, withSongs bool) db.Playlist {
	out := *p
	out.Songs = nil
	if withSongs {
		out.Songs = slices.Clone(p.Songs)
	}
	return out
}

// Create implements PlaylistStore.
func (m *MemoryPlaylists) Create(_ context.Context, p *db.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := m.now()
	p.CreatedAt, p.UpdatedAt, p.SongCount = now, now, 0

	stored := snapshot(p, false)
	m.playlists = append(m.playlists, &stored)
	return nil
}

// List implements PlaylistStore.
func (m *MemoryPlaylists) List(_ context.Context, userID string) ([]db.Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []db.Playlist
	for i := len(m.playlists) - 1; i >= 0; i-- {
		if p := m.playlists[i]; p.UserID == userID {
			out = append(out, snapshot(p, false))
		}
	}
	return out, nil
}

// Get implements PlaylistStore.
func (m *MemoryPlaylists) Get(_ context.Context, userID string, id uuid.UUID) (*db.Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := m.find(userID, id)
	if p == nil {
		return nil, db.ErrNotFound
	}
	out := snapshot(p, true)
	return &out, nil
}

// Update implements PlaylistStore.
func (m *MemoryPlaylists) Update(_ context.Context, p *db.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.find(p.UserID, p.ID)
	if stored == nil {
		return db.ErrNotFound
	}
	stored.Name = p.Name
	stored.Description = p.Description
	stored.UpdatedAt = m.now()
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete implements PlaylistStore.
func (m *MemoryPlaylists) Delete(_ context.Context, userID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.playlists, func(p *db.Playlist) bool { return p.ID == id && p.UserID == userID })
	if i < 0 {
		return db.ErrNotFound
	}
	m.playlists = slices.Delete(m.playlists, i, i+1)
	return nil
}

// AddSong implements PlaylistStore.
func (m *MemoryPlaylists) AddSong(_ context.Context, userID string, song *db.PlaylistSong) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.find(userID, song.PlaylistID)
	if p == nil {
		return db.ErrNotFound
	}
	if slices.ContainsFunc(p.Songs, func(s db.PlaylistSong) bool { return s.YouTubeID == song.YouTubeID }) {
		return db.ErrDuplicate
	}

	song.AddedAt = m.now()
	p.Songs = append(p.Songs, *song)
	p.SongCount++
	p.UpdatedAt = song.AddedAt
	return nil
}

// RemoveSong implements PlaylistStore.
func (m *MemoryPlaylists) RemoveSong(_ context.Context, userID string, playlistID uuid.UUID, youtubeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.find(userID, playlistID)
	if p == nil {
		return db.ErrNotFound
	}
	i := slices.IndexFunc(p.Songs, func(s db.PlaylistSong) bool { return s.YouTubeID == youtubeID })
	if i < 0 {
		return db.ErrNotFound
	}
	p.Songs = slices.Delete(p.Songs, i, i+1)
	p.SongCount = max(p.SongCount-1, 0)
	p.UpdatedAt = m.now()
	return nil
}
