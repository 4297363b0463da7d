// Package library manages a user's favorite songs and playlists.
package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/justestif/moodtunes/internal/db"
	"github.com/justestif/moodtunes/internal/music"
)

// Sentinel errors.
var (
	ErrNotFound        = db.ErrNotFound
	ErrAlreadyFavorite = errors.New("song is already a favorite")
	ErrSongExists      = errors.New("song already exists in playlist")
	ErrNameRequired    = errors.New("playlist name is required")
	ErrVideoIDRequired = errors.New("youtube ID is required")
)

// untitled is the title of playlist songs added without one.
const untitled = "Untitled"

// FavoriteStore persists favorites. Add returns db.ErrDuplicate for a
// repeated video; Delete returns db.ErrNotFound when nothing matched.
type FavoriteStore interface {
	Add(ctx context.Context, fav *db.Favorite) error
	List(ctx context.Context, userID string) ([]db.Favorite, error)
	Delete(ctx context.Context, userID, youtubeID string) error
	Exists(ctx context.Context, userID, youtubeID string) (bool, error)
}

// PlaylistStore persists playlists and their songs.
type PlaylistStore interface {
	Create(ctx context.Context, p *db.Playlist) error
	List(ctx context.Context, userID string) ([]db.Playlist, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*db.Playlist, error)
	Update(ctx context.Context, p *db.Playlist) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	AddSong(ctx context.Context, userID string, song *db.PlaylistSong) error
	RemoveSong(ctx context.Context, userID string, playlistID uuid.UUID, youtubeID string) error
}

// Service applies library rules on top of the stores.
type Service struct {
	favorites FavoriteStore
	playlists PlaylistStore
}

// New creates a library service.
func New(favorites FavoriteStore, playlists PlaylistStore) *Service {
	return &Service{favorites: favorites, playlists: playlists}
}

// AddFavorite marks song as a favorite of userID.
func (s *Service) AddFavorite(ctx context.Context, userID string, song music.Recommendation) (*db.Favorite, error) {
	if strings.TrimSpace(song.YouTubeID) == "" {
		return nil, ErrVideoIDRequired
	}

	fav := &db.Favorite{
		UserID:    userID,
		YouTubeID: song.YouTubeID,
		Title:     song.Title,
		Artist:    song.Artist,
	}
	if err := s.favorites.Add(ctx, fav); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrAlreadyFavorite
		}
		return nil, fmt.Errorf("adding favorite: %w", err)
	}
	return fav, nil
}

// ListFavorites returns userID's favorites, most recently added first.
func (s *Service) ListFavorites(ctx context.Context, userID string) ([]db.Favorite, error) {
	favs, err := s.favorites.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	return nonNil(favs), nil
}

// RemoveFavorite unmarks a favorite.
func (s *Service) RemoveFavorite(ctx context.Context, userID, youtubeID string) error {
	if youtubeID == "" {
		return ErrVideoIDRequired
	}
	if err := s.favorites.Delete(ctx, userID, youtubeID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("removing favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether youtubeID is one of userID's favorites.
func (s *Service) IsFavorite(ctx context.Context, userID, youtubeID string) (bool, error) {
	if youtubeID == "" {
		return false, ErrVideoIDRequired
	}
	ok, err := s.favorites.Exists(ctx, userID, youtubeID)
	if err != nil {
		return false, fmt.Errorf("checking favorite: %w", err)
	}
	return ok, nil
}

// ListPlaylists returns userID's playlists, newest first.
func (s *Service) ListPlaylists(ctx context.Context, userID string) ([]db.Playlist, error) {
	playlists, err := s.playlists.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}
	return nonNil(playlists), nil
}

// CreatePlaylist creates an empty playlist. The name is required after
// trimming; a blank description is stored as none.
func (s *Service) CreatePlaylist(ctx context.Context, userID, name, description string) (*db.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	p := &db.Playlist{
		UserID:      userID,
		Name:        name,
		Description: optional(description),
	}
	if err := s.playlists.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating playlist: %w", err)
	}
	return p, nil
}

// GetPlaylist returns a playlist with its songs.
func (s *Service) GetPlaylist(ctx context.Context, userID string, id uuid.UUID) (*db.Playlist, error) {
	p, err := s.playlists.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting playlist: %w", err)
	}
	if p.Songs == nil {
		p.Songs = []db.PlaylistSong{}
	}
	return p, nil
}

// PlaylistUpdate holds the fields to change. Nil fields are left alone.
type PlaylistUpdate struct {
	Name        *string
	Description *string
}

// UpdatePlaylist applies u. A name that is blank after trimming is
// rejected; a blank description clears it.
func (s *Service) UpdatePlaylist(ctx context.Context, userID string, id uuid.UUID, u PlaylistUpdate) (*db.Playlist, error) {
	p, err := s.GetPlaylist(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		p.Name = name
	}
	if u.Description != nil {
		p.Description = optional(*u.Description)
	}

	if err := s.playlists.Update(ctx, p); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating playlist: %w", err)
	}
	return p, nil
}

// DeletePlaylist removes a playlist and its songs.
func (s *Service) DeletePlaylist(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.playlists.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting playlist: %w", err)
	}
	return nil
}

// AddSong appends song to a playlist. Each video appears at most once.
func (s *Service) AddSong(ctx context.Context, userID string, playlistID uuid.UUID, song music.Recommendation) (*db.PlaylistSong, error) {
	if strings.TrimSpace(song.YouTubeID) == "" {
		return nil, ErrVideoIDRequired
	}

	title := song.Title
	if title == "" {
		title = untitled
	}
	ps := &db.PlaylistSong{
		PlaylistID: playlistID,
		YouTubeID:  song.YouTubeID,
		Title:      title,
		Artist:     song.Artist,
	}
	if err := s.playlists.AddSong(ctx, userID, ps); err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicate):
			return nil, ErrSongExists
		case errors.Is(err, db.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("adding song: %w", err)
	}
	return ps, nil
}

// RemoveSong removes a video from a playlist.
func (s *Service) RemoveSong(ctx context.Context, userID string, playlistID uuid.UUID, youtubeID string) error {
	if err := s.playlists.RemoveSong(ctx, userID, playlistID, youtubeID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("removing song: %w", err)
	}
	return nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
