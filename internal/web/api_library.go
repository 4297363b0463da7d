package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/justestif/moodtunes/internal/library"
	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/music"
)

type songFields struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	YouTubeID string `json:"youtubeId"`
	Mood      string `json:"mood,omitempty"`
	Genre     string `json:"genre,omitempty"`
}

// songBody accepts either {"song": {...}} or a bare song object. The
// library validates the video ID.
type songBody struct {
	Song *songFields `json:"song"`
	songFields
}

func (b songBody) song() music.Recommendation {
	f := b.songFields
	if b.Song != nil {
		f = *b.Song
	}
	return music.Recommendation(f)
}

// libraryError maps library sentinels to responses.
func libraryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, library.ErrAlreadyFavorite):
		respondError(w, http.StatusConflict, "Song is already in favorites")
	case errors.Is(err, library.ErrSongExists):
		respondError(w, http.StatusConflict, "Song already exists in playlist")
	case errors.Is(err, library.ErrNameRequired):
		respondError(w, http.StatusBadRequest, "Playlist name is required")
	case errors.Is(err, library.ErrVideoIDRequired):
		respondError(w, http.StatusBadRequest, "youtubeId is required")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("library operation failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func playlistID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid playlist ID")
		return uuid.Nil, false
	}
	return id, true
}

// ListFavorites handles GET /api/favorites.
func (s *Server) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.library.ListFavorites(r.Context(), IdentityFrom(r.Context()).UserID)
	if err != nil {
		libraryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "favorites": favs})
}

// AddFavorite handles POST /api/favorites.
func (s *Server) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var body songBody
	if err := decodeJSON(r, &body); err != nil {
		respondInvalid(w, err)
		return
	}

	fav, err := s.library.AddFavorite(r.Context(), IdentityFrom(r.Context()).UserID, body.song())
	if err != nil {
		libraryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "favorite": fav})
}

type youtubeIDRequest struct {
	YouTubeID string `json:"youtubeId" validate:"required"`
}

// RemoveFavorite handles DELETE /api/favorites.
func (s *Server) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	var req youtubeIDRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}

	if err := s.library.RemoveFavorite(r.Context(), IdentityFrom(r.Context()).UserID, req.YouTubeID); err != nil {
		libraryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Favorite removed"})
}

// CheckFavorite handles GET /api/favorites/check?youtubeId=.
func (s *Server) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	youtubeID := r.URL.Query().Get("youtubeId")
	if youtubeID == "" {
		respondError(w, http.StatusBadRequest, "youtubeId is required")
		return
	}

	ok, err := s.library.IsFavorite(r.Context(), IdentityFrom(r.Context()).UserID, youtubeID)
	if err != nil {
		libraryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "isFavorite": ok})
}

// ListPlaylists handles GET /api/playlists.
func (s *Server) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.library.ListPlaylists(r.Context(), IdentityFrom(r.Context()).UserID)
	if err != nil {
		libraryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "playlists": playlists})
}

type createPlaylistRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// CreatePlaylist handles POST /api/playlists.
func (s *Server) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}

	playlist, err := s.library.CreatePlaylist(r.Context(), IdentityFrom(r.Context()).UserID, req.Name, req.Description)
	if err != nil {
		libraryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "playlist": playlist})
}

// GetPlaylist handles GET /api/playlists/{id}.
func (s *Server) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}

	playlist, err := s.library.GetPlaylist(r.Context(), IdentityFrom(r.Context()).UserID, id)
	if err != nil {
		libraryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "playlist": playlist})
}

type updatePlaylistRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// UpdatePlaylist handles PUT /api/playlists/{id}.
func (s *Server) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}

	var req updatePlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}

	playlist, err := s.library.UpdatePlaylist(r.Context(), IdentityFrom(r.Context()).UserID, id, library.PlaylistUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		libraryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "playlist": playlist})
}

// DeletePlaylist handles DELETE /api/playlists/{id}.
func (s *Server) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}

	if err := s.library.DeletePlaylist(r.Context(), IdentityFrom(r.Context()).UserID, id); err != nil {
		libraryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Playlist deleted"})
}

// AddPlaylistSong handles POST /api/playlists/{id}/songs.
func (s *Server) AddPlaylistSong(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}

	var body songBody
	if err := decodeJSON(r, &body); err != nil {
		respondInvalid(w, err)
		return
	}

	song, err := s.library.AddSong(r.Context(), IdentityFrom(r.Context()).UserID, id, body.song())
	if err != nil {
		libraryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "song": song})
}

// RemovePlaylistSong handles DELETE /api/playlists/{id}/songs/{youtubeId}.
func (s *Server) RemovePlaylistSong(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(w, r)
	if !ok {
		return
	}

	err := s.library.RemoveSong(r.Context(), IdentityFrom(r.Context()).UserID, id, chi.URLParam(r, "youtubeId"))
	if err != nil {
		libraryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Song removed"})
}
