package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/music"
	"github.com/justestif/moodtunes/internal/youtube"
)

type chatRequest struct {
	Message string          `json:"message" validate:"required"`
	History []music.Message `json:"history" validate:"dive"`
}

// Chat runs one conversation turn (POST /api/chat).
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}

	resp, err := s.chat.Process(r.Context(), req.Message, req.History)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("chat turn failed")
		respondError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	if id := IdentityFrom(r.Context()); id != nil && len(resp.Recommendations) > 0 {
		if _, err := s.history.Save(r.Context(), id.UserID, resp.Recommendations, resp.Mood); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("saving chat history")
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

type searchRequest struct {
	Query      string `json:"query" validate:"required"`
	MaxResults int    `json:"maxResults" validate:"omitempty,min=1,max=50"`
}

// SearchYouTube searches videos (POST /api/search/youtube).
func (s *Server) SearchYouTube(w http.ResponseWriter, r *http.Request) {
	if !s.requireVideos(w) {
		return
	}

	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}
	if req.MaxResults == 0 {
		req.MaxResults = s.cfg.YouTube.MaxResults
	}

	results, err := s.videos.SearchVideos(r.Context(), req.Query, req.MaxResults, youtube.SearchOptions{})
	if err != nil && !youtube.IsNotFound(err) {
		logging.Ctx(r.Context()).Error().Err(err).Str("query", req.Query).Msg("video search failed")
		respondError(w, http.StatusBadGateway, "Failed to search YouTube")
		return
	}
	if results == nil {
		results = []music.Recommendation{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "results": results})
}

type songRequest struct {
	Title  string `json:"title" validate:"required"`
	Artist string `json:"artist"`
}

// SearchSong finds one specific song (POST /api/search/song).
func (s *Server) SearchSong(w http.ResponseWriter, r *http.Request) {
	if !s.requireVideos(w) {
		return
	}

	var req songRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}

	result, err := s.videos.SearchSpecificSong(r.Context(), req.Title, req.Artist)
	if err != nil {
		if youtube.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "Song not found")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("song search failed")
		respondError(w, http.StatusBadGateway, "Failed to search YouTube")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

// VideoDetails returns one video (GET /api/videos/{id}).
func (s *Server) VideoDetails(w http.ResponseWriter, r *http.Request) {
	if !s.requireVideos(w) {
		return
	}

	video, err := s.videos.GetVideoDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, youtube.ErrInvalidResponse) {
			respondError(w, http.StatusNotFound, "Video not found")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("video details failed")
		respondError(w, http.StatusBadGateway, "Failed to fetch video details")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "video": video})
}

// RelatedVideos lists related videos (GET /api/videos/{id}/related).
func (s *Server) RelatedVideos(w http.ResponseWriter, r *http.Request) {
	if !s.requireVideos(w) {
		return
	}

	maxResults := s.cfg.YouTube.MaxResults
	if v := r.URL.Query().Get("maxResults"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			respondError(w, http.StatusBadRequest, "maxResults must be between 1 and 50")
			return
		}
		maxResults = n
	}

	results, err := s.videos.GetRelatedVideos(r.Context(), chi.URLParam(r, "id"), maxResults)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("related videos failed")
		respondError(w, http.StatusBadGateway, "Failed to fetch related videos")
		return
	}
	if results == nil {
		results = []music.Recommendation{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "results": results})
}

func (s *Server) requireVideos(w http.ResponseWriter) bool {
	if s.videos == nil {
		respondError(w, http.StatusServiceUnavailable, "YouTube search is disabled")
		return false
	}
	return true
}
