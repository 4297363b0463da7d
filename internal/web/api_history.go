package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/moodtunes/internal/history"
	"github.com/justestif/moodtunes/internal/insights"
	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/music"
)

// ListHistory handles GET /api/history?limit=.
func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}

	entries, err := s.history.List(r.Context(), IdentityFrom(r.Context()).UserID, limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("listing history")
		respondError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "history": entries})
}

type saveHistoryRequest struct {
	Recommendations []music.Recommendation `json:"recommendations" validate:"required,min=1,dive"`
	Mood            music.MoodAnalysis     `json:"mood"`
}

// SaveHistory handles POST /api/history.
func (s *Server) SaveHistory(w http.ResponseWriter, r *http.Request) {
	var req saveHistoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}

	entry, err := s.history.Save(r.Context(), IdentityFrom(r.Context()).UserID, req.Recommendations, req.Mood)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("saving history")
		respondError(w, http.StatusInternalServerError, "Failed to save history")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "entry": entry})
}

type deleteHistoryRequest struct {
	HistoryID string `json:"historyId" validate:"required,uuid"`
}

// DeleteHistory handles DELETE /api/history.
func (s *Server) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	var req deleteHistoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}

	err := s.history.Delete(r.Context(), IdentityFrom(r.Context()).UserID, uuid.MustParse(req.HistoryID))
	if errors.Is(err, history.ErrNotFound) {
		respondError(w, http.StatusNotFound, "History entry not found")
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("deleting history")
		respondError(w, http.StatusInternalServerError, "Failed to delete history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "History entry deleted"})
}

// MoodInsights handles GET /api/insights/moods.
func (s *Server) MoodInsights(w http.ResponseWriter, r *http.Request) {
	result, err := s.history.Insights(r.Context(), IdentityFrom(r.Context()).UserID, insights.DefaultConfig())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("clustering mood history")
		respondError(w, http.StatusInternalServerError, "Failed to compute insights")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "insights": result})
}

// IssueToken handles POST /api/auth/token. Only a browser session can
// mint a bearer token.
func (s *Server) IssueToken(w http.ResponseWriter, r *http.Request) {
	if s.tokens == nil {
		respondError(w, http.StatusServiceUnavailable, "Token issuing is not configured")
		return
	}
	id := IdentityFrom(r.Context())
	if id.SessionID == "" {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token, expiresAt, err := s.tokens.Issue(id.user())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("issuing token")
		respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     token,
		"expiresAt": expiresAt.UTC().Format(time.RFC3339),
	})
}
