package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/notify"
)

type subscribeRequest struct {
	Subscription notify.Subscription `json:"subscription"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

func (s *Server) requireNotify(w http.ResponseWriter) bool {
	if s.notify == nil {
		respondError(w, http.StatusServiceUnavailable, "Notifications are disabled")
		return false
	}
	return true
}

// Subscribe handles POST /api/notifications/subscribe.
func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	if !s.requireNotify(w) {
		return
	}

	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}

	if err := s.notify.Subscribe(req.Subscription); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Subscription saved"})
}

// Unsubscribe handles POST /api/notifications/unsubscribe.
func (s *Server) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if !s.requireNotify(w) {
		return
	}

	var req unsubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}

	if err := s.notify.Unsubscribe(req.Endpoint); err != nil {
		if errors.Is(err, notify.ErrNotSubscribed) {
			respondError(w, http.StatusNotFound, "Subscription not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to unsubscribe")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Subscription removed"})
}

// SendNotification handles POST /api/notifications/send.
func (s *Server) SendNotification(w http.ResponseWriter, r *http.Request) {
	if !s.requireNotify(w) {
		return
	}

	var req notify.Notification
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, err)
		return
	}

	result, err := s.notify.Send(r.Context(), req)
	if err != nil {
		if errors.Is(err, notify.ErrInvalidNotification) {
			respondError(w, http.StatusBadRequest, "Title and body are required")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("sending notifications")
		respondError(w, http.StatusInternalServerError, "Failed to send notifications")
		return
	}

	logging.Ctx(r.Context()).Info().Int("sent", result.Sent).Int("failed", result.Failed).Msg("notifications sent")
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Sent %d notifications (%d failed)", result.Sent, result.Failed),
		"sent":    result.Sent,
		"failed":  result.Failed,
	})
}

// NotificationStatus handles GET /api/notifications/send in development.
func (s *Server) NotificationStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireNotify(w) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"subscriptionCount": s.notify.Count()})
}

// AdminStatus handles GET /api/admin/status in development.
func (s *Server) AdminStatus(w http.ResponseWriter, r *http.Request) {
	store := "memory"
	if s.cfg.Features.UseDatabase {
		store = "postgres"
	}
	provider := "keyword"
	if s.cfg.Features.UseGenerative {
		provider = s.cfg.LLM.Provider
	}

	status := map[string]any{
		"success":  true,
		"env":      s.cfg.Env,
		"store":    store,
		"provider": provider,
		"features": map[string]bool{
			"generative":    s.cfg.Features.UseGenerative,
			"youtubeApi":    s.cfg.Features.UseYouTubeAPI,
			"spotify":       s.cfg.Features.UseSpotifyCatalog,
			"database":      s.cfg.Features.UseDatabase,
			"notifications": s.cfg.Features.EnableNotifications,
			"login":         s.auth != nil,
		},
	}
	if s.notify != nil {
		status["subscriptionCount"] = s.notify.Count()
	}
	respondJSON(w, http.StatusOK, status)
}
