package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/justestif/moodtunes/internal/auth"
	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/music"
)

// Home handles the home page (GET /).
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	data := HomePageData{
		PageData:       s.pageData(r, ""),
		Moods:          music.Moods,
		VAPIDPublicKey: s.vapidKey(),
	}
	data.User = &UserData{
		ID:      session.UserID,
		Name:    session.UserName,
		IsAdmin: session.IsAdmin,
	}

	s.render(w, "home", data)
}

// LoginPage handles the login page (GET /login).
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if s.sessions.GetFromRequest(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := LoginPageData{
		PageData:     s.pageData(r, "Sign in"),
		LoginEnabled: s.auth != nil,
	}
	if r.URL.Query().Get("error") != "" {
		data.Flash = &FlashMessage{Type: "error", Message: "Sign-in failed. Please try again."}
	}

	s.render(w, "login", data)
}

// Login initiates the Google OAuth flow (GET /auth/login).
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		http.Error(w, "Login is not configured", http.StatusServiceUnavailable)
		return
	}

	url, err := s.auth.Begin(w)
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback from Google (GET /auth/callback).
func (s *Server) Callback(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		http.Error(w, "Login is not configured", http.StatusServiceUnavailable)
		return
	}

	user, err := s.auth.Complete(w, r)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("login failed")
		if errors.Is(err, auth.ErrStateMismatch) {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "/login?error=1", http.StatusTemporaryRedirect)
		return
	}

	// Create session
	session, err := s.sessions.Create(r.Context(), user, r.UserAgent())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("creating session")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	s.sessions.SetCookie(w, session)
	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Bool("admin", user.IsAdmin).Msg("user signed in")

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout clears the session and redirects to the login page (POST /auth/logout).
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if session := s.sessions.GetFromRequest(r); session != nil {
		s.sessions.Delete(r.Context(), session.ID)
	}

	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Health reports liveness and database reachability (GET /healthz).
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if s.db == nil {
		body["database"] = "disabled"
		respondJSON(w, http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("database ping failed")
		body["status"] = "degraded"
		body["database"] = "unreachable"
		respondJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["database"] = "ok"
	respondJSON(w, http.StatusOK, body)
}

func (s *Server) pageData(r *http.Request, title string) PageData {
	return PageData{
		Title:       title,
		CurrentPath: r.URL.Path,
	}
}

func (s *Server) vapidKey() string {
	if s.notify == nil {
		return ""
	}
	return s.cfg.Notify.VAPIDPublicKey
}

func (s *Server) render(w http.ResponseWriter, page string, data any) {
	var buf bytes.Buffer
	if err := s.templates.Render(&buf, page, data); err != nil {
		logging.Error().Err(err).Str("page", page).Msg("rendering template")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
