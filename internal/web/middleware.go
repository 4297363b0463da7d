package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/justestif/moodtunes/internal/db"
	"github.com/justestif/moodtunes/internal/logging"
)

// Identity is the caller resolved from a session cookie or bearer token.
type Identity struct {
	UserID    string
	Name      string
	Email     string
	IsAdmin   bool
	SessionID string // empty for bearer tokens
}

func (id *Identity) user() *db.User {
	return &db.User{ID: id.UserID, Email: id.Email, DisplayName: id.Name, IsAdmin: id.IsAdmin}
}

type identityKey struct{}

// IdentityFrom returns the caller attached by the identify middleware.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

func withIdentity(ctx context.Context, id *Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey{}, id)
	return logging.ContextWithUserID(ctx, id.UserID)
}

// requestLogger logs one line per request with zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		event := logging.Ctx(r.Context()).Info()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// identify attaches the caller, if any. A session cookie wins over a
// bearer token. Invalid credentials leave the request anonymous.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session := s.sessions.GetFromRequest(r); session != nil {
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), &Identity{
				UserID:    session.UserID,
				Name:      session.UserName,
				Email:     session.Email,
				IsAdmin:   session.IsAdmin,
				SessionID: session.ID,
			})))
			return
		}

		if token, ok := bearerToken(r); ok && s.tokens != nil {
			claims, err := s.tokens.Verify(token)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("rejected bearer token")
			} else {
				next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), &Identity{
					UserID:  claims.Subject,
					Name:    claims.Email,
					Email:   claims.Email,
					IsAdmin: claims.Admin,
				})))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// requireUser rejects anonymous requests with 401.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()) == nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin rejects anonymous requests with 401 and non-admins with 403.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFrom(r.Context())
		switch {
		case id == nil:
			respondError(w, http.StatusUnauthorized, "Unauthorized")
		case !id.IsAdmin:
			respondError(w, http.StatusForbidden, "Admin access required")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// devOnly hides an endpoint outside development.
func (s *Server) devOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.IsDevelopment() {
			respondError(w, http.StatusForbidden, "Only available in development mode")
			return
		}
		next.ServeHTTP(w, r)
	})
}
