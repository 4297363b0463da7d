package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/justestif/moodtunes/internal/db"
	"github.com/justestif/moodtunes/internal/logging"
)

const (
	sessionCookieName = "session_id"
	sessionTTL        = 24 * time.Hour
)

// Session is a signed-in browser.
type Session struct {
	ID        string
	UserID    string
	UserName  string
	Email     string
	IsAdmin   bool
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionManager creates, resolves and ends browser sessions.
type SessionManager interface {
	Create(ctx context.Context, user *db.User, userAgent string) (*Session, error)
	Get(ctx context.Context, id string) *Session
	Delete(ctx context.Context, id string)
	GetFromRequest(r *http.Request) *Session
	SetCookie(w http.ResponseWriter, session *Session)
	ClearCookie(w http.ResponseWriter)
}

// SessionOption configures a session store.
type SessionOption func(*sessionCookies)

// WithSecureCookies marks the session cookie Secure, for HTTPS deployments.
func WithSecureCookies(secure bool) SessionOption {
	return func(c *sessionCookies) { c.secure = secure }
}

// sessionCookies writes the session cookie for either store.
type sessionCookies struct {
	secure bool
}

func newSessionCookies(opts []SessionOption) sessionCookies {
	var c sessionCookies
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// SetCookie sets the session cookie on the response.
func (c sessionCookies) SetCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// ClearCookie removes the session cookie from the response.
func (c sessionCookies) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		MaxAge:   -1,
	})
}

// SessionStore keeps sessions in memory. Used when no database is configured.
type SessionStore struct {
	sessionCookies

	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessionStore creates an in-memory session store.
func NewSessionStore(opts ...SessionOption) *SessionStore {
	return &SessionStore{
		sessionCookies: newSessionCookies(opts),
		sessions:       make(map[string]*Session),
		now:            time.Now,
	}
}

// Create starts a session for user.
func (s *SessionStore) Create(_ context.Context, user *db.User, userAgent string) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := sessionFor(user, &db.Session{
		ID:        id,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	})

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	return session, nil
}

// Get returns the session for id. Expired sessions are removed.
func (s *SessionStore) Get(_ context.Context, id string) *Session {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	if !s.now().Before(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil
	}
	return session
}

// Delete ends a session.
func (s *SessionStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// GetFromRequest resolves the session named by the request cookie.
func (s *SessionStore) GetFromRequest(r *http.Request) *Session {
	return fromCookie(r, s.Get)
}

// DBSessionStore keeps sessions in PostgreSQL.
type DBSessionStore struct {
	sessionCookies

	database *db.DB
}

// NewDBSessionStore creates a database-backed session store.
func NewDBSessionStore(database *db.DB, opts ...SessionOption) *DBSessionStore {
	return &DBSessionStore{
		sessionCookies: newSessionCookies(opts),
		database:       database,
	}
}

// Create starts a session for user and persists it.
func (s *DBSessionStore) Create(ctx context.Context, user *db.User, userAgent string) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	row := &db.Session{
		ID:        id,
		UserID:    user.ID,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}
	if err := s.database.Sessions().Create(ctx, row); err != nil {
		return nil, err
	}
	return sessionFor(user, row), nil
}

// Get loads an unexpired session and its user in one query.
func (s *DBSessionStore) Get(ctx context.Context, id string) *Session {
	row, user, err := s.database.Sessions().Get(ctx, id)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Msg("loading session")
		}
		return nil
	}
	return sessionFor(user, row)
}

// Delete ends a session.
func (s *DBSessionStore) Delete(ctx context.Context, id string) {
	if err := s.database.Sessions().Delete(ctx, id); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("deleting session")
	}
}

// GetFromRequest resolves the session named by the request cookie.
func (s *DBSessionStore) GetFromRequest(r *http.Request) *Session {
	return fromCookie(r, s.Get)
}

// PurgeExpired deletes expired sessions every interval until ctx is done.
func (s *DBSessionStore) PurgeExpired(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.database.Sessions().DeleteExpired(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("purging expired sessions")
				continue
			}
			if n > 0 {
				logging.Debug().Int64("count", n).Msg("purged expired sessions")
			}
		}
	}
}

func sessionFor(user *db.User, row *db.Session) *Session {
	return &Session{
		ID:        row.ID,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		UserAgent: row.UserAgent,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}
}

func fromCookie(r *http.Request, get func(context.Context, string) *Session) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return get(r.Context(), cookie.Value)
}

// generateSessionID returns 32 random bytes, hex encoded.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var (
	_ SessionManager = (*SessionStore)(nil)
	_ SessionManager = (*DBSessionStore)(nil)
)
