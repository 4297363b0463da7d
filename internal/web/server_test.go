package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goccy/go-json"

	"github.com/justestif/moodtunes/internal/auth"
	"github.com/justestif/moodtunes/internal/config"
	"github.com/justestif/moodtunes/internal/conversation"
	"github.com/justestif/moodtunes/internal/db"
	"github.com/justestif/moodtunes/internal/history"
	"github.com/justestif/moodtunes/internal/library"
	"github.com/justestif/moodtunes/internal/music"
	"github.com/justestif/moodtunes/internal/notify"
	"github.com/justestif/moodtunes/internal/youtube"
)

var testTemplates = fstest.MapFS{
	"layouts/base.html": {Data: []byte(`{{define "base"}}<html><title>{{.Title}}</title>{{template "content" .}}</html>{{end}}`)},
	"pages/home.html":   {Data: []byte(`{{define "content"}}<p>Hello {{.User.Name}}</p>{{end}}`)},
	"pages/login.html":  {Data: []byte(`{{define "content"}}{{if .LoginEnabled}}<a href="/auth/login">Sign in</a>{{end}}{{with .Flash}}<p>{{.Message}}</p>{{end}}{{end}}`)},
}

type fakeChat struct {
	calls atomic.Int32
	err   error
	recs  []music.Recommendation
}

func (f *fakeChat) Process(_ context.Context, message string, h []music.Message) (*conversation.ChatResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	reply := music.Message{Role: music.RoleAssistant, Content: "What are you up to today?"}
	return &conversation.ChatResponse{
		Message:         reply,
		Mood:            music.MoodAnalysis{PrimaryMood: "happy", MoodScores: map[string]float64{"happy": 1}, Confidence: 0.6},
		Recommendations: f.recs,
		History:         append(append(h, music.Message{Role: music.RoleUser, Content: message}), reply),
	}, nil
}

type fakeVideos struct {
	searches  atomic.Int32
	lastMax   int
	searchErr error
	songErr   error
	detailErr error
}

func (f *fakeVideos) SearchVideos(_ context.Context, query string, maxResults int, _ youtube.SearchOptions) ([]music.Recommendation, error) {
	f.searches.Add(1)
	f.lastMax = maxResults
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []music.Recommendation{{Title: query, Artist: "Channel", YouTubeID: "v1"}}, nil
}

func (f *fakeVideos) SearchSpecificSong(_ context.Context, title, artist string) (music.Recommendation, error) {
	if f.songErr != nil {
		return music.Recommendation{}, f.songErr
	}
	return music.Recommendation{Title: title, Artist: artist, YouTubeID: "s1"}, nil
}

func (f *fakeVideos) GetVideoDetails(_ context.Context, id string) (*youtube.Video, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return &youtube.Video{ID: id}, nil
}

func (f *fakeVideos) GetRelatedVideos(context.Context, string, int) ([]music.Recommendation, error) {
	return nil, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type okSender struct{}

func (okSender) Push(context.Context, []byte, notify.Subscription) (int, error) {
	return http.StatusCreated, nil
}

type testEnv struct {
	server   *Server
	cfg      *config.Config
	chat     *fakeChat
	videos   *fakeVideos
	sessions *SessionStore
	history  *history.Service
	tokens   *auth.TokenIssuer
	notify   *notify.Service
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config, *Deps)) *testEnv {
	t.Helper()

	cfg := config.Default()
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	env := &testEnv{
		cfg:      cfg,
		chat:     &fakeChat{recs: []music.Recommendation{{Title: "Lovely Day", Artist: "Bill Withers", YouTubeID: "bEeaS6fuUoA"}}},
		videos:   &fakeVideos{},
		sessions: NewSessionStore(),
		history:  history.New(history.NewMemoryStore()),
		tokens:   tokens,
		notify:   notify.New(okSender{}),
	}

	deps := Deps{
		Chat:        env.chat,
		Library:     library.New(library.NewMemoryFavorites(), library.NewMemoryPlaylists()),
		History:     env.history,
		Sessions:    env.sessions,
		Videos:      env.videos,
		Tokens:      tokens,
		Notify:      env.notify,
		TemplatesFS: testTemplates,
	}
	for _, m := range mutate {
		m(cfg, &deps)
	}

	env.server, err = NewServer(cfg, deps)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return env
}

// login creates a session and returns its cookie.
func (e *testEnv) login(t *testing.T, userID string, admin bool) *http.Cookie {
	t.Helper()
	session, err := e.sessions.Create(context.Background(), &db.User{
		ID:          userID,
		Email:       userID + "@example.com",
		DisplayName: "User " + userID,
		IsAdmin:     admin,
	}, "test")
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: session.ID}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return out
}

func TestNewServer_RequiresCoreDeps(t *testing.T) {
	if _, err := NewServer(config.Default(), Deps{}); err == nil {
		t.Error("NewServer() error = nil")
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantDB     string
	}{
		{"no database", nil, http.StatusOK, "disabled"},
		{"database ok", fakePinger{}, http.StatusOK, "ok"},
		{"database down", fakePinger{err: errors.New("refused")}, http.StatusServiceUnavailable, "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(_ *config.Config, d *Deps) { d.DB = tt.db })
			w := env.do(t, http.MethodGet, "/healthz", nil, nil)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := decodeBody(t, w)["database"]; got != tt.wantDB {
				t.Errorf("database = %v, want %s", got, tt.wantDB)
			}
		})
	}
}

func TestPages(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/", nil, nil)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Errorf("GET / anonymous = %d %s, want redirect to /login", w.Code, w.Header().Get("Location"))
	}

	w = env.do(t, http.MethodGet, "/login?error=1", nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Sign-in failed") {
		t.Errorf("GET /login = %d %q", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "/auth/login") {
		t.Error("login link shown without a configured authenticator")
	}

	cookie := env.login(t, "u1", false)
	w = env.do(t, http.MethodGet, "/", nil, cookie)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Hello User u1") {
		t.Errorf("GET / = %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	w = env.do(t, http.MethodGet, "/login", nil, cookie)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Errorf("GET /login signed in = %d, want redirect to /", w.Code)
	}
}

func TestLoginNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/auth/login", "/auth/callback"} {
		if w := env.do(t, http.MethodGet, path, nil, nil); w.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s = %d, want 503", path, w.Code)
		}
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "u1", false)

	w := env.do(t, http.MethodPost, "/auth/logout", nil, cookie)
	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if env.sessions.Get(context.Background(), cookie.Value) != nil {
		t.Error("session still present after logout")
	}
}

func TestAdminStatus_DevOnly(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(t, http.MethodGet, "/api/admin/status", nil, nil); w.Code != http.StatusForbidden {
		t.Errorf("production status = %d, want 403", w.Code)
	}

	dev := newTestEnv(t, func(c *config.Config, _ *Deps) { c.Env = config.EnvDevelopment })
	w := dev.do(t, http.MethodGet, "/api/admin/status", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("development status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["store"] != "memory" || body["provider"] != "keyword" {
		t.Errorf("body = %v", body)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config, _ *Deps) {
		c.RateLimit.Requests = 2
		c.RateLimit.Window = time.Minute
	})

	for i := 0; i < 2; i++ {
		if w := env.do(t, http.MethodGet, "/api/favorites", nil, nil); w.Code != http.StatusUnauthorized {
			t.Fatalf("request %d = %d, want 401", i, w.Code)
		}
	}
	if w := env.do(t, http.MethodGet, "/api/favorites", nil, nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", w.Code)
	}
	// Pages are not limited.
	if w := env.do(t, http.MethodGet, "/healthz", nil, nil); w.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", w.Code)
	}
}
