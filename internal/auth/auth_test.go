package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/oauth2"

	"github.com/justestif/moodtunes/internal/db"
)

type fakeUsers struct {
	upserts atomic.Int32
	last    *db.User
	err     error
}

func (f *fakeUsers) Upsert(_ context.Context, user *db.User) error {
	f.upserts.Add(1)
	f.last = user
	return f.err
}

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, userinfo string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer access-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(userinfo))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAuthenticator(t *testing.T, srv *httptest.Server, users UserStore) *Authenticator {
	t.Helper()
	a, err := New(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/callback",
		AdminEmails:  []string{"admin@example.com"},
	}, users)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	a.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	a.userInfoURL = srv.URL + "/userinfo"
	return a
}

func callbackRequest(state, cookieState, code string) *http.Request {
	q := url.Values{}
	q.Set("state", state)
	if code != "" {
		q.Set("code", code)
	}
	r := httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil)
	if cookieState != "" {
		r.AddCookie(&http.Cookie{Name: stateCookieName, Value: cookieState})
	}
	return r
}

func TestNew_MissingCredentials(t *testing.T) {
	if _, err := New(Config{ClientID: "id"}, &fakeUsers{}); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("New() error = %v, want ErrMissingCredentials", err)
	}
}

func TestBegin(t *testing.T) {
	a := newTestAuthenticator(t, fakeGoogle(t, `{}`), &fakeUsers{})
	w := httptest.NewRecorder()

	authURL, err := a.Begin(w)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != stateCookieName {
		t.Fatalf("cookies = %v, want %s", cookies, stateCookieName)
	}
	if cookies[0].MaxAge != 300 || !cookies[0].HttpOnly {
		t.Errorf("state cookie = %+v", cookies[0])
	}

	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("state") != cookies[0].Value {
		t.Errorf("state = %q, cookie = %q", q.Get("state"), cookies[0].Value)
	}
	if scope := q.Get("scope"); scope != "openid email profile" {
		t.Errorf("scope = %q", scope)
	}
	if prompt := q.Get("prompt"); prompt != "select_account" {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestComplete(t *testing.T) {
	users := &fakeUsers{}
	srv := fakeGoogle(t, `{"sub":"g-1","email":"admin@example.com","name":"Ada","picture":"https://img/a.png"}`)
	a := newTestAuthenticator(t, srv, users)

	w := httptest.NewRecorder()
	user, err := a.Complete(w, callbackRequest("s1", "s1", "good-code"))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if user.ID != "g-1" || user.DisplayName != "Ada" || !user.IsAdmin || user.AvatarURL != "https://img/a.png" {
		t.Errorf("user = %+v", user)
	}
	if users.upserts.Load() != 1 || users.last.ID != "g-1" {
		t.Errorf("upserts = %d", users.upserts.Load())
	}

	cleared := w.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("state cookie not cleared: %v", cleared)
	}
}

func TestComplete_NonAdminNameFallback(t *testing.T) {
	a := newTestAuthenticator(t, fakeGoogle(t, `{"sub":"g-2","email":"user@example.com"}`), &fakeUsers{})

	user, err := a.Complete(httptest.NewRecorder(), callbackRequest("s", "s", "good-code"))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if user.IsAdmin || user.DisplayName != "user@example.com" {
		t.Errorf("user = %+v", user)
	}
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name     string
		userinfo string
		req      *http.Request
		upsert   error
		wantErr  error
		contains string
	}{
		{name: "missing cookie", req: callbackRequest("s", "", "good-code"), wantErr: ErrStateMismatch},
		{name: "state mismatch", req: callbackRequest("s", "other", "good-code"), wantErr: ErrStateMismatch},
		{name: "missing code", req: callbackRequest("s", "s", ""), wantErr: ErrMissingCode},
		{name: "bad code", req: callbackRequest("s", "s", "bad-code"), contains: "exchanging code"},
		{name: "no subject", userinfo: `{"email":"x@example.com"}`, req: callbackRequest("s", "s", "good-code"), wantErr: ErrInvalidUserInfo},
		{name: "upsert fails", userinfo: `{"sub":"g"}`, req: callbackRequest("s", "s", "good-code"), upsert: errors.New("db down"), contains: "saving user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userinfo := tt.userinfo
			if userinfo == "" {
				userinfo = `{"sub":"g"}`
			}
			a := newTestAuthenticator(t, fakeGoogle(t, userinfo), &fakeUsers{err: tt.upsert})

			_, err := a.Complete(httptest.NewRecorder(), tt.req)
			if err == nil {
				t.Fatal("Complete() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %v, want containing %q", err, tt.contains)
			}
		})
	}
}

func TestGenerateState(t *testing.T) {
	a, err := generateState()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := generateState()
	if len(a) != 32 || a == b {
		t.Errorf("generateState() = %q, %q", a, b)
	}
}
