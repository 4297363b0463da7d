// Package auth provides Google OAuth2 login and API bearer tokens.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/justestif/moodtunes/internal/db"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 5 * 60 // seconds

	userInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

var (
	// ErrMissingCredentials is returned when the Google client ID or secret is not set.
	ErrMissingCredentials = errors.New("missing Google OAuth client ID or secret")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")

	// ErrMissingCode is returned when the callback carries no authorization code.
	ErrMissingCode = errors.New("missing authorization code")

	// ErrInvalidUserInfo is returned when the userinfo response has no subject.
	ErrInvalidUserInfo = errors.New("invalid userinfo response")
)

// Config holds Google OAuth settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AdminEmails  []string
	SecureCookie bool
}

// UserStore persists signed-in users.
type UserStore interface {
	Upsert(ctx context.Context, user *db.User) error
}

// Authenticator runs the Google authorization code flow.
type Authenticator struct {
	oauth       *oauth2.Config
	users       UserStore
	admins      []string
	secure      bool
	userInfoURL string
}

// New creates an Authenticator. Returns ErrMissingCredentials if the
// client ID or secret is empty.
func New(cfg Config, users UserStore) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		users:       users,
		admins:      cfg.AdminEmails,
		secure:      cfg.SecureCookie,
		userInfoURL: userInfoURL,
	}, nil
}

// Begin stores a fresh state in a cookie and returns the consent URL to
// redirect to.
func (a *Authenticator) Begin(w http.ResponseWriter) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}

	// Store state in cookie for validation on callback
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   stateTTL,
	})

	return a.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account")), nil
}

// Complete validates the callback request, exchanges the code and upserts
// the signed-in user.
// The Google token is used once for userinfo and then discarded.
func (a *Authenticator) Complete(w http.ResponseWriter, r *http.Request) (*db.User, error) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" {
		return nil, ErrStateMismatch
	}

	query := r.URL.Query()
	if query.Get("state") != stateCookie.Value {
		return nil, ErrStateMismatch
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if errMsg := query.Get("error"); errMsg != "" {
		return nil, fmt.Errorf("google auth error: %s", errMsg)
	}
	code := query.Get("code")
	if code == "" {
		return nil, ErrMissingCode
	}

	token, err := a.oauth.Exchange(r.Context(), code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}

	user, err := a.fetchUser(r.Context(), token)
	if err != nil {
		return nil, err
	}

	if err := a.users.Upsert(r.Context(), user); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}
	return user, nil
}

// userInfo is the OpenID Connect userinfo payload.
type userInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (a *Authenticator) fetchUser(ctx context.Context, token *oauth2.Token) (*db.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating userinfo request: %w", err)
	}

	resp, err := a.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading userinfo: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidUserInfo, resp.StatusCode)
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parsing userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, ErrInvalidUserInfo
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	return &db.User{
		ID:          info.Sub,
		Email:       info.Email,
		DisplayName: name,
		AvatarURL:   info.Picture,
		IsAdmin:     info.Email != "" && slices.Contains(a.admins, info.Email),
	}, nil
}

// generateState creates a random state string for OAuth.
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
