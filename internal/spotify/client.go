// Package spotify searches the Spotify catalog for tracks to recommend.
package spotify

import (
	"context"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// Config holds Spotify application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	Market       string
}

// Client wraps the Spotify API client with catalog search helpers.
type Client struct {
	api    *spotify.Client
	market string
}

// New wraps an already authenticated API client.
func New(api *spotify.Client, market string) *Client {
	return &Client{api: api, market: market}
}

// NewFromCredentials authenticates with the client credentials flow.
// Tokens are refreshed by the returned HTTP client as they expire; the
// context only scopes token fetches.
func NewFromCredentials(ctx context.Context, cfg Config) *Client {
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return New(spotify.New(creds.Client(ctx)), cfg.Market)
}
