// Package config loads application configuration from defaults, an optional
// YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config is the root configuration.
type Config struct {
	Env       string          `koanf:"env"`
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Features  Features        `koanf:"features"`
	LLM       LLMConfig       `koanf:"llm"`
	YouTube   YouTubeConfig   `koanf:"youtube"`
	Spotify   SpotifyConfig   `koanf:"spotify"`
	LastFM    LastFMConfig    `koanf:"lastfm"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Notify    NotifyConfig    `koanf:"notify"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr        string   `koanf:"addr"`
	BaseURL     string   `koanf:"base_url"`
	CORSOrigins []string `koanf:"cors_origins"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Features are static switches read once at startup.
type Features struct {
	// UseGenerative selects the generative mood analyzer and composer.
	UseGenerative bool `koanf:"use_generative"`
	// UseYouTubeAPI enables live video search. When off, a static
	// catalog is served.
	UseYouTubeAPI       bool `koanf:"use_youtube_api"`
	UseSpotifyCatalog   bool `koanf:"use_spotify_catalog"`
	UseLastFMTags       bool `koanf:"use_lastfm_tags"`
	UseDatabase         bool `koanf:"use_database"`
	EnableNotifications bool `koanf:"enable_notifications"`
}

// LLMConfig selects and tunes the generative backend.
type LLMConfig struct {
	Provider    string        `koanf:"provider"`
	Model       string        `koanf:"model"` // provider default when empty
	Temperature float64       `koanf:"temperature"`
	TopP        float64       `koanf:"top_p"`
	TopK        int           `koanf:"top_k"`
	MaxTokens   int           `koanf:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout"`
	GeminiKey   string        `koanf:"gemini_api_key"`
	OpenAIKey   string        `koanf:"openai_api_key"`
	OllamaURL   string        `koanf:"ollama_url"`
}

// YouTubeConfig configures the YouTube Data API client.
type YouTubeConfig struct {
	APIKey     string        `koanf:"api_key"`
	MaxResults int           `koanf:"max_results"`
	CacheTTL   time.Duration `koanf:"cache_ttl"`
}

// SpotifyConfig holds client-credentials settings for catalog search.
type SpotifyConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	Market       string `koanf:"market"`
}

// LastFMConfig holds the Last.fm API key used for mood tag charts.
type LastFMConfig struct {
	APIKey string `koanf:"api_key"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// AuthConfig holds login and token settings.
type AuthConfig struct {
	GoogleClientID     string        `koanf:"google_client_id"`
	GoogleClientSecret string        `koanf:"google_client_secret"`
	RedirectURL        string        `koanf:"redirect_url"`
	JWTSecret          string        `koanf:"jwt_secret"`
	TokenTTL           time.Duration `koanf:"token_ttl"`
	AdminEmails        []string      `koanf:"admin_emails"`
}

// RateLimitConfig bounds API requests per client IP.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// NotifyConfig holds Web Push VAPID settings.
type NotifyConfig struct {
	VAPIDPublicKey  string `koanf:"vapid_public_key"`
	VAPIDPrivateKey string `koanf:"vapid_private_key"`
	Subject         string `koanf:"subject"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Env: EnvProduction,
		Server: ServerConfig{
			Addr:    "127.0.0.1:8080",
			BaseURL: "http://127.0.0.1:8080",
		},
		Log: LogConfig{Level: "info", Format: "json"},
		LLM: LLMConfig{
			Provider:    ProviderGemini,
			Temperature: 0.7,
			TopP:        0.8,
			TopK:        40,
			MaxTokens:   1024,
			Timeout:     30 * time.Second,
			OllamaURL:   "http://localhost:11434",
		},
		YouTube: YouTubeConfig{
			MaxResults: 5,
			CacheTTL:   30 * time.Minute,
		},
		Spotify: SpotifyConfig{Market: "US"},
		Auth: AuthConfig{
			TokenTTL: time.Hour,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Hour,
		},
		Notify: NotifyConfig{Subject: "mailto:admin@example.com"},
	}
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// LoginEnabled reports whether Google login is configured.
func (c *Config) LoginEnabled() bool {
	return c.Auth.GoogleClientID != "" && c.Auth.GoogleClientSecret != ""
}

// IsAdmin reports whether email is listed as an administrator.
func (c *Config) IsAdmin(email string) bool {
	return email != "" && slices.Contains(c.Auth.AdminEmails, email)
}

// Validate checks that every enabled feature has what it needs.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not one of gemini, openai, ollama", c.LLM.Provider))
	}

	if c.Features.UseGenerative {
		switch {
		case c.LLM.Provider == ProviderGemini && c.LLM.GeminiKey == "":
			errs = append(errs, errors.New("GEMINI_API_KEY is required when USE_GEMINI is enabled"))
		case c.LLM.Provider == ProviderOpenAI && c.LLM.OpenAIKey == "":
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		case c.LLM.Provider == ProviderOllama && c.LLM.OllamaURL == "":
			errs = append(errs, errors.New("OLLAMA_URL is required for the ollama provider"))
		}
	}

	if c.Features.UseYouTubeAPI && c.YouTube.APIKey == "" {
		errs = append(errs, errors.New("YOUTUBE_API_KEY is required when USE_YOUTUBE_API is enabled"))
	}
	if c.Features.UseSpotifyCatalog {
		if !c.Features.UseYouTubeAPI {
			errs = append(errs, errors.New("USE_SPOTIFY_CATALOG requires USE_YOUTUBE_API"))
		}
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
			errs = append(errs, errors.New("SPOTIFY_ID and SPOTIFY_SECRET are required when USE_SPOTIFY_CATALOG is enabled"))
		}
	}
	if c.Features.UseLastFMTags {
		if !c.Features.UseYouTubeAPI {
			errs = append(errs, errors.New("USE_LASTFM_TAGS requires USE_YOUTUBE_API"))
		}
		if c.LastFM.APIKey == "" {
			errs = append(errs, errors.New("LASTFM_API_KEY is required when USE_LASTFM_TAGS is enabled"))
		}
	}
	if c.Features.UseDatabase && c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required when USE_DATABASE is enabled"))
	}
	if c.Features.EnableNotifications && (c.Notify.VAPIDPublicKey == "" || c.Notify.VAPIDPrivateKey == "") {
		errs = append(errs, errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY are required when ENABLE_NOTIFICATIONS is enabled"))
	}
	if c.LoginEnabled() && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when Google login is configured"))
	}

	if c.RateLimit.Requests <= 0 {
		errs = append(errs, fmt.Errorf("ratelimit.requests must be positive, got %d", c.RateLimit.Requests))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("ratelimit.window must be positive, got %s", c.RateLimit.Window))
	}
	if c.YouTube.MaxResults <= 0 || c.YouTube.MaxResults > 50 {
		errs = append(errs, fmt.Errorf("youtube.max_results must be in 1..50, got %d", c.YouTube.MaxResults))
	}

	return errors.Join(errs...)
}
