// Command moodtunes runs the mood-based music recommendation web service.
//
// Usage:
//
//	moodtunes [serve]     start the HTTP server (default)
//	moodtunes vapid-keys  print a new Web Push VAPID key pair
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/justestif/moodtunes/internal/auth"
	"github.com/justestif/moodtunes/internal/compose"
	"github.com/justestif/moodtunes/internal/config"
	"github.com/justestif/moodtunes/internal/conversation"
	"github.com/justestif/moodtunes/internal/db"
	"github.com/justestif/moodtunes/internal/history"
	"github.com/justestif/moodtunes/internal/lastfm"
	"github.com/justestif/moodtunes/internal/library"
	"github.com/justestif/moodtunes/internal/llm"
	"github.com/justestif/moodtunes/internal/llm/gemini"
	"github.com/justestif/moodtunes/internal/llm/ollama"
	"github.com/justestif/moodtunes/internal/llm/openai"
	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/mood"
	"github.com/justestif/moodtunes/internal/notify"
	"github.com/justestif/moodtunes/internal/recommend"
	"github.com/justestif/moodtunes/internal/spotify"
	"github.com/justestif/moodtunes/internal/web"
	"github.com/justestif/moodtunes/internal/youtube"
	webfs "github.com/justestif/moodtunes/web"
)

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve()
	case "vapid-keys":
		err = vapidKeys()
	default:
		err = fmt.Errorf("unknown command %q (want serve or vapid-keys)", cmd)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func vapidKeys() error {
	public, private, err := notify.GenerateVAPIDKeys()
	if err != nil {
		return err
	}
	fmt.Printf("VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", public, private)
	return nil
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, cleanup, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Create sub-filesystems for templates and static files
	deps.TemplatesFS, err = fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}
	deps.StaticFS, err = fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(cfg, deps)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logging.Info().
		Str("env", cfg.Env).
		Bool("generative", cfg.Features.UseGenerative).
		Bool("youtube_api", cfg.Features.UseYouTubeAPI).
		Bool("spotify_catalog", cfg.Features.UseSpotifyCatalog).
		Bool("lastfm_tags", cfg.Features.UseLastFMTags).
		Bool("database", cfg.Features.UseDatabase).
		Bool("notifications", cfg.Features.EnableNotifications).
		Msg("moodtunes configured")

	return server.Run()
}

// buildDeps wires the services selected by the feature switches.
func buildDeps(ctx context.Context, cfg *config.Config) (web.Deps, func(), error) {
	var deps web.Deps
	cleanup := func() {}
	secureCookies := web.WithSecureCookies(!cfg.IsDevelopment())

	// Persistence
	var (
		favorites library.FavoriteStore = library.NewMemoryFavorites()
		playlists library.PlaylistStore = library.NewMemoryPlaylists()
		entries   history.Store         = history.NewMemoryStore()
		users     auth.UserStore        = auth.NewMemoryUsers()
		sessions  web.SessionManager    = web.NewSessionStore(secureCookies)
	)
	if cfg.Features.UseDatabase {
		database, err := db.New(ctx, cfg.Database.URL)
		if err != nil {
			return deps, cleanup, fmt.Errorf("connecting to database: %w", err)
		}
		cleanup = database.Close
		if err := database.Migrate(ctx); err != nil {
			return deps, cleanup, fmt.Errorf("migrating database: %w", err)
		}

		favorites = database.Favorites()
		playlists = database.Playlists()
		entries = database.History()
		users = database.Users()
		dbSessions := web.NewDBSessionStore(database, secureCookies)
		go dbSessions.PurgeExpired(ctx, time.Hour)
		sessions = dbSessions
		deps.DB = database
	}
	deps.Library = library.New(favorites, playlists)
	deps.History = history.New(entries)
	deps.Sessions = sessions

	// Generative backend
	var analyzer mood.Analyzer = mood.NewKeywordAnalyzer()
	var composer compose.Composer = compose.NewTemplateComposer()
	if cfg.Features.UseGenerative {
		gen, err := newGenerator(ctx, cfg)
		if err != nil {
			return deps, cleanup, err
		}
		analyzer = mood.NewGenerativeAnalyzer(gen)
		composer = compose.NewGenerativeComposer(gen)
	}

	// Recommendations
	var source recommend.Source = recommend.NewStaticSource()
	if cfg.Features.UseYouTubeAPI {
		yt := youtube.NewClient(cfg.YouTube.APIKey)
		deps.Videos = yt
		ytSource := recommend.NewYouTubeSource(yt,
			recommend.WithMaxResults(cfg.YouTube.MaxResults),
			recommend.WithCacheTTL(cfg.YouTube.CacheTTL),
		)
		source = ytSource
		if cfg.Features.UseLastFMTags {
			source = recommend.NewTagSource(lastfm.NewClient(cfg.LastFM.APIKey), yt, source,
				recommend.WithCatalogMaxResults(cfg.YouTube.MaxResults),
			)
		}
		if cfg.Features.UseSpotifyCatalog {
			catalog := spotify.NewFromCredentials(ctx, spotify.Config{
				ClientID:     cfg.Spotify.ClientID,
				ClientSecret: cfg.Spotify.ClientSecret,
				Market:       cfg.Spotify.Market,
			})
			source = recommend.NewCatalogSource(catalog, yt, source,
				recommend.WithCatalogMaxResults(cfg.YouTube.MaxResults),
			)
		}
	}
	deps.Chat = conversation.New(analyzer, source, composer)

	// Login
	if cfg.LoginEnabled() {
		redirect := cfg.Auth.RedirectURL
		if redirect == "" {
			redirect = cfg.Server.BaseURL + "/auth/callback"
		}
		authenticator, err := auth.New(auth.Config{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			RedirectURL:  redirect,
			AdminEmails:  cfg.Auth.AdminEmails,
			SecureCookie: !cfg.IsDevelopment(),
		}, users)
		if err != nil {
			return deps, cleanup, fmt.Errorf("configuring login: %w", err)
		}
		deps.Auth = authenticator
	}
	if cfg.Auth.JWTSecret != "" {
		tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return deps, cleanup, fmt.Errorf("configuring tokens: %w", err)
		}
		deps.Tokens = tokens
	}

	// Notifications
	if cfg.Features.EnableNotifications {
		deps.Notify = notify.New(notify.NewWebPush(notify.VAPIDConfig{
			PublicKey:  cfg.Notify.VAPIDPublicKey,
			PrivateKey: cfg.Notify.VAPIDPrivateKey,
			Subject:    cfg.Notify.Subject,
		}))
	}

	return deps, cleanup, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	sampling := llm.Sampling{
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		TopK:        cfg.LLM.TopK,
		MaxTokens:   cfg.LLM.MaxTokens,
	}

	var gen llm.Generator
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		g, err := gemini.New(ctx, cfg.LLM.GeminiKey, cfg.LLM.Model, sampling)
		if err != nil {
			return nil, err
		}
		gen = g
	case config.ProviderOpenAI:
		gen = openai.New(cfg.LLM.OpenAIKey, cfg.LLM.Model, sampling)
	case config.ProviderOllama:
		gen = ollama.New(cfg.LLM.OllamaURL, cfg.LLM.Model, sampling, cfg.LLM.Timeout)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	return llm.Guard(gen, cfg.LLM.Provider), nil
}
