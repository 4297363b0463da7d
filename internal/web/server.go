// Package web provides the HTTP server, JSON API and pages for moodtunes.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/justestif/moodtunes/internal/auth"
	"github.com/justestif/moodtunes/internal/config"
	"github.com/justestif/moodtunes/internal/conversation"
	"github.com/justestif/moodtunes/internal/history"
	"github.com/justestif/moodtunes/internal/library"
	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/metrics"
	"github.com/justestif/moodtunes/internal/music"
	"github.com/justestif/moodtunes/internal/notify"
	"github.com/justestif/moodtunes/internal/youtube"
)

// ChatProcessor runs one chat turn.
type ChatProcessor interface {
	Process(ctx context.Context, message string, history []music.Message) (*conversation.ChatResponse, error)
}

// VideoService is the video search surface exposed over the API.
type VideoService interface {
	SearchVideos(ctx context.Context, query string, maxResults int, opts youtube.SearchOptions) ([]music.Recommendation, error)
	SearchSpecificSong(ctx context.Context, title, artist string) (music.Recommendation, error)
	GetVideoDetails(ctx context.Context, videoID string) (*youtube.Video, error)
	GetRelatedVideos(ctx context.Context, videoID string, maxResults int) ([]music.Recommendation, error)
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes. Optional services are nil
// when their feature is disabled, and their routes answer 503.
type Deps struct {
	Chat     ChatProcessor
	Library  *library.Service
	History  *history.Service
	Sessions SessionManager

	Videos VideoService        // optional
	Auth   *auth.Authenticator // optional
	Tokens *auth.TokenIssuer   // optional
	Notify *notify.Service     // optional
	DB     Pinger              // optional

	TemplatesFS fs.FS
	StaticFS    fs.FS
}

// Server is the HTTP server for the web application.
type Server struct {
	cfg       *config.Config
	router    chi.Router
	server    *http.Server
	templates *Templates

	chat     ChatProcessor
	library  *library.Service
	history  *history.Service
	sessions SessionManager
	videos   VideoService
	auth     *auth.Authenticator
	tokens   *auth.TokenIssuer
	notify   *notify.Service
	db       Pinger
}

// NewServer creates a new web server.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Chat == nil || deps.Library == nil || deps.History == nil || deps.Sessions == nil {
		return nil, errors.New("chat, library, history and sessions are required")
	}

	// Create template manager
	templates, err := NewTemplates(deps.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		router:    chi.NewRouter(),
		templates: templates,
		chat:      deps.Chat,
		library:   deps.Library,
		history:   deps.History,
		sessions:  deps.Sessions,
		videos:    deps.Videos,
		auth:      deps.Auth,
		tokens:    deps.Tokens,
		notify:    deps.Notify,
		db:        deps.DB,
	}

	// Configure middleware
	s.setupMiddleware()

	// Configure routes
	s.setupRoutes(deps.StaticFS)

	// Create HTTP server
	s.server = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // chat turns wait on the generative backend
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(metrics.Middleware)
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS) {
	// Static files
	if staticFS != nil {
		fileServer := http.FileServer(http.FS(staticFS))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	// Pages
	s.router.Get("/", s.Home)
	s.router.Get("/login", s.LoginPage)

	// Auth routes
	s.router.Get("/auth/login", s.Login)
	s.router.Get("/auth/callback", s.Callback)
	s.router.Post("/auth/logout", s.Logout)

	s.router.Get("/healthz", s.Health)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window))
		r.Use(s.identify)

		r.Post("/chat", s.Chat)

		r.Route("/search", func(r chi.Router) {
			r.Post("/youtube", s.SearchYouTube)
			r.Post("/song", s.SearchSong)
		})
		r.Get("/videos/{id}", s.VideoDetails)
		r.Get("/videos/{id}/related", s.RelatedVideos)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/favorites", s.ListFavorites)
			r.Post("/favorites", s.AddFavorite)
			r.Delete("/favorites", s.RemoveFavorite)
			r.Get("/favorites/check", s.CheckFavorite)

			r.Get("/playlists", s.ListPlaylists)
			r.Post("/playlists", s.CreatePlaylist)
			r.Get("/playlists/{id}", s.GetPlaylist)
			r.Put("/playlists/{id}", s.UpdatePlaylist)
			r.Delete("/playlists/{id}", s.DeletePlaylist)
			r.Post("/playlists/{id}/songs", s.AddPlaylistSong)
			r.Delete("/playlists/{id}/songs/{youtubeId}", s.RemovePlaylistSong)

			r.Get("/history", s.ListHistory)
			r.Post("/history", s.SaveHistory)
			r.Delete("/history", s.DeleteHistory)
			r.Get("/insights/moods", s.MoodInsights)

			r.Post("/auth/token", s.IssueToken)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/subscribe", s.Subscribe)
			r.Post("/unsubscribe", s.Unsubscribe)
			r.With(requireAdmin).Post("/send", s.SendNotification)
			r.With(s.devOnly).Get("/send", s.NotificationStatus)
		})

		r.With(s.devOnly).Get("/admin/status", s.AdminStatus)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.server.Addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	// Channel to receive shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	select {
	case err := <-errCh:
		return err
	case <-stop:
		logging.Info().Msg("shutting down server")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logging.Info().Msg("server stopped")
	return nil
}
