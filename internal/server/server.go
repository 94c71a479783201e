// Package server is the composition root: it opens the store, builds the
// services and handlers, and mounts them on a chi router.
//
// ROUTES:
//
//	GET    /api/health
//	GET    /api/data
//	GET    /api/sports
//	GET    /api/users
//	POST   /api/users
//	GET    /api/users/{userId}
//	PUT    /api/users/{userId}
//	GET    /api/games
//	POST   /api/games
//	GET    /api/games/{sport}
//	POST   /api/games/{gameId}/join                (player token when enabled)
//	DELETE /api/games/{gameId}/players/{userId}    (player token when enabled)
//	DELETE /api/games/{gameId}
//	GET    /metrics
//	GET    /*                                      (static frontend, optional)
//
// MIDDLEWARE ORDER: RequestID → RealIP → Logger → Metrics → Recoverer → CORS.
// Recoverer sits inside Logger and Metrics so a panic is still logged and
// counted as a 500.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/joinagame/internal/auth"
	"github.com/sakif/joinagame/internal/config"
	"github.com/sakif/joinagame/internal/handler"
	"github.com/sakif/joinagame/internal/metrics"
	"github.com/sakif/joinagame/internal/middleware"
	"github.com/sakif/joinagame/internal/repository"
	"github.com/sakif/joinagame/internal/repository/jsonfile"
	sqliteRepo "github.com/sakif/joinagame/internal/repository/sqlite"
	"github.com/sakif/joinagame/internal/roster"
	"github.com/sakif/joinagame/internal/service"
)

// Server represents the HTTP server and all its dependencies. It owns the
// store and closes it on shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	metrics *metrics.Recorder
	tokens  *auth.TokenService
}

// New opens the configured store and wires every route.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	var tokens *auth.TokenService
	if cfg.TokensEnabled() {
		tokens, err = auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("creating token service: %w", err)
		}
	} else {
		logger.Warn("auth.jwt_secret not set, player tokens are disabled and roster routes are open")
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.New(),
		tokens:  tokens,
	}
	s.setupRoutes()

	return s, nil
}

// OpenStore opens the store named by cfg.Driver.
func OpenStore(cfg config.StoreConfig, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return db, nil
	case config.DriverJSON, "":
		store, err := jsonfile.Open(cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening json store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{handler.TokenHeader, "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	gameService := service.NewGameService(s.store, roster.New(), s.metrics, s.logger)
	userService := service.NewUserService(s.store, s.logger)

	games := handler.NewGameHandler(gameService, s.logger)
	users := handler.NewUserHandler(userService, s.tokens, s.config.Server.SecureCookies, s.logger)
	system := handler.NewSystemHandler(s.store, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", system.HandleHealth)
		r.Get("/data", system.HandleData)
		r.Get("/sports", system.HandleSports)

		r.Get("/users", users.HandleList)
		r.Post("/users", users.HandleCreate)
		r.Get("/users/{userId}", users.HandleGetByID)
		r.Put("/users/{userId}", users.HandleUpdate)

		r.Get("/games", games.HandleList)
		r.Post("/games", games.HandleCreate)
		r.Get("/games/{sport}", games.HandleListBySport)
		r.Delete("/games/{gameId}", games.HandleDelete)

		// Roster changes act on behalf of one player, so they are the routes
		// that need that player's token.
		r.Group(func(r chi.Router) {
			if s.tokens != nil {
				r.Use(auth.RequireAuth(s.tokens))
			}
			r.Post("/games/{gameId}/join", games.HandleJoin)
			r.Delete("/games/{gameId}/players/{userId}", games.HandleLeave)
		})
	})

	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	if dir := s.config.Server.StaticDir; dir != "" {
		fileServer := http.FileServer(http.Dir(dir))
		s.router.Handle("/*", fileServer)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to server.shutdown_timeout and closes the store.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("store", s.config.Store.Driver),
			slog.String("path", s.config.Store.Path),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
