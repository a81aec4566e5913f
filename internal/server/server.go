// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware and
// routes, and owns every long-lived resource (database pool, Redis client).
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  repository (sqlite or postgres) → EngagementService → EngagementHandler
//	  content.Client (→ content.CachedStore over Redis) → EssayHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place, rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/essay-site/internal/config"
	"github.com/sakif/essay-site/internal/content"
	"github.com/sakif/essay-site/internal/handler"
	"github.com/sakif/essay-site/internal/middleware"
	"github.com/sakif/essay-site/internal/pseudonym"
	"github.com/sakif/essay-site/internal/repository"
	"github.com/sakif/essay-site/internal/repository/postgres"
	sqliteRepo "github.com/sakif/essay-site/internal/repository/sqlite"
	"github.com/sakif/essay-site/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and, when caching is on, the
// Redis client. Close releases both; Start calls it on shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	repo    repository.EngagementRepository
	content content.Store
	redis   *redis.Client // nil when the content cache is off
}

// New opens the engagement store, builds the content store and wires routes.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		repo:   repo,
	}

	if err := s.setupContent(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up content store: %w", err)
	}

	s.setupRoutes()
	return s, nil
}

// openRepository picks the storage engine named by cfg.DBDriver.
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` to avoid confusion with the
// sqlite driver package.
func openRepository(ctx context.Context, cfg *config.Config) (repository.EngagementRepository, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	case config.DriverSQLite:
		return sqliteRepo.New(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}

// setupContent builds the essay source. Without CMS credentials the essay
// endpoints answer 503 and everything else keeps working. A Redis outage at
// startup only disables the cache.
func (s *Server) setupContent(ctx context.Context) error {
	if !s.config.ContentEnabled() {
		s.logger.Warn("CONTENTFUL_SPACE_ID or CONTENTFUL_ACCESS_TOKEN not set, essay endpoints are disabled")
		s.content = content.Disabled{}
		return nil
	}

	client, err := content.NewClient(content.ClientConfig{
		BaseURL:     s.config.ContentfulBaseURL,
		SpaceID:     s.config.ContentfulSpaceID,
		Environment: s.config.ContentfulEnvironment,
		AccessToken: s.config.ContentfulAccessToken,
	}, s.logger)
	if err != nil {
		return err
	}
	s.content = client

	if s.config.RedisURL == "" || s.config.ContentCacheTTL == 0 {
		return nil
	}
	rdb, err := content.NewRedisClient(ctx, s.config.RedisURL)
	if err != nil {
		s.logger.Warn("content cache disabled", slog.String("error", err.Error()))
		return nil
	}
	s.redis = rdb
	s.content = content.NewCachedStore(client, rdb, s.config.ContentCacheTTL, s.logger)
	s.logger.Info("content cache enabled", slog.Duration("ttl", s.config.ContentCacheTTL))
	return nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE (each also served under /api):
// GET    /essays                → List essays (JSON)
// GET    /essays/{id}           → One essay with rendered HTML
// GET    /essays/{id}/likes     → Like count
// POST   /essays/{id}/likes     → Like (idempotent per visitor)
// GET    /essays/{id}/reviews   → Reviews, newest first
// POST   /essays/{id}/reviews   → Submit a review
// POST   /identities            → Mint an anonymous identity
// GET    /healthz               → Database health
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger: logs each request with timing info and the request id
// 5. CORS (go-chi/cors): answers preflights before routing
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS(s.config.CORSOrigin))

	engagement := service.NewEngagementService(s.repo, pseudonym.NewRandom(), s.logger)
	engagementHandler := handler.NewEngagementHandler(engagement, s.logger)
	essayHandler := handler.NewEssayHandler(s.content, s.logger)

	api := func(r chi.Router) {
		r.Get("/essays", essayHandler.HandleList)
		r.Get("/essays/{id}", essayHandler.HandleGet)
		r.Get("/essays/{id}/likes", engagementHandler.HandleGetLikes)
		r.Post("/essays/{id}/likes", engagementHandler.HandleLike)
		r.Get("/essays/{id}/reviews", engagementHandler.HandleListReviews)
		r.Post("/essays/{id}/reviews", engagementHandler.HandleSubmitReview)
		r.Post("/identities", handler.HandleNewIdentity)
	}

	s.router.Get("/healthz", handler.HandleHealth(s.repo))
	api(s.router)
	s.router.Route("/api", api)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database and Redis connections.
func (s *Server) Close() error {
	var firstErr error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.repo.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database (flushes WAL, releases file lock) and Redis
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("db_driver", s.config.DBDriver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
