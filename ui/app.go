// Package ui exposes the analysis engine over HTTP: JSON endpoints for
// conditions, comparison and hypothesis results, plus an HTML rendering
// of the markdown reports. It owns no analysis logic.
package ui

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sleepsense/adapters/postgres"
	"sleepsense/internal"
	"sleepsense/internal/hypothesis"
)

// App represents the HTTP application
type App struct {
	router   *chi.Mux
	registry *hypothesis.Registry
	repo     *postgres.ConditionRepository // nil when persistence is disabled
	log      *internal.Logger

	// The registry assumes a single caller; the HTTP surface serializes
	// access to it.
	mu sync.Mutex
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates the HTTP application around an existing registry. The
// repository may be nil; condition writes then stay in memory only.
func NewApp(registry *hypothesis.Registry, repo *postgres.ConditionRepository) *App {
	app := &App{
		router:   chi.NewRouter(),
		registry: registry,
		repo:     repo,
		log:      internal.DefaultLogger,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Timeout(30 * time.Second))
}

// setupRoutes wires the API surface
func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)

	a.router.Route("/conditions", func(r chi.Router) {
		r.Get("/", a.handleListConditions)
		r.Post("/", a.handleAddCondition)
		r.Get("/{name}", a.handleGetCondition)
		r.Get("/{name}/report", a.handleConditionReport)
	})

	a.router.Get("/compare", a.handleCompare)
	a.router.Get("/hypotheses", a.handleHypotheses)
}

// Handler returns the root http.Handler for tests and embedding.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: a.router,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening on :%s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
