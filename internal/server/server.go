package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/scribehub/scribe/internal/auth"
	"github.com/scribehub/scribe/internal/handler"
	"github.com/scribehub/scribe/internal/server/middleware"
	"github.com/scribehub/scribe/internal/service"
	"github.com/scribehub/scribe/internal/stats"
	"github.com/scribehub/scribe/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimit       int // requests per minute per IP, 0 disables
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		RateLimit:       120,
	}
}

// Server is the top-level HTTP server. It owns the chi router and the two
// storage handles (the SQLite key/log store and the Redis stats store) and
// injects them into every component at construction. Nothing in the request
// path reaches for a global.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	stats      *stats.Store
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware wired, ready for
// ListenAndServe.
func New(cfg Config, st *store.Store, statsStore *stats.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  st,
		stats:  statsStore,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if s.cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Minute))
	}

	gate := auth.NewGate(s.store)
	reqlog := service.NewRequestLogger(s.store, s.logger)
	keyAdmin := service.NewKeyAdmin(s.store, gate, s.logger)

	statsHandler := handler.NewStatsHandler(s.stats, s.logger)
	postsHandler := handler.NewPostsHandler(gate, reqlog)
	keysHandler := handler.NewKeysHandler(keyAdmin, reqlog)
	usersHandler := handler.NewUsersHandler(s.stats)

	// Explicit routing table; handlers never parse paths themselves.
	r.Get("/", statsHandler.Index)
	r.Get("/healthz", s.handleHealthz)

	r.Post("/claim", postsHandler.Claim)
	r.Post("/done", postsHandler.Done)
	r.Post("/unclaim", postsHandler.Unclaim)

	r.Get("/user/{username}", usersHandler.Get)

	r.Route("/keys", func(r chi.Router) {
		r.Post("/create", keysHandler.Create)
		r.Post("/me", keysHandler.Me)
		r.Post("/revoke", keysHandler.Revoke)
	})

	s.router = r
}

// handleHealthz is a liveness probe: 200 when the key store answers.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// ListenAndServe starts the HTTP server and blocks until SIGINT or SIGTERM,
// then drains in-flight requests before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
