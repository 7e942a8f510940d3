// Package web exposes the crate, the grabber and mixes over HTTP as JSON,
// with a server-sent event stream of store notifications.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/justestif/go-crate-keeper/internal/crate"
	"github.com/justestif/go-crate-keeper/internal/grabber"
	"github.com/justestif/go-crate-keeper/internal/mixes"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr    string
	Store   *crate.Store
	History *grabber.History
	// Extractor and Resolver are optional; grabs that need a missing one
	// fail with 503.
	Extractor Extractor
	Resolver  Resolver
	Mixes     mixes.Config
	Logger    *zap.Logger
	Now       func() time.Time
}

// Server is the HTTP server for the crate API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	events   *Events
	logger   *zap.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("server needs a crate store")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Mixes.NumClusters == 0 {
		cfg.Mixes = mixes.DefaultConfig()
	}

	events := NewEvents(cfg.Store.Synced())
	handlers := NewHandlers(cfg)
	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: handlers,
		events:   events,
		logger:   cfg.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	// WriteTimeout is lifted per request for the event stream.
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "application/json"))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.Get("/healthz", h.Health)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/tracks", func(r chi.Router) {
			r.Get("/", h.ListTracks)
			r.Post("/", h.AddTrack)
			r.Get("/{id}", h.GetTrack)
			r.Patch("/{id}", h.UpdateTrack)
			r.Delete("/{id}", h.RemoveTrack)
		})

		r.Get("/sync", h.SyncStatus)
		r.Post("/sync", h.SyncAll)
		r.Get("/events", s.events.ServeHTTP)
		r.Get("/mixes", h.Mixes)

		r.Route("/grab", func(r chi.Router) {
			r.Post("/", h.Grab)
			r.Post("/add", h.GrabAdd)
			r.Get("/history", h.History)
			r.Delete("/history", h.ClearHistory)
		})
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Events returns the notification hub; subscribe it to the store.
func (s *Server) Events() *Events {
	return s.events
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", "http://"+s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.events.Close()
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
