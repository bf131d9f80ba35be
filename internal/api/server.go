// Package api exposes a read-only HTTP view of the current session: buffer
// snapshots, devices and status. It is off by default and binds to
// localhost; there are no mutating endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Host string
	Port int
}

// Server is the HTTP API server.
type Server struct {
	config     ServerConfig
	router     *chi.Mux
	httpServer *http.Server
	handlers   *Handlers
	mu         sync.Mutex
}

// NewServer creates the API server and registers its routes.
func NewServer(config ServerConfig, handlers *Handlers) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	s := &Server{
		config:   config,
		router:   r,
		handlers: handlers,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", handlers.GetStatus)
		r.Get("/logs", handlers.GetLogs)
		r.Get("/logs/export", handlers.ExportLogs)
		r.Get("/devices", handlers.GetDevices)
		r.Get("/presets", handlers.GetPresets)
	})

	return s
}

// Router returns the underlying router, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return fmt.Errorf("api server already started")
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// The TUI owns the terminal, so this only reaches the
			// diagnostic log.
			s.handlers.logger.Error("api server failed", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	err := s.httpServer.Shutdown(ctx)
	s.httpServer = nil
	return err
}
