package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/api/handlers"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	runs   handlers.RunTracker
	failed handlers.FailedLookupStore
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(port string, runs handlers.RunTracker, failed handlers.FailedLookupStore, logger *logrus.Logger) *Server {
	s := &Server{
		runs:   runs,
		failed: failed,
		logger: logger,
	}

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler wrapped in request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	return middleware.Logging(mux, s.logger)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Health check
	mux.Handle("/health", handlers.NewHealthHandler(s.logger))

	// Last run and progress
	mux.Handle("/status", handlers.NewStatusHandler(s.runs, s.logger))

	// Failed lookups awaiting manual follow-up
	mux.Handle("/failed", handlers.NewFailedHandler(s.failed, s.logger))

	// On demand backup
	mux.Handle("/api/run", handlers.NewRunHandler(s.runs, s.logger))

	mux.Handle("/metrics", promhttp.Handler())
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
