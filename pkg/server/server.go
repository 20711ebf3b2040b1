// Package server provides the admin HTTP server exposing metrics and
// health endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"custodia-hq/saturn/pkg/config"
	"custodia-hq/saturn/pkg/telemetry/health"
	"custodia-hq/saturn/pkg/telemetry/metrics"
)

// Server is the admin HTTP server. It serves the Prometheus metrics
// endpoint and the liveness and readiness probes.
type Server struct {
	config       *config.ServerConfig
	metricsCfg   *config.MetricsConfig
	collector    *metrics.Collector
	checker      *health.Checker
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new admin server. The collector and checker may be
// nil, in which case the corresponding endpoints are not registered.
func NewServer(cfg *config.ServerConfig, metricsCfg *config.MetricsConfig, collector *metrics.Collector, checker *health.Checker) *Server {
	return &Server{
		config:       cfg,
		metricsCfg:   metricsCfg,
		collector:    collector,
		checker:      checker,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until the context is cancelled,
// Shutdown is called, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting admin server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("admin server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	if s.collector != nil && s.metricsCfg != nil && s.metricsCfg.Enabled {
		path := s.metricsCfg.Path
		if path == "" {
			path = config.DefaultMetricsPath
		}
		mux.Handle(path, s.collector.Handler())
	}
	if s.checker != nil {
		mux.Handle("/healthz", s.checker.LivenessHandler())
		mux.Handle("/readyz", s.checker.ReadinessHandler())
	}

	return mux
}
