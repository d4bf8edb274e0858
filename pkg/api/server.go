// Package api serves interactive Louvain sessions over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-louvain/pkg/api/middleware"
	"github.com/dd0wney/cluso-louvain/pkg/health"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
)

// shutdownTimeout bounds the graceful drain on Start's context cancellation
const shutdownTimeout = 10 * time.Second

// routes builds the mux and its middleware chain
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health and metrics
	mux.Handle("GET /health", s.health.Handler(health.Liveness))
	mux.Handle("GET /health/ready", s.health.Handler(health.Readiness))
	mux.Handle("GET /metrics", s.handleMetrics())

	// Token exchange
	if s.users != nil {
		mux.HandleFunc("POST /auth/token", s.handleToken)
	}

	// Sessions
	protect := s.requireAuth
	mux.Handle("POST /sessions", protect(http.HandlerFunc(s.handleCreateSession)))
	mux.Handle("GET /sessions", protect(http.HandlerFunc(s.handleListSessions)))
	mux.Handle("GET /sessions/{id}", protect(http.HandlerFunc(s.handleGetSession)))
	mux.Handle("DELETE /sessions/{id}", protect(http.HandlerFunc(s.handleDeleteSession)))
	mux.Handle("GET /sessions/{id}/graph", protect(http.HandlerFunc(s.handleSessionGraph)))
	mux.Handle("POST /sessions/{id}/step", protect(http.HandlerFunc(s.handleStep)))
	mux.Handle("POST /sessions/{id}/back", protect(http.HandlerFunc(s.handleBack)))
	mux.Handle("POST /sessions/{id}/run", protect(http.HandlerFunc(s.handleRun)))
	mux.Handle("POST /sessions/{id}/aggregate", protect(http.HandlerFunc(s.handleAggregate)))
	mux.Handle("POST /sessions/{id}/reset", protect(http.HandlerFunc(s.handleReset)))

	// One-shot detection and stored runs
	mux.Handle("POST /communities", protect(http.HandlerFunc(s.handleCommunities)))
	if s.results != nil {
		mux.Handle("GET /results", protect(http.HandlerFunc(s.handleListResults)))
		mux.Handle("GET /results/{id}", protect(http.HandlerFunc(s.handleGetResult)))
	}

	// Read-only query API
	mux.Handle("POST /graphql", protect(s.graphql))
	mux.Handle("GET /graphql", protect(s.graphql))

	return middleware.Chain(mux,
		middleware.PanicRecovery(s.logger),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.Metrics(s.metrics),
		middleware.CORS(s.cfg.Server.CORSOrigins),
		middleware.BodySizeLimit(int64(s.cfg.Server.MaxBodyBytes)),
	)
}

// requireAuth guards h with bearer auth when a JWT secret is configured
func (s *Server) requireAuth(h http.Handler) http.Handler {
	if s.jwtManager == nil {
		return h
	}
	return middleware.BearerAuth(s.jwtManager, s.logger, s.metrics.RecordAuthFailure)(h)
}

func (s *Server) handleMetrics() http.Handler {
	prom := promhttp.HandlerFor(s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.UpdateSystemMetrics(s.startTime)
		prom.ServeHTTP(w, r)
	})
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves on the configured port until ctx is cancelled, then drains
// in-flight requests
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("Louvain API server starting",
		logging.String("addr", ln.Addr().String()),
		logging.String("version", s.version),
		logging.Bool("auth", s.jwtManager != nil),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("Louvain API server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
