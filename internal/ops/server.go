// Package ops exposes the operational HTTP surface: liveness, readiness,
// Prometheus metrics, and a read-only status endpoint for the poller.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readinessTimeout = 5 * time.Second

// ReadinessCheck probes one dependency. A non-nil error marks the
// process not ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server provides the ops HTTP API.
type Server struct {
	checks []ReadinessCheck
	status func() any
	logger *slog.Logger
}

// ServerOption configures optional dependencies for the ops server.
type ServerOption func(*Server)

// WithReadinessCheck registers a dependency probe for /readyz.
func WithReadinessCheck(name string, check func(ctx context.Context) error) ServerOption {
	return func(s *Server) {
		s.checks = append(s.checks, ReadinessCheck{Name: name, Check: check})
	}
}

// WithStatus sets the provider backing GET /ops/v1/status.
func WithStatus(status func() any) ServerOption {
	return func(s *Server) { s.status = status }
}

func NewServer(logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{logger: logger.With("component", "ops")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler for the ops API, rate limited per
// client IP.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /ops/v1/status", s.handleStatus)

	return NewRateLimitMiddleware(s.logger).Wrap(mux)
}

// Run serves the ops API until ctx is cancelled.
func (s *Server) Run(ctx context.Context, port int) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("ops server shutdown error", "error", err)
		}
	}()

	s.logger.Info("ops server started", "port", port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("ops server: %w", err)
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		s.logger.Warn("failed to write health response", "error", err)
	}
}

type readinessResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := readinessResponse{Ready: true, Checks: make(map[string]string, len(s.checks))}
	for _, check := range s.checks {
		if err := check.Check(ctx); err != nil {
			resp.Ready = false
			resp.Checks[check.Name] = err.Error()
			continue
		}
		resp.Checks[check.Name] = "ok"
	}

	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "status not available"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"addresses":   s.status(),
		"server_time": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write ops response", "error", err)
	}
}
