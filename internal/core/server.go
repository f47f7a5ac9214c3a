// Package core provides the API chassis for the SkyCast backend. It creates
// a chi router and enforces cross-cutting concerns -- security, logging,
// observability, and error handling -- before requests reach domain-specific
// handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"skycast/internal/config"
)

// MetricsCollector defines the interface for recording API telemetry.
// Implementations record request latency and count metrics to CloudWatch
// or equivalent backends.
type MetricsCollector interface {
	// RecordRequest records API request metrics including latency and count.
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// RouteRegistrar mounts a group of domain handler routes onto a chi router.
// The application entry point populates Server.V1RouteRegistrars with one
// registrar per handler package; this indirection avoids import cycles
// between core and handler packages.
type RouteRegistrar func(r chi.Router)

// Server encapsulates all dependencies for the SkyCast API, allowing for
// easy injection during testing and distinct configuration for different
// environments.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   MetricsCollector

	// Authenticator resolves session tokens to users; injected for
	// testability. May be nil in tests that exercise only public routes.
	Authenticator Authenticator

	// HealthProbes are the subsystem checks executed by GET /health.
	HealthProbes []HealthProbe

	// V1RouteRegistrars are mounted under /v1 by MountRoutes.
	V1RouteRegistrars []RouteRegistrar

	router        *chi.Mux
	shutdownHooks []func(context.Context) error
}

// NewServer initializes dependencies, sets up the router, and prepares the
// server for route mounting. It performs a "fail-fast" check on critical
// configuration.
//
// The caller is responsible for mounting routes (via MountRoutes) after
// construction. This separation allows tests to customize route registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	s := &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}

	return s, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs a graceful termination of server-held resources.
// Closers registered via OnShutdown run in registration order; the first
// failure aborts the sequence.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	for _, fn := range s.shutdownHooks {
		if err := fn(ctx); err != nil {
			s.Logger.Error("shutdown hook failed", "error", err)
			return fmt.Errorf("running shutdown hook: %w", err)
		}
	}

	s.Logger.Info("server shutdown complete")
	return nil
}

// OnShutdown registers a cleanup function to run during Shutdown, e.g.
// closing the database pool or flushing buffered metrics.
func (s *Server) OnShutdown(fn func(context.Context) error) {
	s.shutdownHooks = append(s.shutdownHooks, fn)
}
