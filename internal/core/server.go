// Package core provides the API chassis for the Subtrack backend.
// It builds the chi router and enforces cross-cutting concerns -- security,
// logging, observability, and error handling -- before requests reach
// domain-specific handlers.
package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"subtrack/internal/config"
	"subtrack/internal/types"
)

// MetricsCollector defines the interface for recording API telemetry.
// Implementations record request latency and count metrics to CloudWatch
// or equivalent backends.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Authenticator decouples the HTTP layer from the session store, allowing
// for easy mocking in tests. Implementations resolve an opaque bearer token
// to the Actor it belongs to.
//
// Distinct error codes:
//   - ErrCodeAuthTokenInvalid if the token is malformed or not found.
//   - ErrCodeAuthSessionExpired if the session exists but has expired.
type Authenticator interface {
	ResolveToken(ctx context.Context, token string) (*types.Actor, error)
}

// Server encapsulates the dependencies of the HTTP API, allowing for easy
// injection during testing and distinct configuration per environment.
type Server struct {
	Config        *config.Config
	Logger        *slog.Logger
	Validator     *Validator
	Metrics       MetricsCollector
	Authenticator Authenticator

	// HealthProbes are checked concurrently by the /health endpoint.
	HealthProbes []HealthProbe

	// V1RouteRegistrars register authenticated domain routes under /v1.
	// WebhookRouteRegistrars register public routes under /webhooks.
	// Populated by the application entry point; the indirection avoids
	// import cycles between core and handler packages.
	V1RouteRegistrars      []func(chi.Router)
	WebhookRouteRegistrars []func(chi.Router)

	// Closers are released in order during Shutdown (e.g. the pgx pool).
	Closers []io.Closer

	router *chi.Mux
}

// NewServer initializes dependencies and prepares the server for route
// mounting. The caller registers routes (via MountRoutes) after construction,
// which lets tests customize route registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs a graceful termination of server-owned resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	for _, c := range s.Closers {
		if err := c.Close(); err != nil {
			s.Logger.Error("error closing resource", "error", err)
			return fmt.Errorf("closing server resource: %w", err)
		}
	}

	s.Logger.Info("server shutdown complete")
	return nil
}
