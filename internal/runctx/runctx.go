// Package runctx provides the run context for dependency injection via context.
// This package is separate from run to avoid import cycles with the CLI layer.
package runctx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/canytam/bindery/internal/config"
	"github.com/canytam/bindery/internal/home"
)

// Services holds the core services that flow through a run.
// Components extract what they need via the individual extractors.
type Services struct {
	RunID      string
	Logger     *slog.Logger
	Config     *config.Config
	Home       *home.Dir
	HTTPClient *http.Client
}

// New builds a Services with a fresh run ID and the run ID attached
// to the logger.
func New(logger *slog.Logger, cfg *config.Config, homeDir *home.Dir, client *http.Client) *Services {
	runID := uuid.NewString()
	return &Services{
		RunID:      runID,
		Logger:     logger.With("run_id", runID),
		Config:     cfg,
		Home:       homeDir,
		HTTPClient: client,
	}
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return slog.Default()
}

// ConfigFrom extracts the configuration from context.
func ConfigFrom(ctx context.Context) *config.Config {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// HTTPClientFrom extracts the HTTP client from context.
func HTTPClientFrom(ctx context.Context) *http.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.HTTPClient
	}
	return http.DefaultClient
}
