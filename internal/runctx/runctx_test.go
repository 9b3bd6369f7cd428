package runctx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/canytam/bindery/internal/config"
	"github.com/canytam/bindery/internal/home"
)

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	dir, _ := home.New(t.TempDir())

	first := New(logger, config.DefaultConfig(), dir, http.DefaultClient)
	second := New(logger, config.DefaultConfig(), dir, http.DefaultClient)

	if first.RunID == "" {
		t.Error("expected a run ID")
	}
	if first.RunID == second.RunID {
		t.Error("run IDs must be unique per run")
	}
}

func TestServicesRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	dir, _ := home.New(t.TempDir())
	svc := New(logger, config.DefaultConfig(), dir, http.DefaultClient)

	ctx := WithServices(context.Background(), svc)

	if got := ServicesFrom(ctx); got != svc {
		t.Error("ServicesFrom did not return the attached services")
	}
	if got := ConfigFrom(ctx); got != svc.Config {
		t.Error("ConfigFrom did not return the attached config")
	}
	if got := HTTPClientFrom(ctx); got != svc.HTTPClient {
		t.Error("HTTPClientFrom did not return the attached client")
	}
}

func TestEmptyContextFallbacks(t *testing.T) {
	ctx := context.Background()

	if ServicesFrom(ctx) != nil {
		t.Error("expected nil services on a bare context")
	}
	if LoggerFrom(ctx) == nil {
		t.Error("expected the default logger on a bare context")
	}
	if ConfigFrom(ctx) != nil {
		t.Error("expected nil config on a bare context")
	}
	if HTTPClientFrom(ctx) != http.DefaultClient {
		t.Error("expected the default client on a bare context")
	}
}
