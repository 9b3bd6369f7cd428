package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/canytam/bindery/internal/acquire"
	"github.com/canytam/bindery/internal/browser"
	"github.com/canytam/bindery/internal/config"
	"github.com/canytam/bindery/internal/home"
	"github.com/canytam/bindery/internal/imaging"
	"github.com/canytam/bindery/internal/run"
	"github.com/canytam/bindery/internal/runctx"
	"github.com/canytam/bindery/internal/source"
)

// runAttempts bounds how many times a run is re-invoked from scratch
// after a fatal discovery failure (e.g. a rendering engine crash).
// Artifact-existence resumability makes the re-invocations cheap.
const runAttempts = 3

var (
	fetchSource    string
	fetchBookID    string
	fetchOverwrite bool
	fetchShowIndex bool
	fetchRescan    bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a book's chapters and bind them into PDFs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd.Context())
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSource, "source", "", fmt.Sprintf("source site %v", source.Names()))
	fetchCmd.Flags().StringVar(&fetchBookID, "book-id", "", "book ID on the source site")
	fetchCmd.Flags().BoolVar(&fetchOverwrite, "overwrite", false, "force re-discovery and re-assembly of existing chapters")
	fetchCmd.Flags().BoolVar(&fetchShowIndex, "show-index", false, "print the generated index page path")
	fetchCmd.Flags().BoolVar(&fetchRescan, "rescan", false, "revisit an archived book (reserved, currently a no-op)")

	_ = fetchCmd.MarkFlagRequired("source")
	_ = fetchCmd.MarkFlagRequired("book-id")
}

func runFetch(ctx context.Context) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	src, err := source.Get(fetchSource)
	if err != nil {
		return err
	}

	h, err := home.New(homeDir)
	if err != nil {
		return err
	}
	if err := h.EnsureExists(); err != nil {
		return err
	}

	cfgPath := cfgFile
	if cfgPath == "" && h.ConfigExists() {
		cfgPath = h.ConfigPath()
	}
	manager, err := config.NewManager(cfgPath)
	if err != nil {
		return err
	}
	cfg := manager.Get()

	if cfg.Library != "" {
		// An explicit library root overrides the home default.
		h, err = home.New(cfg.Library)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}
	}

	client := acquire.NewClient(acquire.ClientConfig{
		Timeout:          time.Duration(cfg.Acquire.TimeoutSeconds) * time.Second,
		TransportRetries: cfg.Acquire.TransportRetries,
		Backoff:          time.Duration(cfg.Acquire.BackoffSeconds * float64(time.Second)),
		MaxConnsPerHost:  cfg.Acquire.Workers,
	})

	svc := runctx.New(logger, cfg, h, client)
	ctx = runctx.WithServices(ctx, svc)

	// A run against a long book can outlive a config edit; the values
	// in use are snapshotted in the services, so a reload only takes
	// effect on the next invocation.
	manager.OnChange(func(*config.Config) {
		svc.Logger.Info("config file changed, reloaded values apply to the next run")
	})
	manager.WatchConfig()

	opts := run.Options{
		BookID:    fetchBookID,
		Overwrite: fetchOverwrite,
		Rescan:    fetchRescan,
	}

	summary, err := fetchWithRetry(ctx, src, opts)
	if err != nil {
		svc.Logger.Error("run failed", "error", err)
		return err
	}

	svc.Logger.Info("run complete",
		"book_dir", summary.BookDir,
		"discovered", summary.Discovered,
		"failed", summary.Failed,
		"assembled", summary.Assembled,
		"skipped", summary.Skipped,
	)
	if fetchShowIndex && summary.IndexPath != "" {
		fmt.Printf("index: file://%s\n", summary.IndexPath)
	}
	return nil
}

// fetchWithRetry re-invokes the orchestrator from scratch on fatal
// discovery failures, with a fresh browser session each attempt.
func fetchWithRetry(ctx context.Context, src source.Adapter, opts run.Options) (*run.Summary, error) {
	log := runctx.LoggerFrom(ctx)
	var lastErr error

	for attempt := 1; attempt <= runAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		summary, err := fetchOnce(ctx, src, opts)
		if err == nil {
			return summary, nil
		}
		lastErr = err

		if !errors.Is(err, run.ErrFatal) {
			return summary, err
		}
		log.Error("fatal run error, restarting from scratch",
			"attempt", attempt,
			"max_attempts", runAttempts,
			"error", err,
		)
	}

	return nil, lastErr
}

// fetchOnce runs the orchestrator against a fresh rendering session and
// a fresh acquisition pool, both built from the services on the context.
func fetchOnce(ctx context.Context, src source.Adapter, opts run.Options) (*run.Summary, error) {
	svc := runctx.ServicesFrom(ctx)
	cfg := runctx.ConfigFrom(ctx)
	client := runctx.HTTPClientFrom(ctx)

	normalizer := imaging.New(cfg.Image.PreferredWidth, cfg.Image.JPEGQuality)
	pool := acquire.NewPool(client, normalizer, svc.Logger, acquire.Config{
		Workers:   cfg.Acquire.Workers,
		Attempts:  cfg.Acquire.Attempts,
		Backoff:   time.Duration(cfg.Acquire.BackoffSeconds * float64(time.Second)),
		UserAgent: cfg.Acquire.UserAgent,
	})

	eng, err := browser.NewChrome(ctx, browser.ChromeConfig{
		Headless:    cfg.Browser.Headless,
		UserAgent:   cfg.Acquire.UserAgent,
		StepTimeout: time.Duration(cfg.Navigate.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: start browser: %v", run.ErrFatal, err)
	}
	defer eng.Close()

	return run.New(svc, src, eng, pool, opts).Run(ctx)
}
