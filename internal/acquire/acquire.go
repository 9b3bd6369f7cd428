// Package acquire downloads chapter images concurrently and hands them
// to the normalizer. Acquisition is all-or-nothing per chapter: a
// chapter with even one unrecoverable page is never assembled from a
// partial image set.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/canytam/bindery/internal/imaging"
)

// MaxWorkers is the hard cap on concurrent fetches, further bounded by
// available CPU parallelism.
const MaxWorkers = 20

// maxImageBytes limits a single fetched image payload.
const maxImageBytes = 64 * 1024 * 1024

var (
	// ErrImageMissing indicates an essential image exhausted its
	// retry budget; the chapter must not be assembled.
	ErrImageMissing = errors.New("essential image missing")

	// ErrNoURLs indicates an empty URL list was given.
	ErrNoURLs = errors.New("no image URLs to acquire")
)

// Normalizer converts raw image bytes into a normalized encoded image.
type Normalizer interface {
	Normalize(raw []byte) (imaging.Image, error)
}

// Config holds the acquisition pool parameters.
type Config struct {
	Workers   int           // Worker cap (further limited by MaxWorkers and CPU count)
	Attempts  int           // Per-URL fetch+normalize attempts
	Backoff   time.Duration // Base retry delay, doubles per attempt
	MaxBytes  int64         // Per-image payload cap, default maxImageBytes
	UserAgent string
}

// Pool fetches image URLs concurrently with bounded parallelism.
type Pool struct {
	client     *http.Client
	normalizer Normalizer
	logger     *slog.Logger
	cfg        Config
}

// NewPool creates an acquisition pool sharing the given HTTP client.
func NewPool(client *http.Client, normalizer Normalizer, logger *slog.Logger, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = MaxWorkers
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = maxImageBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		client:     client,
		normalizer: normalizer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Acquire fetches and normalizes every URL. The result order matches
// the input order regardless of completion order. If any URL exhausts
// its attempts the whole call fails with ErrImageMissing and no partial
// result is returned.
func (p *Pool) Acquire(ctx context.Context, urls []string) ([]imaging.Image, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	results := make([]imaging.Image, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit())

	for i, url := range urls {
		g.Go(func() error {
			img, err := p.fetchOne(gctx, url)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrImageMissing, url, err)
			}
			results[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// limit returns the effective worker bound.
func (p *Pool) limit() int {
	limit := p.cfg.Workers
	if limit > MaxWorkers {
		limit = MaxWorkers
	}
	if cpus := runtime.NumCPU(); limit > cpus {
		limit = cpus
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// fetchOne runs the fetch-and-normalize cycle for a single URL with the
// per-URL retry budget. The transport retries transient HTTP statuses
// on its own inside each attempt.
func (p *Pool) fetchOne(ctx context.Context, url string) (imaging.Image, error) {
	var img imaging.Image

	err := retry.Do(
		func() error {
			raw, err := p.fetch(ctx, url)
			if err != nil {
				return err
			}
			img, err = p.normalizer.Normalize(raw)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(p.cfg.Attempts)),
		retry.Delay(p.cfg.Backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			p.logger.Warn("image fetch attempt failed",
				"url", url,
				"attempt", attempt+1,
				"max_attempts", p.cfg.Attempts,
				"error", err,
			)
		}),
	)
	if err != nil {
		return imaging.Image{}, err
	}
	return img, nil
}

// fetch downloads the raw bytes for one image URL.
func (p *Pool) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}
	req.Header.Set("Accept", "image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	// Read one byte past the cap so an over-limit payload is rejected
	// here rather than surfacing as a truncated-image decode error.
	body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > p.cfg.MaxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", p.cfg.MaxBytes)
	}
	return body, nil
}
