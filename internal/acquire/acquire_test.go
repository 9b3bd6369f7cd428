package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/canytam/bindery/internal/imaging"
)

// stubNormalizer passes the raw payload through so tests can assert on
// page content without real image encoding.
type stubNormalizer struct {
	failOn string
}

func (s stubNormalizer) Normalize(raw []byte) (imaging.Image, error) {
	if s.failOn != "" && strings.Contains(string(raw), s.failOn) {
		return imaging.Image{}, fmt.Errorf("%w: stub", imaging.ErrDecode)
	}
	return imaging.Image{Data: raw, Width: 1, Height: 1}, nil
}

func newPool(client *http.Client, n Normalizer, cfg Config) *Pool {
	return NewPool(client, n, slog.New(slog.NewTextHandler(&strings.Builder{}, nil)), cfg)
}

func fastConfig() Config {
	return Config{Workers: 4, Attempts: 2, Backoff: time.Millisecond}
}

func TestPool_Acquire(t *testing.T) {
	t.Run("preserves input order under jitter", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
			fmt.Fprintf(w, "page %s", r.URL.Path)
		}))
		defer srv.Close()

		urls := make([]string, 8)
		for i := range urls {
			urls[i] = fmt.Sprintf("%s/%d", srv.URL, i)
		}

		pool := newPool(srv.Client(), stubNormalizer{}, fastConfig())
		images, err := pool.Acquire(context.Background(), urls)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(images) != len(urls) {
			t.Fatalf("expected %d images, got %d", len(urls), len(images))
		}
		for i, img := range images {
			if want := fmt.Sprintf("page /%d", i); string(img.Data) != want {
				t.Errorf("position %d holds %q, want %q", i, img.Data, want)
			}
		}
	})

	t.Run("empty url list is an error", func(t *testing.T) {
		pool := newPool(http.DefaultClient, stubNormalizer{}, fastConfig())
		if _, err := pool.Acquire(context.Background(), nil); !errors.Is(err, ErrNoURLs) {
			t.Errorf("expected ErrNoURLs, got %v", err)
		}
	})

	t.Run("one exhausted url fails the whole batch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/2" {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, "ok")
		}))
		defer srv.Close()

		urls := []string{srv.URL + "/1", srv.URL + "/2", srv.URL + "/3"}
		pool := newPool(srv.Client(), stubNormalizer{}, fastConfig())

		images, err := pool.Acquire(context.Background(), urls)
		if !errors.Is(err, ErrImageMissing) {
			t.Fatalf("expected ErrImageMissing, got %v", err)
		}
		if images != nil {
			t.Error("no partial result may be returned")
		}
	})

	t.Run("corrupt payload fails after retries", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			fmt.Fprint(w, "garbage")
		}))
		defer srv.Close()

		pool := newPool(srv.Client(), stubNormalizer{failOn: "garbage"}, fastConfig())
		if _, err := pool.Acquire(context.Background(), []string{srv.URL}); !errors.Is(err, ErrImageMissing) {
			t.Fatalf("expected ErrImageMissing, got %v", err)
		}
		if got := hits.Load(); got != 2 {
			t.Errorf("expected 2 attempts, got %d", got)
		}
	})

	t.Run("recovers when a retry succeeds", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, "ok")
		}))
		defer srv.Close()

		pool := newPool(srv.Client(), stubNormalizer{}, fastConfig())
		images, err := pool.Acquire(context.Background(), []string{srv.URL})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(images[0].Data) != "ok" {
			t.Errorf("expected recovered payload, got %q", images[0].Data)
		}
	})

	t.Run("oversized payload is rejected outright", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(make([]byte, 200))
		}))
		defer srv.Close()

		cfg := fastConfig()
		cfg.MaxBytes = 100
		pool := newPool(srv.Client(), stubNormalizer{}, cfg)

		_, err := pool.Acquire(context.Background(), []string{srv.URL})
		if !errors.Is(err, ErrImageMissing) {
			t.Fatalf("expected ErrImageMissing, got %v", err)
		}
		if !strings.Contains(err.Error(), "exceeds 100 bytes") {
			t.Errorf("error does not name the size limit: %v", err)
		}
	})

	t.Run("payload at the cap passes through intact", func(t *testing.T) {
		payload := strings.Repeat("x", 100)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, payload)
		}))
		defer srv.Close()

		cfg := fastConfig()
		cfg.MaxBytes = 100
		pool := newPool(srv.Client(), stubNormalizer{}, cfg)

		images, err := pool.Acquire(context.Background(), []string{srv.URL})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(images[0].Data) != payload {
			t.Error("payload at the cap must not be truncated")
		}
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "ok")
		}))
		defer srv.Close()

		pool := newPool(srv.Client(), stubNormalizer{}, fastConfig())
		if _, err := pool.Acquire(ctx, []string{srv.URL}); err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}

func TestPool_Limit(t *testing.T) {
	tests := []struct {
		name    string
		workers int
	}{
		{"zero defaults", 0},
		{"over the cap", 500},
		{"modest", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newPool(http.DefaultClient, stubNormalizer{}, Config{Workers: tt.workers})
			limit := pool.limit()
			if limit < 1 || limit > MaxWorkers {
				t.Errorf("limit() = %d, want within [1, %d]", limit, MaxWorkers)
			}
			if tt.workers > 0 && tt.workers < MaxWorkers && limit > tt.workers {
				t.Errorf("limit() = %d exceeds configured %d", limit, tt.workers)
			}
		})
	}
}

func TestRetryTransport(t *testing.T) {
	t.Run("retries transient statuses", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, "ok")
		}))
		defer srv.Close()

		client := &http.Client{Transport: &retryTransport{
			base:    http.DefaultTransport,
			retries: 5,
			backoff: time.Millisecond,
		}}

		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		if got := hits.Load(); got != 3 {
			t.Errorf("expected 3 round trips, got %d", got)
		}
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		client := &http.Client{Transport: &retryTransport{
			base:    http.DefaultTransport,
			retries: 2,
			backoff: time.Millisecond,
		}}

		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusTooManyRequests {
			t.Errorf("status = %d, want 429", resp.StatusCode)
		}
		if got := hits.Load(); got != 3 {
			t.Errorf("expected initial try plus 2 retries, got %d", got)
		}
	})

	t.Run("does not retry permanent statuses", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			http.NotFound(w, r)
		}))
		defer srv.Close()

		client := &http.Client{Transport: &retryTransport{
			base:    http.DefaultTransport,
			retries: 5,
			backoff: time.Millisecond,
		}}

		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer resp.Body.Close()

		if got := hits.Load(); got != 1 {
			t.Errorf("expected a single round trip, got %d", got)
		}
	})
}
