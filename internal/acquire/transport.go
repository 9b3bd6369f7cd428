package acquire

import (
	"net/http"
	"time"
)

// Transient HTTP statuses retried at the transport layer. This retry
// budget is independent of the per-URL retry loop in Pool; the two
// layers nest and are configured separately.
var transientStatuses = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// retryTransport retries bodyless requests that draw a transient status,
// with exponential backoff between attempts.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	delay := t.backoff
	for attempt := 0; ; attempt++ {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}

		if _, transient := transientStatuses[resp.StatusCode]; !transient || attempt >= t.retries {
			return resp, nil
		}
		if req.Body != nil && req.Body != http.NoBody {
			return resp, nil // not safely repeatable
		}
		resp.Body.Close()

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}

// ClientConfig configures the pooled, connection-limited HTTP client
// shared by all acquisition workers.
type ClientConfig struct {
	Timeout          time.Duration
	TransportRetries int
	Backoff          time.Duration
	MaxConnsPerHost  int
}

// NewClient builds the acquisition HTTP client. Connection pooling is
// capped so concurrent chapter fetches never exceed the connection
// budget regardless of worker count.
func NewClient(cfg ClientConfig) *http.Client {
	maxConns := cfg.MaxConnsPerHost
	if maxConns <= 0 {
		maxConns = MaxWorkers
	}

	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}

	base := &http.Transport{
		MaxIdleConns:        maxConns,
		MaxIdleConnsPerHost: maxConns / 2,
		MaxConnsPerHost:     maxConns,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &retryTransport{
			base:    base,
			retries: cfg.TransportRetries,
			backoff: backoff,
		},
	}
}
