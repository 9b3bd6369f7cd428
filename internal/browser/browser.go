// Package browser wraps the external rendering engine behind a narrow
// capability interface. Core packages never reason about rendering
// internals, only about navigation, clicks, visibility waits, and
// reading rendered markup.
package browser

import (
	"context"
	"errors"
)

// ErrNavigationTimeout is returned when a navigation or visibility wait
// exceeds its per-attempt timeout. Callers treat it as retryable.
var ErrNavigationTimeout = errors.New("navigation timed out")

// Engine is the capability surface the pipeline consumes from a rendered
// browsing session. A session has no internal parallelism: exactly one
// call may be in flight at a time.
type Engine interface {
	// Navigate loads the given URL.
	Navigate(ctx context.Context, url string) error

	// Click activates the element matching the selector.
	Click(ctx context.Context, selector string) error

	// Reload reloads the current view.
	Reload(ctx context.Context) error

	// WaitVisible blocks until the element matching the selector is
	// visible, or the attempt times out.
	WaitVisible(ctx context.Context, selector string) error

	// HTML returns the rendered inner HTML of the region matching the
	// selector.
	HTML(ctx context.Context, selector string) (string, error)

	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)

	// Close tears down the session.
	Close() error
}
