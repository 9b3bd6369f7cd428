package browser

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultStepTimeout bounds a single navigation or visibility wait.
// Exceeding it aborts only that attempt, never the whole run.
const DefaultStepTimeout = 15 * time.Second

// ChromeConfig configures a headless Chrome session.
type ChromeConfig struct {
	Headless    bool
	UserAgent   string
	StepTimeout time.Duration // Default DefaultStepTimeout
}

// Chrome implements Engine on a chromedp-driven Chrome session.
type Chrome struct {
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	ctx           context.Context
	stepTimeout   time.Duration
}

// NewChrome launches a Chrome session. The caller owns the session and
// must Close it.
func NewChrome(ctx context.Context, cfg ChromeConfig) (*Chrome, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("blink-settings", "imagesEnabled=true"),
		chromedp.WindowSize(1920, 1080),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Starting the browser eagerly surfaces launch failures here
	// instead of on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}

	stepTimeout := cfg.StepTimeout
	if stepTimeout <= 0 {
		stepTimeout = DefaultStepTimeout
	}

	return &Chrome{
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
		ctx:           browserCtx,
		stepTimeout:   stepTimeout,
	}, nil
}

// Navigate implements Engine.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

// Click implements Engine.
func (c *Chrome) Click(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

// Reload implements Engine.
func (c *Chrome) Reload(ctx context.Context) error {
	return c.run(ctx, chromedp.Reload())
}

// WaitVisible implements Engine.
func (c *Chrome) WaitVisible(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// HTML implements Engine.
func (c *Chrome) HTML(ctx context.Context, selector string) (string, error) {
	var markup string
	err := c.run(ctx, chromedp.InnerHTML(selector, &markup, chromedp.ByQuery))
	return markup, err
}

// Location implements Engine.
func (c *Chrome) Location(ctx context.Context) (string, error) {
	var loc string
	err := c.run(ctx, chromedp.Location(&loc))
	return loc, err
}

// Close implements Engine.
func (c *Chrome) Close() error {
	c.browserCancel()
	c.allocCancel()
	return nil
}

// run executes chromedp actions against the session with the per-step
// timeout. chromedp actions must run on the session context, so the
// caller's cancellation is propagated onto it.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, c.stepTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrNavigationTimeout
	}
	return err
}
