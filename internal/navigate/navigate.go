// Package navigate drives the rendering engine through chapter
// discovery: navigate to a chapter, extract its image URLs, persist the
// URL list artifact, and return to the chapter list.
//
// A rendered session has no internal parallelism, so chapters are
// processed strictly sequentially with exactly one navigation in flight.
package navigate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avast/retry-go/v4"

	"github.com/canytam/bindery/internal/book"
	"github.com/canytam/bindery/internal/browser"
	"github.com/canytam/bindery/internal/extract"
	"github.com/canytam/bindery/internal/home"
	"github.com/canytam/bindery/internal/source"
)

// ErrNoImages indicates extraction yielded no references for a chapter.
var ErrNoImages = errors.New("no images extracted")

// Controller walks pending chapters through the per-chapter state
// machine: navigating, extracting, persisted (or failed).
type Controller struct {
	eng      browser.Engine
	src      source.Adapter
	home     *home.Dir
	logger   *slog.Logger
	bookDir  string
	attempts int
}

// NewController creates a Controller for one book. attempts bounds
// navigation retries per chapter.
func NewController(eng browser.Engine, src source.Adapter, homeDir *home.Dir, logger *slog.Logger, bookDir string, attempts int) *Controller {
	if attempts <= 0 {
		attempts = 3
	}
	return &Controller{
		eng:      eng,
		src:      src,
		home:     homeDir,
		logger:   logger.With("book_dir", bookDir),
		bookDir:  bookDir,
		attempts: attempts,
	}
}

// Run processes the pending chapters in order and returns one result
// per chapter. A failed chapter is logged and skipped; it never aborts
// the remaining chapters.
func (c *Controller) Run(ctx context.Context, chapters []book.Chapter) []book.ChapterResult {
	results := make([]book.ChapterResult, 0, len(chapters))
	for _, ch := range chapters {
		if err := ctx.Err(); err != nil {
			results = append(results, book.ChapterResult{Chapter: ch, Status: book.StatusFailed, Err: err})
			continue
		}

		result := c.processChapter(ctx, ch)
		if result.Err != nil {
			c.logger.Error("chapter discovery failed",
				"chapter", ch.Index,
				"name", ch.Name,
				"error", result.Err,
			)
		}
		results = append(results, result)
	}
	return results
}

// processChapter runs one chapter through navigation, extraction, and
// persistence.
func (c *Controller) processChapter(ctx context.Context, ch book.Chapter) book.ChapterResult {
	log := c.logger.With("chapter", ch.Index, "name", ch.Name)
	log.Info("processing chapter")

	if err := c.navigateTo(ctx, ch); err != nil {
		return book.ChapterResult{Chapter: ch, Status: book.StatusFailed, Err: fmt.Errorf("navigate: %w", err)}
	}

	urls, err := c.extractImages(ctx)
	if err != nil {
		return book.ChapterResult{Chapter: ch, Status: book.StatusFailed, Err: err}
	}
	if len(urls) == 0 {
		return book.ChapterResult{Chapter: ch, Status: book.StatusFailed, Err: ErrNoImages}
	}

	path := c.home.ImageListPath(c.src.Name(), c.bookDir, ch)
	if err := home.WriteArtifact(path, []byte(strings.Join(urls, "\n")+"\n")); err != nil {
		return book.ChapterResult{Chapter: ch, Status: book.StatusFailed, Err: err}
	}
	log.Info("saved image list", "images", len(urls), "path", path)

	// Return to the chapter list so the next handle is clickable.
	if err := c.eng.Click(ctx, c.src.BackSelector()); err != nil {
		log.Warn("return to chapter list failed", "error", err)
	}

	return book.ChapterResult{Chapter: ch, Status: book.StatusDiscovered, Images: len(urls)}
}

// navigateTo clicks the chapter handle and waits for the view to be
// ready, reloading and retrying on navigation timeouts.
func (c *Controller) navigateTo(ctx context.Context, ch book.Chapter) error {
	return retry.Do(
		func() error {
			if err := c.eng.Click(ctx, ch.Handle); err != nil {
				return err
			}
			for _, sel := range c.src.ReadySelectors() {
				if err := c.eng.WaitVisible(ctx, sel); err != nil {
					return err
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.attempts)),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, browser.ErrNavigationTimeout)
		}),
		retry.OnRetry(func(attempt uint, err error) {
			c.logger.Warn("retrying chapter navigation",
				"chapter", ch.Index,
				"attempt", attempt+1,
				"max_attempts", c.attempts,
				"error", err,
			)
			if reloadErr := c.eng.Reload(ctx); reloadErr != nil {
				c.logger.Warn("reload failed", "chapter", ch.Index, "error", reloadErr)
			}
		}),
		retry.LastErrorOnly(true),
	)
}

// extractImages reads the rendered chapter view and applies the
// adapter's extraction strategy chain.
func (c *Controller) extractImages(ctx context.Context) ([]string, error) {
	markup, err := c.eng.HTML(ctx, "body")
	if err != nil {
		return nil, fmt.Errorf("read chapter view: %w", err)
	}

	base, err := c.eng.Location(ctx)
	if err != nil {
		return nil, fmt.Errorf("read location: %w", err)
	}

	urls, err := extract.Images(markup, base, c.src.Strategies())
	if err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}
	return urls, nil
}
