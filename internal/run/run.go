// Package run orchestrates a full acquisition run for one book:
// discovery (navigation + extraction) followed by assembly (download +
// normalization + PDF binding) and the archive lifecycle transition.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/canytam/bindery/internal/acquire"
	"github.com/canytam/bindery/internal/book"
	"github.com/canytam/bindery/internal/browser"
	"github.com/canytam/bindery/internal/home"
	"github.com/canytam/bindery/internal/navigate"
	"github.com/canytam/bindery/internal/pdfgen"
	"github.com/canytam/bindery/internal/resolver"
	"github.com/canytam/bindery/internal/runctx"
	"github.com/canytam/bindery/internal/source"
	"github.com/canytam/bindery/internal/webindex"
)

// ErrFatal marks failures that abort the whole run: the book cannot be
// opened or the rendering session cannot be established. Runs are safely
// re-runnable from scratch because resumability rests on artifact
// existence alone.
var ErrFatal = errors.New("fatal run error")

// Options selects the work for one run.
type Options struct {
	BookID    string
	Overwrite bool // Force re-discovery and re-assembly
	Rescan    bool // Reserved for revisiting archived books; currently a no-op
}

// Summary reports what a run accomplished.
type Summary struct {
	Book       book.Book
	BookDir    string
	IndexPath  string
	Discovered int
	Failed     int
	Assembled  int
	Skipped    int
	Results    []book.ChapterResult
}

// Runner sequences one book through discovery, assembly, and archival.
type Runner struct {
	svc  *runctx.Services
	src  source.Adapter
	eng  browser.Engine
	pool *acquire.Pool
	opts Options
}

// New creates a Runner. The engine is owned by the caller; the Runner
// is its sole user for the duration of the run.
func New(svc *runctx.Services, src source.Adapter, eng browser.Engine, pool *acquire.Pool, opts Options) *Runner {
	return &Runner{svc: svc, src: src, eng: eng, pool: pool, opts: opts}
}

// Run executes the full pipeline. It returns ErrFatal-wrapped errors
// for conditions that abort the run; per-chapter failures are collected
// in the Summary instead.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	log := r.svc.Logger.With("source", r.src.Name(), "book_id", r.opts.BookID)

	b, err := r.openBook(ctx)
	if err != nil {
		return nil, err
	}
	bookDir := b.DirName()
	log = log.With("book_dir", bookDir)
	log.Info("opened book", "title", b.Title, "completed", b.Completed)

	summary := &Summary{Book: b, BookDir: bookDir}

	// A book already promoted to the completed root needs no work.
	if b.Completed && r.svc.Home.Archived(bookDir) {
		log.Info("book already archived, nothing to do")
		return summary, nil
	}

	if err := r.svc.Home.EnsureBookDirs(r.src.Name(), bookDir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFatal, err)
	}

	chapters, err := r.resolveChapters(ctx)
	if err != nil {
		return nil, err
	}

	r.discover(ctx, log, summary, chapters, bookDir)
	r.assemble(ctx, log, summary, chapters, bookDir)

	indexPath, err := webindex.Generate(r.svc.Home.PDFDir(r.src.Name(), bookDir), log)
	if err != nil {
		log.Error("index generation failed", "error", err)
	} else {
		summary.IndexPath = indexPath
	}

	if b.Completed {
		if !r.archiveReady(summary, chapters, bookDir) {
			log.Info("completed book has unfinished chapters, archive deferred",
				"failed", summary.Failed,
				"skipped", summary.Skipped,
			)
			return summary, nil
		}
		if err := r.svc.Home.Archive(r.src.Name(), bookDir); err != nil {
			return summary, fmt.Errorf("archive book: %w", err)
		}
		summary.IndexPath = r.relocatedIndexPath(summary.IndexPath, bookDir)
		log.Info("book archived", "path", r.svc.Home.CompletedBookDir(bookDir))
	}

	return summary, nil
}

// openBook navigates to the landing page and derives the book identity.
// Failures here are fatal: without the landing page there is no work.
func (r *Runner) openBook(ctx context.Context) (book.Book, error) {
	url := r.src.BookURL(r.opts.BookID)
	if err := r.eng.Navigate(ctx, url); err != nil {
		return book.Book{}, fmt.Errorf("%w: open %s: %v", ErrFatal, url, err)
	}

	markup, err := r.eng.HTML(ctx, "html")
	if err != nil {
		return book.Book{}, fmt.Errorf("%w: read landing page: %v", ErrFatal, err)
	}

	info, err := r.src.ParseBook(markup)
	if err != nil {
		return book.Book{}, fmt.Errorf("%w: %v", ErrFatal, err)
	}

	return book.Book{
		ID:        r.opts.BookID,
		Title:     info.Title,
		Site:      r.src.Name(),
		Completed: info.Completed,
	}, nil
}

// resolveChapters reads the chapter list region and parses it into
// reading order.
func (r *Runner) resolveChapters(ctx context.Context) ([]book.Chapter, error) {
	markup, err := r.eng.HTML(ctx, r.src.ChapterListSelector())
	if err != nil {
		return nil, fmt.Errorf("%w: read chapter list: %v", ErrFatal, err)
	}

	chapters, err := resolver.All(markup, r.src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFatal, err)
	}
	return chapters, nil
}

// discover drives the navigation controller across pending chapters.
func (r *Runner) discover(ctx context.Context, log *slog.Logger, summary *Summary, chapters []book.Chapter, bookDir string) {
	pending := resolver.Pending(chapters, r.src.Name(), bookDir, r.svc.Home, r.opts.Overwrite)
	if len(pending) == 0 {
		log.Info("no chapters pending discovery")
		return
	}
	log.Info("discovering chapters", "pending", len(pending), "total", len(chapters))

	ctrl := navigate.NewController(
		r.eng, r.src, r.svc.Home, r.svc.Logger, bookDir,
		r.svc.Config.Navigate.Attempts,
	)
	results := ctrl.Run(ctx, pending)

	for _, res := range results {
		switch res.Status {
		case book.StatusDiscovered:
			summary.Discovered++
		case book.StatusFailed:
			summary.Failed++
		}
	}
	summary.Results = results
}

// assemble produces a PDF for every chapter that has a URL list artifact
// but no document artifact (or when overwrite forces re-assembly). A
// chapter whose acquisition fails is skipped and revisited next run.
func (r *Runner) assemble(ctx context.Context, log *slog.Logger, summary *Summary, chapters []book.Chapter, bookDir string) {
	site := r.src.Name()

	for _, ch := range chapters {
		if !r.svc.Home.ImageListExists(site, bookDir, ch) {
			continue
		}
		if !r.opts.Overwrite && r.svc.Home.PDFExists(site, bookDir, ch) {
			continue
		}

		urls, err := readImageList(r.svc.Home.ImageListPath(site, bookDir, ch))
		if err != nil {
			log.Error("unreadable image list", "chapter", ch.Index, "error", err)
			summary.Skipped++
			continue
		}

		log.Info("assembling chapter", "chapter", ch.Index, "name", ch.Name, "images", len(urls))

		images, err := r.pool.Acquire(ctx, urls)
		if err != nil {
			log.Error("chapter acquisition failed", "chapter", ch.Index, "name", ch.Name, "error", err)
			summary.Skipped++
			continue
		}

		doc, err := pdfgen.Assemble(images)
		if err != nil {
			log.Error("chapter assembly failed", "chapter", ch.Index, "name", ch.Name, "error", err)
			summary.Skipped++
			continue
		}

		pdfPath := r.svc.Home.PDFPath(site, bookDir, ch)
		if err := home.WriteArtifact(pdfPath, doc); err != nil {
			log.Error("pdf write failed", "chapter", ch.Index, "path", pdfPath, "error", err)
			summary.Skipped++
			continue
		}

		log.Info("chapter assembled", "chapter", ch.Index, "path", pdfPath)
		summary.Assembled++
	}
}

// archiveReady reports whether the book may leave the active root: the
// run saw no failed or skipped chapters and every chapter holds both
// artifacts. Archival moves the whole book tree, so a single unfinished
// chapter defers it until a later clean run.
func (r *Runner) archiveReady(summary *Summary, chapters []book.Chapter, bookDir string) bool {
	if summary.Failed > 0 || summary.Skipped > 0 {
		return false
	}

	site := r.src.Name()
	for _, ch := range chapters {
		if !r.svc.Home.ImageListExists(site, bookDir, ch) {
			return false
		}
		if !r.svc.Home.PDFExists(site, bookDir, ch) {
			return false
		}
	}
	return true
}

// relocatedIndexPath rewrites the generated index path after archival.
func (r *Runner) relocatedIndexPath(indexPath, bookDir string) string {
	if indexPath == "" {
		return ""
	}
	active := r.svc.Home.BookDir(r.src.Name(), bookDir)
	archived := r.svc.Home.CompletedBookDir(bookDir)
	return strings.Replace(indexPath, active, archived, 1)
}

// readImageList loads a URL list artifact, one absolute URL per line.
func readImageList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs in %s", path)
	}
	return urls, nil
}
