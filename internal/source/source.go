// Package source defines the per-site adapter capability surface.
//
// Everything site-specific lives here: landing URLs, markup selectors,
// chapter ordering, extraction strategy chains, and "completed" detection.
// The rest of the pipeline only sees this interface.
package source

import (
	"fmt"
	"sort"
	"sync"

	"github.com/canytam/bindery/internal/extract"
)

// ChapterRef is one chapter as declared by the source: a navigation
// handle (CSS selector that triggers navigation when clicked) and a
// display name, in source-declared order.
type ChapterRef struct {
	Handle string
	Name   string
}

// BookInfo is the book identity derived from the landing page.
type BookInfo struct {
	Title string
	// Completed reports the source's own "finished" status label.
	// Inherently fragile; treated as an adapter capability, never
	// inspected by core code.
	Completed bool
}

// Adapter is the capability surface of one comic source site.
type Adapter interface {
	// Name returns the site tag used in artifact paths.
	Name() string

	// BookURL returns the landing page URL for a book ID.
	BookURL(bookID string) string

	// ParseBook derives the book identity from landing page markup.
	ParseBook(markup string) (BookInfo, error)

	// ChapterListSelector is the region of the landing page holding
	// the chapter list.
	ChapterListSelector() string

	// ParseChapters parses chapter list markup into source-declared order.
	ParseChapters(markup string) ([]ChapterRef, error)

	// NewestFirst reports whether the source declares chapters
	// newest-first, requiring reversal to obtain reading order.
	NewestFirst() bool

	// Strategies is the ordered extraction chain for chapter view markup.
	Strategies() []extract.Strategy

	// ReadySelectors are the elements that must be visible before a
	// chapter view counts as loaded.
	ReadySelectors() []string

	// BackSelector triggers the return to the chapter list.
	BackSelector() string
}

var (
	mu       sync.RWMutex
	adapters = make(map[string]Adapter)
)

// Register makes an adapter available by name. Called from adapter
// package init functions.
func Register(a Adapter) {
	mu.Lock()
	defer mu.Unlock()
	adapters[a.Name()] = a
}

// Get returns the adapter registered under name.
func Get(name string) (Adapter, error) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := adapters[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (available: %v)", name, names())
	}
	return a, nil
}

// Names returns the registered adapter names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return names()
}

func names() []string {
	out := make([]string, 0, len(adapters))
	for name := range adapters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
