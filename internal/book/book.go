// Package book provides shared domain types used across multiple packages.
// This package has no dependencies on other bindery packages to avoid import cycles.
package book

import (
	"fmt"
	"strings"
)

// ChapterStatus indicates where a chapter sits in the discovery lifecycle.
type ChapterStatus string

const (
	// StatusPending indicates the chapter has not been visited yet.
	StatusPending ChapterStatus = "pending"
	// StatusDiscovered indicates the chapter's image URL list was persisted.
	StatusDiscovered ChapterStatus = "discovered"
	// StatusFailed indicates navigation or extraction failed for the chapter.
	StatusFailed ChapterStatus = "failed"
)

// Book identifies one comic on a source site.
type Book struct {
	ID        string // Source-assigned identifier
	Title     string // Display title scraped from the landing page
	Site      string // Source site tag, e.g. "8comic"
	Completed bool   // Source reports the book as finished
}

// DirName returns the filesystem-safe directory name for the book.
// Title and ID together form the stable key for all on-disk artifacts.
func (b Book) DirName() string {
	return fmt.Sprintf("%s_%s", Sanitize(b.Title), b.ID)
}

// Chapter is the smallest unit of discovery and assembly.
type Chapter struct {
	Index  int    // 1-based reading-order index, stable across runs
	Name   string // Display name scraped from the chapter list
	Handle string // Navigation handle: a CSS selector used to trigger navigation
	Status ChapterStatus
}

// ChapterResult records the outcome of processing one chapter.
// Failures are data, not control flow: the orchestrator aggregates
// these instead of aborting on the first bad chapter.
type ChapterResult struct {
	Chapter Chapter
	Status  ChapterStatus
	Images  int   // Number of image URLs persisted
	Err     error // Cause when Status is StatusFailed
}

// Sanitize strips characters that are unsafe in file names.
func Sanitize(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	cleaned := replacer.Replace(name)
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.Trim(cleaned, ".")
	return cleaned
}
