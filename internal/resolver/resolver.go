// Package resolver turns chapter list markup into ordered chapters and
// filters out the ones already discovered on disk.
package resolver

import (
	"fmt"

	"github.com/canytam/bindery/internal/book"
	"github.com/canytam/bindery/internal/home"
	"github.com/canytam/bindery/internal/source"
)

// All parses the chapter list markup and returns every chapter in
// reading order with 1-based indices assigned. Sources that declare
// chapters newest-first are reversed to obtain reading order.
func All(markup string, src source.Adapter) ([]book.Chapter, error) {
	refs, err := src.ParseChapters(markup)
	if err != nil {
		return nil, fmt.Errorf("resolve chapters: %w", err)
	}

	if src.NewestFirst() {
		for i, j := 0, len(refs)-1; i < j; i, j = i+1, j-1 {
			refs[i], refs[j] = refs[j], refs[i]
		}
	}

	chapters := make([]book.Chapter, len(refs))
	for i, ref := range refs {
		chapters[i] = book.Chapter{
			Index:  i + 1,
			Name:   ref.Name,
			Handle: ref.Handle,
			Status: book.StatusPending,
		}
	}
	return chapters, nil
}

// Pending filters chapters down to the ones still requiring discovery.
// A chapter whose image URL list artifact exists is considered handled
// unless overwrite is set; artifact existence is the only resumability
// state, so identical markup plus identical on-disk state always yields
// the identical pending list.
func Pending(chapters []book.Chapter, site, bookDir string, homeDir *home.Dir, overwrite bool) []book.Chapter {
	var pending []book.Chapter
	for _, ch := range chapters {
		if !overwrite && homeDir.ImageListExists(site, bookDir, ch) {
			continue
		}
		pending = append(pending, ch)
	}
	return pending
}

// Resolve parses markup and returns only the chapters pending discovery.
func Resolve(markup string, src source.Adapter, homeDir *home.Dir, bookDir string, overwrite bool) ([]book.Chapter, error) {
	chapters, err := All(markup, src)
	if err != nil {
		return nil, err
	}
	return Pending(chapters, src.Name(), bookDir, homeDir, overwrite), nil
}
