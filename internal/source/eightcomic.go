package source

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/canytam/bindery/internal/extract"
)

// completedLabel is the literal status text 8comic and xmanhua use for
// finished books ("completed" in traditional Chinese).
const completedLabel = "完結"

// EightComic scrapes www.8comic.com. Chapter links carry element IDs and
// navigation is click-driven within a single rendered session.
type EightComic struct{}

func init() {
	Register(EightComic{})
}

// Name implements Adapter.
func (EightComic) Name() string { return "8comic" }

// BookURL implements Adapter.
func (EightComic) BookURL(bookID string) string {
	return fmt.Sprintf("https://www.8comic.com/html/%s.html", bookID)
}

// ParseBook implements Adapter. The title lives in a head meta tag.
func (EightComic) ParseBook(markup string) (BookInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return BookInfo{}, fmt.Errorf("parse landing page: %w", err)
	}

	info := BookInfo{Title: "Unknown Comic"}
	if name, ok := doc.Find("meta[name='name']").Attr("content"); ok {
		if name = strings.TrimSpace(name); name != "" {
			info.Title = name
		}
	}
	info.Completed = strings.Contains(doc.Find("div.item-col, span.label-status").Text(), completedLabel)
	return info, nil
}

// ChapterListSelector implements Adapter.
func (EightComic) ChapterListSelector() string { return "div#chapters" }

// ParseChapters implements Adapter. Chapters are anchors carrying an id
// attribute; the id doubles as the click handle.
func (EightComic) ParseChapters(markup string) ([]ChapterRef, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse chapter list: %w", err)
	}

	var refs []ChapterRef
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		id, ok := sel.Attr("id")
		if !ok {
			return
		}
		refs = append(refs, ChapterRef{
			Handle: "a#" + id,
			Name:   strings.TrimSpace(sel.Text()),
		})
	})
	return refs, nil
}

// NewestFirst implements Adapter. 8comic declares chapters in reading order.
func (EightComic) NewestFirst() bool { return false }

// Strategies implements Adapter.
func (EightComic) Strategies() []extract.Strategy {
	return []extract.Strategy{
		{Selector: "div#comics-pics img[src]", Attr: "src"},
		{Selector: "img[data-src]", Attr: "data-src"},
		{Selector: "source[srcset]", Attr: "srcset", Srcset: true},
	}
}

// ReadySelectors implements Adapter. Both the end-of-chapter marker and
// at least one page image must be visible before extraction.
func (EightComic) ReadySelectors() []string {
	return []string{"div.comics-end", "div#comics-pics img"}
}

// BackSelector implements Adapter.
func (EightComic) BackSelector() string { return "a.view-back" }
