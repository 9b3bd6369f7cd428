package source

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/canytam/bindery/internal/extract"
)

// XManhua scrapes www.xmanhua.com. The chapter list is declared
// newest-first and chapter anchors are addressed by href.
type XManhua struct{}

func init() {
	Register(XManhua{})
}

// Name implements Adapter.
func (XManhua) Name() string { return "xmanhua" }

// BookURL implements Adapter.
func (XManhua) BookURL(bookID string) string {
	return fmt.Sprintf("https://www.xmanhua.com/%s/", bookID)
}

// ParseBook implements Adapter.
func (XManhua) ParseBook(markup string) (BookInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return BookInfo{}, fmt.Errorf("parse landing page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("p.detail-info-title").First().Text())
	if title == "" {
		return BookInfo{}, fmt.Errorf("landing page has no detail-info-title")
	}

	return BookInfo{
		Title:     title,
		Completed: strings.Contains(doc.Find("p.detail-info-tip").Text(), completedLabel),
	}, nil
}

// ChapterListSelector implements Adapter.
func (XManhua) ChapterListSelector() string { return "body" }

// ParseChapters implements Adapter. Each anchor wraps the chapter name
// plus a decorative span that must be stripped before reading the text.
func (XManhua) ParseChapters(markup string) ([]ChapterRef, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse chapter list: %w", err)
	}

	var refs []ChapterRef
	doc.Find("a.detail-list-form-item").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		clone := sel.Clone()
		clone.Find("span").Remove()
		refs = append(refs, ChapterRef{
			Handle: fmt.Sprintf(`a[href=%q]`, href),
			Name:   strings.TrimSpace(clone.Text()),
		})
	})
	return refs, nil
}

// NewestFirst implements Adapter. xmanhua lists the latest chapter first.
func (XManhua) NewestFirst() bool { return true }

// Strategies implements Adapter.
func (XManhua) Strategies() []extract.Strategy {
	return []extract.Strategy{
		{Selector: "div#comics-pics img[src]", Attr: "src"},
		{Selector: "img[data-src]", Attr: "data-src"},
		{Selector: "source[srcset]", Attr: "srcset", Srcset: true},
	}
}

// ReadySelectors implements Adapter.
func (XManhua) ReadySelectors() []string {
	return []string{"div.comics-end"}
}

// BackSelector implements Adapter.
func (XManhua) BackSelector() string { return "a.view-back" }
