// Package extract recovers image source URLs from rendered chapter markup.
//
// Comic sites load page images in inconsistent ways (direct src, lazy
// data-src, srcset, site-specific encoded attributes), so extraction runs
// an ordered chain of strategies and stops at the first one that yields
// any references.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy describes one way of locating image references in markup.
type Strategy struct {
	// Selector matches elements carrying an image reference.
	Selector string
	// Attr is the attribute holding the reference.
	Attr string
	// Srcset indicates the attribute holds a srcset value, of which
	// only the first candidate URL is taken.
	Srcset bool
}

// DefaultStrategies is the fallback chain used when a source adapter
// supplies no chain of its own.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Selector: "img[src]", Attr: "src"},
		{Selector: "img[data-src]", Attr: "data-src"},
		{Selector: "source[srcset]", Attr: "srcset", Srcset: true},
	}
}

// Images applies the strategy chain to the given markup and returns the
// ordered, deduplicated set of absolute image URLs.
//
// An empty result is not an error; the caller decides whether an empty
// set is fatal for the chapter.
func Images(markup, baseURL string, strategies []Strategy) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	var refs []string
	for _, s := range strategies {
		doc.Find(s.Selector).Each(func(_ int, sel *goquery.Selection) {
			raw, ok := sel.Attr(s.Attr)
			if !ok {
				return
			}
			if s.Srcset {
				raw = firstSrcsetCandidate(raw)
			}
			if normalized, ok := Normalize(raw, base); ok {
				refs = append(refs, normalized)
			}
		})
		if len(refs) > 0 {
			break
		}
	}

	return dedup(refs), nil
}

// Normalize cleans a raw attribute value into an absolute image URL:
// the query string is dropped, percent-escapes decoded, protocol-relative
// references upgraded to the page scheme, and relative references
// resolved against the page URL.
func Normalize(raw string, base *url.URL) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[:i]
	}

	// PathUnescape, not QueryUnescape: a literal + in an image path
	// must survive decoding.
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	if raw == "" {
		return "", false
	}

	switch {
	case strings.HasPrefix(raw, "//"):
		scheme := base.Scheme
		if scheme == "" {
			scheme = "https"
		}
		raw = scheme + ":" + raw
	case !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://"):
		ref, err := url.Parse(raw)
		if err != nil {
			return "", false
		}
		raw = base.ResolveReference(ref).String()
	}

	return raw, true
}

// firstSrcsetCandidate returns the URL of the first srcset entry.
func firstSrcsetCandidate(srcset string) string {
	first := srcset
	if i := strings.Index(srcset, ","); i >= 0 {
		first = srcset[:i]
	}
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// dedup removes duplicates preserving first-occurrence order.
func dedup(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0]
	for _, r := range refs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
