package linkextract

import (
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"searxng-mcp/internal/domain/crawl"
)

var skippedSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// Extractor finds the outbound anchors of an HTML document.
type Extractor struct{}

var _ crawl.LinkExtractor = (*Extractor)(nil)

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Links yields every distinct http(s) anchor target of markup in document
// order. Parsing happens on each range, so the sequence can be walked again.
func (e *Extractor) Links(markup string, base *url.URL) iter.Seq[crawl.LinkCandidate] {
	return func(yield func(crawl.LinkCandidate) bool) {
		if base == nil {
			return
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
		if err != nil {
			log.Debug().Err(err).Str("base", base.String()).Msg("link extraction parse failed")
			return
		}

		docBase := documentBase(doc, base)
		self, _ := crawl.NormalizeURL(docBase.String())
		seen := make(map[string]struct{})
		order := 0

		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			target, ok := resolve(docBase, href)
			if !ok {
				return true
			}

			key, err := crawl.NormalizeURL(target.String())
			if err != nil {
				return true
			}
			// A fragment pointing back into this document is not a new page.
			if key == self && strings.Contains(href, "#") {
				return true
			}
			if _, dup := seen[key]; dup {
				return true
			}
			seen[key] = struct{}{}

			candidate := crawl.LinkCandidate{URL: target.String(), AnchorText: s.Text(), Order: order}
			order++
			return yield(candidate)
		})
	}
}

// documentBase honours a <base href> element, resolved against the fetch URL.
func documentBase(doc *goquery.Document, fallback *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return fallback
	}
	resolved, err := fallback.Parse(strings.TrimSpace(href))
	if err != nil {
		return fallback
	}
	scheme := strings.ToLower(resolved.Scheme)
	if scheme != "http" && scheme != "https" {
		return fallback
	}
	return resolved
}

func resolve(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil, false
	}
	lowered := strings.ToLower(href)
	for _, prefix := range skippedSchemes {
		if strings.HasPrefix(lowered, prefix) {
			return nil, false
		}
	}

	target, err := base.Parse(href)
	if err != nil {
		return nil, false
	}
	scheme := strings.ToLower(target.Scheme)
	if (scheme != "http" && scheme != "https") || target.Host == "" {
		return nil, false
	}
	target.Fragment = ""
	target.RawFragment = ""
	return target, true
}
