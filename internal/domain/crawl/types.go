package crawl

import (
	"context"
	"iter"
	"net/url"

	"searxng-mcp/internal/domain/fetch"
)

const (
	DefaultSubpageLimit = 10
	MaxSubpageLimit     = 20

	DefaultWorkers = 4
	MaxWorkers     = 5
)

// LinkCandidate is one outbound link found on the root page.
type LinkCandidate struct {
	URL        string // absolute, fragment stripped
	AnchorText string // raw, untrimmed
	Order      int    // position of first appearance in document order
}

// LinkExtractor yields the outbound links of an HTML document. The sequence
// must be finite and restartable.
type LinkExtractor interface {
	Links(html string, base *url.URL) iter.Seq[LinkCandidate]
}

// Policy decides whether a candidate may be fetched.
type Policy interface {
	Allowed(ctx context.Context, u string) bool
}

// PolicyFactory builds a Policy scoped to a single crawl.
type PolicyFactory interface {
	NewPolicy(headers map[string]string) Policy
}

// Request is the caller-facing crawl request. SubpageLimit is a pointer so an
// absent value can be told apart from zero.
type Request struct {
	URL              string            `json:"url"`
	Filters          []string          `json:"filters,omitempty"`
	Headers          map[string]string `json:"headers,omitempty"`
	SubpageLimit     *int              `json:"subpage_limit,omitempty"`
	MaxContentLength int               `json:"max_content_length,omitempty"`
}

// Job is a validated crawl, ready for the engine.
type Job struct {
	Root         fetch.Request
	Filters      []string
	SubpageLimit int
}

// SubPage pairs a fetched subpage with the anchor text that qualified it.
type SubPage struct {
	AnchorText string     `json:"anchor_text"`
	Page       fetch.Page `json:"page"`
}

// Result aggregates the root page and its selected subpages in selection order.
type Result struct {
	Root       fetch.Page `json:"root"`
	Pages      []SubPage  `json:"pages"`
	Discovered int        `json:"discovered"`
	Matched    int        `json:"matched"`
	Fetched    int        `json:"fetched"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
}
