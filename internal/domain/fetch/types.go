package fetch

// MaxContentCeiling is the hard upper bound on returned content, in characters.
const MaxContentCeiling = 1 << 20

// Request describes a single page fetch. MaxContentLength is in characters;
// zero means "up to MaxContentCeiling".
type Request struct {
	URL              string
	Headers          map[string]string
	MaxContentLength int
}

// Page is the outcome of one fetch. A failed fetch still yields a Page, with
// Error populated and Content empty.
type Page struct {
	URL           string `json:"url"`
	FinalURL      string `json:"final_url,omitempty"`
	Status        int    `json:"status"`
	ContentType   string `json:"content_type,omitempty"`
	Content       string `json:"content"`
	ContentLength int    `json:"content_length"`
	Truncated     bool   `json:"truncated"`
	Error         string `json:"error,omitempty"`
	Skipped       bool   `json:"skipped,omitempty"`

	// HTML is the decoded markup of an HTML response, kept for link extraction.
	HTML string `json:"-"`
}

// OK reports whether the fetch produced content.
func (p Page) OK() bool {
	return p.Error == "" && !p.Skipped
}

// BaseURL is the URL relative links on the page resolve against.
func (p Page) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// WithoutHTML returns a copy of the page with the retained markup dropped.
func (p Page) WithoutHTML() Page {
	p.HTML = ""
	return p
}

// Failed builds an error page for url.
func Failed(url string, status int, err string) Page {
	return Page{URL: url, Status: status, Error: err}
}
