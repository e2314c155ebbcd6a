package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"searxng-mcp/internal/domain/fetch"
	"searxng-mcp/internal/infrastructure/metrics"
	"searxng-mcp/internal/infrastructure/observability"
)

const (
	defaultUserAgent    = "SearXNG-MCP-Server/1.0"
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 5 << 20
	defaultMaxRedirects = 10
)

// Config captures the knobs exposed to operators for page fetching.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	MaxRedirects int
}

// Fetcher implements fetch.PageFetcher on top of a resty client.
type Fetcher struct {
	cfg    Config
	client *resty.Client
}

var _ fetch.PageFetcher = (*Fetcher)(nil)

// NewFetcher wires the HTTP client used for page fetches.
func NewFetcher(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = defaultMaxRedirects
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
		// Content-Encoding is handled in decodeBody so brotli gets the same path as gzip.
		DisableCompression: true,
	}

	client := resty.New().
		SetTransport(transport).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects), resty.RedirectPolicyFunc(guardedRedirect)).
		SetRetryCount(0)

	return &Fetcher{cfg: cfg, client: client}
}

// Fetch issues one GET for req.URL and returns the cleaned page. Every
// failure mode is reported through Page.Error.
func (f *Fetcher) Fetch(ctx context.Context, req fetch.Request) fetch.Page {
	ctx, span := observability.Tracer().Start(ctx, "fetcher.Fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("server.address", hostOf(req.URL))),
	)
	defer span.End()

	page := f.fetch(ctx, req)
	span.SetAttributes(
		attribute.Int("http.response.status_code", page.Status),
		attribute.Int("fetch.content_length", page.ContentLength),
	)
	if page.Error != "" {
		span.SetStatus(codes.Error, page.Error)
	}
	return page
}

func (f *Fetcher) fetch(ctx context.Context, req fetch.Request) fetch.Page {
	startTime := time.Now()
	limit, err := fetch.ClampMaxContentLength(req.MaxContentLength)
	if err != nil {
		metrics.RecordFetch("invalid")
		return fetch.Failed(req.URL, 0, err.Error())
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	resp, err := f.client.R().
		SetContext(fetchCtx).
		SetHeaders(MergeHeaders(f.defaultHeaders(), req.Headers)).
		SetDoNotParseResponse(true).
		Get(req.URL)
	if resp != nil && resp.RawBody() != nil {
		defer resp.RawBody().Close()
	}
	var dup *fetch.DuplicateRedirectError
	if errors.As(err, &dup) {
		metrics.RecordFetch("duplicate")
		log.Debug().Str("url", req.URL).Str("target", dup.URL).Msg("redirect target already visited, not following")
		return fetch.Failed(req.URL, 0, dup.Error())
	}
	if err != nil {
		metrics.RecordFetch("network_error")
		log.Warn().Err(err).Str("url", req.URL).Dur("elapsed", time.Since(startTime)).Msg("page fetch failed")
		return fetch.Failed(req.URL, 0, describeTransportError(fetchCtx, err))
	}

	page := fetch.Page{
		URL:         req.URL,
		FinalURL:    finalURL(resp, req.URL),
		Status:      resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		metrics.RecordFetch("http_error")
		page.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), http.StatusText(resp.StatusCode()))
		log.Debug().Str("url", req.URL).Int("status", resp.StatusCode()).Msg("page fetch returned non-2xx status")
		return page
	}

	raw, capped, err := readBody(resp.RawBody(), resp.Header().Get("Content-Encoding"), f.cfg.MaxBodyBytes)
	if err != nil {
		metrics.RecordFetch("read_error")
		page.Error = describeTransportError(fetchCtx, err)
		return page
	}

	kind, err := classifyContent(page.ContentType, raw)
	if err != nil {
		metrics.RecordFetch("unsupported_content")
		page.Error = err.Error()
		return page
	}

	text := decodeText(raw, page.ContentType)
	var cleaned string
	if kind == contentHTML {
		page.HTML = text
		cleaned = CleanHTML(text)
	} else {
		cleaned = CollapseWhitespace(text)
	}

	page.ContentLength = len(cleaned)
	page.Content, page.Truncated = Truncate(cleaned, limit)
	if capped {
		page.Truncated = true
		log.Debug().Str("url", req.URL).Int64("max_body_bytes", f.cfg.MaxBodyBytes).Msg("page body cut at size cap")
	}

	metrics.RecordFetch("success")
	log.Debug().
		Str("url", req.URL).
		Str("final_url", page.FinalURL).
		Int("status", page.Status).
		Int("content_length", page.ContentLength).
		Bool("truncated", page.Truncated).
		Dur("elapsed", time.Since(startTime)).
		Msg("page fetched")

	return page
}

func (f *Fetcher) defaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      f.cfg.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5",
		"Accept-Language": "en-US,en;q=0.5",
		"Accept-Encoding": "gzip, deflate, br",
	}
}

// MergeHeaders returns base overlaid with override. Keys are canonicalized so
// "user-agent" replaces "User-Agent".
func MergeHeaders(base, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range override {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	return merged
}

func finalURL(resp *resty.Response, fallback string) string {
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		return resp.RawResponse.Request.URL.String()
	}
	return fallback
}

func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return u.Hostname()
	}
	return ""
}

// guardedRedirect refuses a hop whose target the request's RedirectGuard
// has already claimed.
func guardedRedirect(req *http.Request, _ []*http.Request) error {
	guard := fetch.RedirectGuardFromContext(req.Context())
	if guard == nil {
		return nil
	}
	target := req.URL.String()
	if !guard(target) {
		return &fetch.DuplicateRedirectError{URL: target}
	}
	return nil
}

func describeTransportError(ctx context.Context, err error) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fetch.TimeoutErrorPrefix + err.Error()
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return fetch.CanceledErrorPrefix + err.Error()
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "truncated response body: " + err.Error()
	default:
		return err.Error()
	}
}
