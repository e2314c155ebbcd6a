package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"searxng-mcp/utils/platformerrors"
)

// PageFetcher retrieves and cleans a single page. Implementations never
// return transport failures as Go errors; they are reported on the Page.
type PageFetcher interface {
	Fetch(ctx context.Context, req Request) Page
}

// FetchService validates fetch requests at the boundary before handing them
// to the PageFetcher.
type FetchService struct {
	fetcher PageFetcher
}

// NewFetchService creates a new fetch service.
func NewFetchService(fetcher PageFetcher) *FetchService {
	return &FetchService{fetcher: fetcher}
}

// Fetch validates req and fetches the page. Validation problems come back as
// VALIDATION platform errors; fetch failures as EXTERNAL errors carrying the page.
func (s *FetchService) Fetch(ctx context.Context, req Request) (*Page, error) {
	normalized, err := NormalizeRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	page := s.fetcher.Fetch(ctx, normalized)
	if !page.OK() {
		return &page, platformerrors.NewErrorWithContext(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeExternal,
			page.Error,
			nil,
			"4b0c8c52-6f0e-4a57-9d6e-5c1f7e0f2a31",
			map[string]any{"url": page.URL, "status": page.Status},
		)
	}
	page = page.WithoutHTML()
	return &page, nil
}

// NormalizeRequest checks the URL and clamps MaxContentLength into
// (0, MaxContentCeiling].
func NormalizeRequest(ctx context.Context, req Request) (Request, error) {
	parsed, err := ValidateURL(req.URL)
	if err != nil {
		return Request{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "e3a1f2d4-8b7c-4c6e-9a0f-1d2b3c4e5f60")
	}

	limit, err := ClampMaxContentLength(req.MaxContentLength)
	if err != nil {
		return Request{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "9d7c2e1a-3f4b-4a5c-8e6d-7f0a1b2c3d4e")
	}

	headers := make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		headers[k] = v
	}

	return Request{
		URL:              parsed.String(),
		Headers:          headers,
		MaxContentLength: limit,
	}, nil
}

// ValidateURL accepts only absolute http(s) URLs with a host.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed url %q", raw)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("url %q has no host", raw)
	}
	return parsed, nil
}

// ClampMaxContentLength maps 0 to the ceiling, caps larger values and rejects
// negatives.
func ClampMaxContentLength(n int) (int, error) {
	switch {
	case n < 0:
		return 0, fmt.Errorf("max_content_length must not be negative, got %d", n)
	case n == 0 || n > MaxContentCeiling:
		return MaxContentCeiling, nil
	default:
		return n, nil
	}
}
