package crawl

import (
	"context"
	"fmt"
	"strings"

	"searxng-mcp/internal/domain/fetch"
	"searxng-mcp/utils/platformerrors"
)

// CrawlService validates crawl requests and runs them on the engine.
type CrawlService struct {
	engine *Engine
}

// NewCrawlService creates a new crawl service.
func NewCrawlService(engine *Engine) *CrawlService {
	return &CrawlService{engine: engine}
}

// Crawl runs a validated crawl. Only validation problems are returned as
// errors; a failed root is reported inside the result.
func (s *CrawlService) Crawl(ctx context.Context, req Request) (*Result, error) {
	job, err := NewJob(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.engine.Crawl(ctx, job), nil
}

// NewJob validates req and applies defaults and clamps.
func NewJob(ctx context.Context, req Request) (Job, error) {
	root, err := fetch.NormalizeRequest(ctx, fetch.Request{
		URL:              req.URL,
		Headers:          req.Headers,
		MaxContentLength: req.MaxContentLength,
	})
	if err != nil {
		return Job{}, err
	}

	limit, err := ClampSubpageLimit(req.SubpageLimit)
	if err != nil {
		return Job{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "2f6d8a41-5c3e-4b9f-a7d2-0e1c9b8a7f63")
	}

	filters := make([]string, 0, len(req.Filters))
	for _, f := range req.Filters {
		if strings.TrimSpace(f) == "" {
			continue
		}
		filters = append(filters, f)
	}

	return Job{Root: root, Filters: filters, SubpageLimit: limit}, nil
}

// ClampSubpageLimit maps nil to DefaultSubpageLimit and clamps the rest into
// [1, MaxSubpageLimit]. Negative limits are rejected.
func ClampSubpageLimit(n *int) (int, error) {
	if n == nil {
		return DefaultSubpageLimit, nil
	}
	switch {
	case *n < 0:
		return 0, fmt.Errorf("subpage_limit must not be negative, got %d", *n)
	case *n == 0:
		return 1, nil
	case *n > MaxSubpageLimit:
		return MaxSubpageLimit, nil
	default:
		return *n, nil
	}
}
