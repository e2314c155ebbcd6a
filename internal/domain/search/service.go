package search

import (
	"context"
	"fmt"
	"strings"

	"searxng-mcp/utils/platformerrors"
)

const (
	DefaultMaxResults = 10
	MaxResultsCeiling = 100
	DefaultLanguage   = "en"
)

// SearchClient defines the upstream search operation required by the domain layer.
type SearchClient interface {
	Search(ctx context.Context, query Query) (*SearchResponse, error)
}

// Settings holds the construction-time defaults of a SearchService.
type Settings struct {
	DefaultLanguage string
}

// SearchService validates search requests and forwards them upstream.
type SearchService struct {
	client   SearchClient
	settings Settings
}

// NewSearchService creates a new search service.
func NewSearchService(client SearchClient, settings Settings) *SearchService {
	if strings.TrimSpace(settings.DefaultLanguage) == "" {
		settings.DefaultLanguage = DefaultLanguage
	}
	return &SearchService{
		client:   client,
		settings: settings,
	}
}

// Search validates req, queries SearXNG and trims the result list to the
// requested count.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	query, err := s.BuildQuery(req)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "7c1e5b2a-9d3f-4e8a-b6c0-2f4d1a3e5b79")
	}

	resp, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) > query.MaxResults {
		resp.Results = resp.Results[:query.MaxResults]
	}
	if resp.Query == "" {
		resp.Query = query.Q
	}
	return resp, nil
}

// BuildQuery applies defaults and clamps, rejecting malformed input.
func (s *SearchService) BuildQuery(req SearchRequest) (Query, error) {
	q := strings.TrimSpace(req.Query)
	if q == "" {
		return Query{}, fmt.Errorf("query is required")
	}

	maxResults, err := ClampMaxResults(req.MaxResults)
	if err != nil {
		return Query{}, err
	}

	pageNo := 1
	if req.PageNo != nil {
		switch {
		case *req.PageNo < 0:
			return Query{}, fmt.Errorf("pageno must not be negative, got %d", *req.PageNo)
		case *req.PageNo > 0:
			pageNo = *req.PageNo
		}
	}

	timeRange := TimeRangeAny
	if req.TimeRange != nil {
		timeRange = TimeRange(strings.ToLower(strings.TrimSpace(string(*req.TimeRange))))
		if !timeRange.Valid() {
			return Query{}, fmt.Errorf("time_range must be one of day, week, month or year, got %q", *req.TimeRange)
		}
	}

	language := s.settings.DefaultLanguage
	if req.Language != nil && strings.TrimSpace(*req.Language) != "" {
		language = strings.TrimSpace(*req.Language)
	}

	return Query{
		Q:          q,
		Categories: req.Categories,
		Engines:    req.Engines,
		Language:   language,
		TimeRange:  timeRange,
		PageNo:     pageNo,
		MaxResults: maxResults,
	}, nil
}

// ClampMaxResults maps nil to DefaultMaxResults and clamps the rest into
// [1, MaxResultsCeiling]. Negative values are rejected.
func ClampMaxResults(n *int) (int, error) {
	if n == nil {
		return DefaultMaxResults, nil
	}
	switch {
	case *n < 0:
		return 0, fmt.Errorf("max_results must not be negative, got %d", *n)
	case *n == 0:
		return 1, nil
	case *n > MaxResultsCeiling:
		return MaxResultsCeiling, nil
	default:
		return *n, nil
	}
}
