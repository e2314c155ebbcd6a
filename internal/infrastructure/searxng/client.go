package searxng

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"searxng-mcp/internal/domain/search"
	"searxng-mcp/internal/infrastructure/metrics"
	"searxng-mcp/internal/infrastructure/observability"
	"searxng-mcp/utils/platformerrors"
)

const (
	providerName = "searxng"
	searchPath   = "/search"
)

// ClientConfig captures the knobs exposed to operators for the SearXNG client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int

	Retry          RetryConfig
	CircuitBreaker CircuitBreakerConfig

	// Applied to the query before it is attached to spans; nil redacts fully.
	Redactor *observability.Redactor
}

// Client implements search.SearchClient against a SearXNG instance.
type Client struct {
	cfg     ClientConfig
	http    *resty.Client
	limiter *rate.Limiter
	cb      *CircuitBreaker
}

var _ search.SearchClient = (*Client)(nil)

// NewClient wires the resty client, rate limiter and circuit breaker.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if len(cfg.Retry.RetryableErrors) == 0 {
		cfg.Retry.RetryableErrors = DefaultRetryConfig().RetryableErrors
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetTransport(transport)

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}

	return &Client{
		cfg:     cfg,
		http:    client,
		limiter: limiter,
		cb:      NewCircuitBreaker(providerName, cfg.CircuitBreaker),
	}
}

// CircuitBreaker exposes the breaker guarding this client.
func (c *Client) CircuitBreaker() *CircuitBreaker {
	return c.cb
}

// Search queries SearXNG. Failures surface as EXTERNAL platform errors, or
// UNAVAILABLE while the circuit is open.
func (c *Client) Search(ctx context.Context, query search.Query) (*search.SearchResponse, error) {
	startTime := time.Now()
	status := "success"
	ctx, span := observability.Tracer().Start(ctx, "searxng.Search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("search.query", c.cfg.Redactor.Redact(query.Q)),
			attribute.Int("search.pageno", query.PageNo),
		),
	)
	defer func() {
		metrics.RecordExternalProviderLatency(providerName, status, time.Since(startTime).Seconds())
		span.End()
	}()

	var result *search.SearchResponse
	err := c.cb.Execute("searxng_search", func() error {
		var err error
		result, err = WithRetry(ctx, c.cfg.Retry, "searxng_search", func() (*search.SearchResponse, error) {
			return c.searchOnce(ctx, query)
		})
		return err
	})
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "searxng search failed")
		if errors.Is(err, ErrCircuitOpen) {
			log.Error().Str("service", providerName).Msg("searxng circuit breaker is open, skipping")
			return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnavailable,
				"search upstream temporarily unavailable", err, "b5d2c7e9-1a4f-4c3b-8e6d-9f0a2b4c6d81")
		}
		log.Error().Err(err).Str("service", providerName).Str("operation", "search").Msg("searxng search failed after retries")
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"search upstream unavailable", err, "0e8f4a6c-3b2d-4f1e-9c7a-5d6b8e0f1a23",
			map[string]any{"base_url": c.cfg.BaseURL})
	}

	span.SetAttributes(attribute.Int("search.results", len(result.Results)))
	return result, nil
}

func (c *Client) searchOnce(ctx context.Context, query search.Query) (*search.SearchResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("searxng rate limit wait: %w", err)
		}
	}

	traceHeaders := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(traceHeaders))

	req := c.http.R().
		SetContext(ctx).
		SetHeaderMultiValues(traceHeaders).
		SetQueryParam("q", query.Q).
		SetQueryParam("format", "json").
		SetQueryParam("safesearch", "0").
		SetQueryParam("pageno", strconv.Itoa(max(query.PageNo, 1)))

	if len(query.Categories) > 0 {
		req.SetQueryParam("categories", strings.Join(query.Categories, ","))
	}
	if len(query.Engines) > 0 {
		req.SetQueryParam("engines", strings.Join(query.Engines, ","))
	}
	if query.Language != "" {
		req.SetQueryParam("language", query.Language)
		req.SetQueryParam("lang", query.Language)
	}
	if query.TimeRange != search.TimeRangeAny {
		req.SetQueryParam("time_range", string(query.TimeRange))
	}

	resp, err := req.Get(searchPath)
	if err != nil {
		log.Error().Err(err).Str("service", providerName).Str("url", c.cfg.BaseURL).Msg("failed to query SearXNG API")
		return nil, fmt.Errorf("failed to query SearXNG API: %w", err)
	}
	if resp.IsError() {
		body := resp.String()
		if len(body) > 256 {
			body = body[:256]
		}
		log.Error().Int("status", resp.StatusCode()).Str("service", providerName).Str("response", body).Msg("SearXNG API error")
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: body}
	}

	var result search.SearchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decode searxng response: %w", err)
	}
	if err := ValidateSearchResponse(&result); err != nil {
		return nil, err
	}

	log.Debug().
		Str("service", providerName).
		Str("query", query.Q).
		Int("results", len(result.Results)).
		Msg("searxng search completed")
	return &result, nil
}
