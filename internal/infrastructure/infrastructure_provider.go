package infrastructure

import (
	"time"

	"github.com/google/wire"

	"searxng-mcp/internal/domain/crawl"
	"searxng-mcp/internal/domain/fetch"
	"searxng-mcp/internal/domain/search"
	"searxng-mcp/internal/infrastructure/config"
	"searxng-mcp/internal/infrastructure/fetcher"
	"searxng-mcp/internal/infrastructure/linkextract"
	"searxng-mcp/internal/infrastructure/observability"
	"searxng-mcp/internal/infrastructure/robots"
	"searxng-mcp/internal/infrastructure/searxng"
)

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,

	// SearXNG client
	ProvideSearxngClient,
	wire.Bind(new(search.SearchClient), new(*searxng.Client)),
	ProvideSearchSettings,

	// Content fetcher
	ProvideFetcher,
	wire.Bind(new(fetch.PageFetcher), new(*fetcher.Fetcher)),

	// Crawl collaborators
	linkextract.NewExtractor,
	wire.Bind(new(crawl.LinkExtractor), new(*linkextract.Extractor)),
	ProvidePolicyFactory,
	ProvideEngineConfig,

	// Tracing
	ProvideTracingConfig,
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideSearxngClient builds the upstream client with retry, circuit breaker
// and rate limiting taken from config.
func ProvideSearxngClient(cfg *config.Config) *searxng.Client {
	return searxng.NewClient(searxng.ClientConfig{
		BaseURL:   cfg.SearxngBaseURL(),
		UserAgent: cfg.SearxngUserAgent,
		Timeout:   cfg.SearxngTimeoutDuration(),
		RateLimit: cfg.SearxngRateLimit,
		RateBurst: cfg.SearxngRateBurst,
		Retry: searxng.RetryConfig{
			MaxAttempts:   cfg.SearxngRetryMaxAttempts,
			InitialDelay:  time.Duration(cfg.SearxngRetryInitialDelay) * time.Millisecond,
			MaxDelay:      time.Duration(cfg.SearxngRetryMaxDelay) * time.Millisecond,
			BackoffFactor: cfg.SearxngRetryBackoffFactor,
		},
		CircuitBreaker: searxng.CircuitBreakerConfig{
			Enabled:          cfg.SearxngCBEnabled,
			FailureThreshold: cfg.SearxngCBFailureThreshold,
			SuccessThreshold: cfg.SearxngCBSuccessThreshold,
			Timeout:          time.Duration(cfg.SearxngCBTimeout) * time.Second,
			MaxHalfOpenCalls: cfg.SearxngCBMaxHalfOpen,
		},
		Redactor: observability.NewRedactor(observability.PIILevel(cfg.OTELPIILevel), cfg.ServiceName),
	})
}

// ProvideTracingConfig maps the OTEL_* settings onto the tracer setup.
func ProvideTracingConfig(cfg *config.Config) observability.Config {
	return observability.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		Enabled:        cfg.OTELEnabled,
		OTLPEndpoint:   cfg.OTELEndpoint,
		OTLPHeaders:    cfg.OTELHeaders,
		Insecure:       cfg.OTELInsecure,
		SamplingRate:   cfg.OTELSamplingRate,
		BatchTimeout:   cfg.OTELBatchTimeoutDuration(),
	}
}

func ProvideSearchSettings(cfg *config.Config) search.Settings {
	return search.Settings{DefaultLanguage: cfg.SearchDefaultLanguage}
}

// ProvideFetcher provides the page fetcher shared by fetch and crawl
func ProvideFetcher(cfg *config.Config) *fetcher.Fetcher {
	return fetcher.NewFetcher(fetcher.Config{
		UserAgent:    cfg.FetchUserAgent,
		Timeout:      cfg.FetchTimeoutDuration(),
		MaxBodyBytes: cfg.FetchMaxBodyBytes,
		MaxRedirects: cfg.FetchMaxRedirects,
	})
}

// ProvidePolicyFactory returns the robots.txt checker, or nil when crawls
// should not consult robots.txt.
func ProvidePolicyFactory(cfg *config.Config) crawl.PolicyFactory {
	if !cfg.CrawlRespectRobots {
		return nil
	}
	return robots.NewChecker(robots.Config{
		UserAgent: cfg.FetchUserAgent,
		Timeout:   cfg.FetchTimeoutDuration(),
	})
}

func ProvideEngineConfig(cfg *config.Config) crawl.EngineConfig {
	return crawl.EngineConfig{Workers: cfg.CrawlWorkers}
}
