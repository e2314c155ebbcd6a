package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config holds all configuration for the search/fetch/crawl service
type Config struct {
	// HTTP Server
	HTTPPort              string `env:"PORT" envDefault:"7778"`
	LogLevel              string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat             string `env:"LOG_FORMAT" envDefault:"json"` // json or console
	MCPTransport          string `env:"MCP_TRANSPORT" envDefault:"http"`
	HTTPMaxInFlight       int    `env:"HTTP_MAX_INFLIGHT" envDefault:"64"`
	HTTPQueueTimeout      int    `env:"HTTP_QUEUE_TIMEOUT_SECONDS" envDefault:"10"`
	HTTPReadHeaderTimeout int    `env:"HTTP_READ_HEADER_TIMEOUT_SECONDS" envDefault:"10"`
	HTTPShutdownTimeout   int    `env:"HTTP_SHUTDOWN_TIMEOUT_SECONDS" envDefault:"15"`
	ServiceName           string `env:"SERVICE_NAME" envDefault:"searxng-mcp"`
	ServiceVersion        string `env:"SERVICE_VERSION" envDefault:"1.0.0"`

	// SearXNG upstream. SearxngURL wins over the protocol/host/port triple.
	SearxngURL       string `env:"SEARXNG_URL"`
	SearxngProtocol  string `env:"SEARXNG_PROTOCOL" envDefault:"http"`
	SearxngHost      string `env:"SEARXNG_HOST" envDefault:"searxng"`
	SearxngPort      string `env:"SEARXNG_PORT" envDefault:"7777"`
	SearxngTimeout   int    `env:"SEARXNG_TIMEOUT_SECONDS" envDefault:"30"`
	SearxngUserAgent string `env:"SEARXNG_USER_AGENT" envDefault:"SearXNG-MCP-Server/1.0"`

	// Upstream rate limit (requests per second, 0 disables)
	SearxngRateLimit float64 `env:"SEARXNG_RATE_LIMIT" envDefault:"10"`
	SearxngRateBurst int     `env:"SEARXNG_RATE_BURST" envDefault:"20"`

	// Circuit Breaker Configuration
	SearxngCBEnabled          bool `env:"SEARXNG_CB_ENABLED" envDefault:"true"`
	SearxngCBFailureThreshold int  `env:"SEARXNG_CB_FAILURE_THRESHOLD" envDefault:"15"`
	SearxngCBSuccessThreshold int  `env:"SEARXNG_CB_SUCCESS_THRESHOLD" envDefault:"5"`
	SearxngCBTimeout          int  `env:"SEARXNG_CB_TIMEOUT" envDefault:"45"`
	SearxngCBMaxHalfOpen      int  `env:"SEARXNG_CB_MAX_HALF_OPEN" envDefault:"10"`

	// Retry Configuration
	SearxngRetryMaxAttempts   int     `env:"SEARXNG_RETRY_MAX_ATTEMPTS" envDefault:"3"`
	SearxngRetryInitialDelay  int     `env:"SEARXNG_RETRY_INITIAL_DELAY" envDefault:"250"`
	SearxngRetryMaxDelay      int     `env:"SEARXNG_RETRY_MAX_DELAY" envDefault:"5000"`
	SearxngRetryBackoffFactor float64 `env:"SEARXNG_RETRY_BACKOFF_FACTOR" envDefault:"1.5"`

	// Search defaults
	SearchDefaultLanguage string `env:"SEARCH_DEFAULT_LANGUAGE" envDefault:"en"`

	// Content fetcher
	FetchTimeout      int    `env:"FETCH_TIMEOUT_SECONDS" envDefault:"30"`
	FetchMaxBodyBytes int64  `env:"FETCH_MAX_BODY_BYTES" envDefault:"5242880"`
	FetchUserAgent    string `env:"FETCH_USER_AGENT" envDefault:"SearXNG-MCP-Server/1.0"`
	FetchMaxRedirects int    `env:"FETCH_MAX_REDIRECTS" envDefault:"10"`

	// Crawl engine
	CrawlWorkers       int  `env:"CRAWL_WORKERS" envDefault:"4"`
	CrawlRespectRobots bool `env:"CRAWL_RESPECT_ROBOTS" envDefault:"false"`

	// Tracing (OTLP over HTTP)
	Environment      string            `env:"ENVIRONMENT" envDefault:"development"`
	OTELEnabled      bool              `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint     string            `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELHeaders      map[string]string `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	OTELSamplingRate float64           `env:"OTEL_SAMPLING_RATE" envDefault:"1.0"`
	OTELPIILevel     string            `env:"OTEL_PII_LEVEL" envDefault:"hashed"` // none|hashed|full
	OTELBatchTimeout int               `env:"OTEL_BATCH_TIMEOUT_SECONDS" envDefault:"5"`
	OTELInsecure     bool              `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.MCPTransport)) {
	case TransportHTTP, TransportStdio:
		c.MCPTransport = strings.ToLower(strings.TrimSpace(c.MCPTransport))
	default:
		return fmt.Errorf("MCP_TRANSPORT must be %q or %q, got %q", TransportHTTP, TransportStdio, c.MCPTransport)
	}

	base := c.SearxngBaseURL()
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("invalid SearXNG base URL %q", base)
	}

	if c.HTTPMaxInFlight <= 0 {
		return fmt.Errorf("HTTP_MAX_INFLIGHT must be positive")
	}
	if c.FetchMaxBodyBytes <= 0 {
		return fmt.Errorf("FETCH_MAX_BODY_BYTES must be positive")
	}
	if c.OTELSamplingRate < 0 || c.OTELSamplingRate > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATE must be between 0 and 1")
	}
	switch c.OTELPIILevel {
	case "none", "hashed", "full":
	default:
		return fmt.Errorf("OTEL_PII_LEVEL must be none, hashed or full, got %q", c.OTELPIILevel)
	}
	return nil
}

// SearxngBaseURL returns the upstream base URL without a trailing slash.
func (c *Config) SearxngBaseURL() string {
	if strings.TrimSpace(c.SearxngURL) != "" {
		return strings.TrimSuffix(strings.TrimSpace(c.SearxngURL), "/")
	}
	base := fmt.Sprintf("%s://%s", c.SearxngProtocol, c.SearxngHost)
	if c.SearxngPort != "" {
		base = fmt.Sprintf("%s:%s", base, c.SearxngPort)
	}
	return base
}

func (c *Config) SearxngTimeoutDuration() time.Duration {
	return seconds(c.SearxngTimeout, 30)
}

func (c *Config) FetchTimeoutDuration() time.Duration {
	return seconds(c.FetchTimeout, 30)
}

func (c *Config) QueueTimeoutDuration() time.Duration {
	return seconds(c.HTTPQueueTimeout, 10)
}

func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return seconds(c.HTTPShutdownTimeout, 15)
}

func (c *Config) ReadHeaderTimeoutDuration() time.Duration {
	return seconds(c.HTTPReadHeaderTimeout, 10)
}

func (c *Config) OTELBatchTimeoutDuration() time.Duration {
	return seconds(c.OTELBatchTimeout, 5)
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
