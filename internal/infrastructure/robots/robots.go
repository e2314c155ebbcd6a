package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"

	"searxng-mcp/internal/domain/crawl"
)

const defaultTimeout = 10 * time.Second

// Config controls robots.txt lookups.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Checker builds per-crawl robots.txt policies. It holds no rules itself.
type Checker struct {
	userAgent string
	client    *resty.Client
}

var _ crawl.PolicyFactory = (*Checker)(nil)

func NewChecker(cfg Config) *Checker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)
	return &Checker{userAgent: cfg.UserAgent, client: client}
}

// NewPolicy returns a policy whose rule cache lives only as long as the crawl.
// A User-Agent in headers takes precedence over the configured one.
func (c *Checker) NewPolicy(headers map[string]string) crawl.Policy {
	agent := c.userAgent
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == "User-Agent" && strings.TrimSpace(v) != "" {
			agent = v
		}
	}
	return &policy{client: c.client, userAgent: agent, rules: make(map[string]*robotstxt.RobotsData)}
}

type policy struct {
	client    *resty.Client
	userAgent string

	mu    sync.Mutex
	rules map[string]*robotstxt.RobotsData
}

// Allowed fails open: a missing or unreadable robots.txt allows everything.
func (p *policy) Allowed(ctx context.Context, raw string) bool {
	target, err := url.Parse(raw)
	if err != nil || !target.IsAbs() {
		return false
	}

	rules, err := p.rulesFor(ctx, target)
	if err != nil {
		log.Debug().Err(err).Str("url", raw).Msg("robots.txt unavailable, allowing")
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return rules.TestAgent(path, p.userAgent)
}

func (p *policy) rulesFor(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	origin := strings.ToLower(target.Scheme + "://" + target.Host)

	p.mu.Lock()
	defer p.mu.Unlock()
	if data, ok := p.rules[origin]; ok {
		return data, nil
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", p.userAgent).
		Get(origin + "/robots.txt")
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode(), resp.Body())
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	p.rules[origin] = data
	return data, nil
}
