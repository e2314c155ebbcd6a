package crawl

import (
	"context"
	"iter"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"searxng-mcp/internal/domain/fetch"
	"searxng-mcp/internal/infrastructure/metrics"
	"searxng-mcp/internal/infrastructure/observability"
)

type state string

const (
	stateInit            state = "INIT"
	stateRootFetched     state = "ROOT_FETCHED"
	stateExpanded        state = "EXPANDED"
	stateFetchingSubpage state = "FETCHING_SUBPAGE"
	stateDone            state = "DONE"
)

// SkippedError is the error recorded on selected pages that were never
// fetched because the crawl was cancelled.
const SkippedError = "skipped: crawl cancelled"

// EngineConfig holds the construction-time settings of an Engine.
type EngineConfig struct {
	Workers int
}

// Engine performs single-level, filtered link expansion from a root page.
type Engine struct {
	fetcher   fetch.PageFetcher
	extractor LinkExtractor
	policies  PolicyFactory
	workers   int
}

// NewEngine creates a crawl engine. policies may be nil, in which case every
// candidate is allowed.
func NewEngine(fetcher fetch.PageFetcher, extractor LinkExtractor, policies PolicyFactory, cfg EngineConfig) *Engine {
	return &Engine{
		fetcher:   fetcher,
		extractor: extractor,
		policies:  policies,
		workers:   ClampWorkers(cfg.Workers),
	}
}

// ClampWorkers bounds the subpage fan-out to [1, MaxWorkers]; zero selects
// DefaultWorkers.
func ClampWorkers(n int) int {
	switch {
	case n == 0:
		return DefaultWorkers
	case n < 1:
		return 1
	case n > MaxWorkers:
		return MaxWorkers
	default:
		return n
	}
}

// Crawl fetches job.Root, expands its links one level and fetches at most
// job.SubpageLimit of them. Fetch failures are reported per page; Crawl
// itself never fails.
func (e *Engine) Crawl(ctx context.Context, job Job) *Result {
	startTime := time.Now()
	logger := log.With().Str("root", job.Root.URL).Logger()
	logState(logger, stateInit)

	result := &Result{Pages: []SubPage{}}

	ctx, span := observability.Tracer().Start(ctx, "crawl.Crawl")
	defer func() {
		span.SetAttributes(
			attribute.Int("crawl.discovered", result.Discovered),
			attribute.Int("crawl.matched", result.Matched),
			attribute.Int("crawl.fetched", result.Fetched),
			attribute.Int("crawl.failed", result.Failed),
			attribute.Int("crawl.skipped", result.Skipped),
		)
		span.End()
	}()

	// Redirect hops are checked against the visited set, so a link that
	// redirects to a page already fetched or queued is not fetched again.
	visited := NewVisitedSet()
	fetchCtx := fetch.WithRedirectGuard(ctx, visited.Add)

	root := e.fetcher.Fetch(fetchCtx, job.Root)
	result.Root = root.WithoutHTML()
	if !root.OK() {
		logger.Info().Str("error", root.Error).Msg("crawl root fetch failed")
		logState(logger, stateDone)
		return result
	}
	logState(logger, stateRootFetched)

	visited.Add(job.Root.URL)
	if root.FinalURL != "" {
		visited.Add(root.FinalURL)
	}
	visited.Add(root.BaseURL())

	base, err := url.Parse(root.BaseURL())
	if err != nil || root.HTML == "" {
		logState(logger, stateDone)
		return result
	}

	var policy Policy
	if e.policies != nil {
		policy = e.policies.NewPolicy(job.Root.Headers)
	}

	selected := e.selectCandidates(ctx, e.extractor.Links(root.HTML, base), job, visited, policy, result)
	logger.Debug().
		Int("discovered", result.Discovered).
		Int("matched", result.Matched).
		Int("selected", len(selected)).
		Msg("crawl candidates selected")
	logState(logger, stateExpanded)

	result.Pages = e.fetchSubpages(fetchCtx, logger, job, selected, visited)
	for _, sub := range result.Pages {
		switch {
		case sub.Page.Skipped:
			result.Skipped++
		case sub.Page.OK():
			result.Fetched++
		default:
			result.Failed++
		}
	}

	metrics.RecordCrawlPages(result.Fetched, result.Failed, result.Skipped)
	logState(logger, stateDone)
	logger.Info().
		Int("discovered", result.Discovered).
		Int("fetched", result.Fetched).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Int("visited", visited.Len()).
		Dur("elapsed", time.Since(startTime)).
		Msg("crawl completed")

	return result
}

// selectCandidates filters by anchor text, drops URLs already visited and
// keeps the first job.SubpageLimit survivors the policy allows. Every
// candidate is still counted so Discovered and Matched cover the whole page.
func (e *Engine) selectCandidates(ctx context.Context, links iter.Seq[LinkCandidate], job Job, visited *VisitedSet, policy Policy, result *Result) []LinkCandidate {
	selected := make([]LinkCandidate, 0, job.SubpageLimit)
	for candidate := range links {
		result.Discovered++
		if !MatchesFilters(candidate.AnchorText, job.Filters) {
			continue
		}
		if !visited.Add(candidate.URL) {
			continue
		}
		result.Matched++

		if len(selected) >= job.SubpageLimit {
			continue
		}
		if policy != nil && !policy.Allowed(ctx, candidate.URL) {
			log.Debug().Str("url", candidate.URL).Msg("crawl candidate disallowed by robots policy")
			continue
		}
		selected = append(selected, candidate)
	}
	return selected
}

// fetchSubpages fetches selected with bounded concurrency. Results keep the
// selection order regardless of completion order. Each final URL is recorded
// in visited once its fetch returns.
func (e *Engine) fetchSubpages(ctx context.Context, logger zerolog.Logger, job Job, selected []LinkCandidate, visited *VisitedSet) []SubPage {
	pages := make([]SubPage, len(selected))
	if len(selected) == 0 {
		return pages
	}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, candidate := range selected {
		pages[i].AnchorText = candidate.AnchorText
		if ctx.Err() != nil {
			pages[i].Page = skippedPage(candidate.URL)
			continue
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				pages[i].Page = skippedPage(candidate.URL)
				return nil
			}
			logger.Debug().Str("state", string(stateFetchingSubpage)).Str("url", candidate.URL).Int("index", i).Msg("crawl state")

			req := job.Root
			req.URL = candidate.URL
			page := e.fetcher.Fetch(ctx, req)
			if page.FinalURL != "" {
				visited.Add(page.FinalURL)
			}
			if !page.OK() && ctx.Err() != nil && page.Interrupted() {
				page = skippedPage(candidate.URL)
			}
			pages[i].Page = page.WithoutHTML()
			return nil
		})
	}
	_ = g.Wait()

	return pages
}

// MatchesFilters reports whether text contains at least one of filters,
// ignoring case. An empty filter list matches everything.
func MatchesFilters(text string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	lowered := strings.ToLower(text)
	for _, f := range filters {
		if strings.Contains(lowered, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

func skippedPage(u string) fetch.Page {
	return fetch.Page{URL: u, Error: SkippedError, Skipped: true}
}

func logState(logger zerolog.Logger, s state) {
	logger.Debug().Str("state", string(s)).Msg("crawl state")
}
