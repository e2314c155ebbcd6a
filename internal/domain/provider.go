package domain

import (
	"github.com/google/wire"

	"searxng-mcp/internal/domain/crawl"
	"searxng-mcp/internal/domain/fetch"
	"searxng-mcp/internal/domain/search"
)

// DomainProvider provides all domain services
var DomainProvider = wire.NewSet(
	search.NewSearchService,
	fetch.NewFetchService,
	crawl.NewEngine,
	crawl.NewCrawlService,
)
