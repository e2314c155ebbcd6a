package routes

import (
	"github.com/google/wire"

	"searxng-mcp/internal/interfaces/httpserver/routes/mcp"
	v1 "searxng-mcp/internal/interfaces/httpserver/routes/v1"
	"searxng-mcp/internal/interfaces/httpserver/routes/v1/crawl"
	"searxng-mcp/internal/interfaces/httpserver/routes/v1/fetch"
	"searxng-mcp/internal/interfaces/httpserver/routes/v1/search"
)

// RoutesProvider provides all route dependencies
var RoutesProvider = wire.NewSet(
	search.NewSearchRoute,
	fetch.NewFetchRoute,
	crawl.NewCrawlRoute,
	v1.NewV1Route,

	mcp.NewSearchMCP,
	mcp.NewFetchMCP,
	mcp.NewCrawlMCP,
	mcp.NewMCPRoute,
)
