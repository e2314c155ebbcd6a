package v1

import (
	"github.com/gin-gonic/gin"

	"searxng-mcp/internal/interfaces/httpserver/routes/v1/crawl"
	"searxng-mcp/internal/interfaces/httpserver/routes/v1/fetch"
	"searxng-mcp/internal/interfaces/httpserver/routes/v1/search"
)

// V1Route groups the REST tool endpoints. They are mounted both at the root
// and under /v1.
type V1Route struct {
	search *search.SearchRoute
	fetch  *fetch.FetchRoute
	crawl  *crawl.CrawlRoute
}

func NewV1Route(
	search *search.SearchRoute,
	fetch *fetch.FetchRoute,
	crawl *crawl.CrawlRoute,
) *V1Route {
	return &V1Route{
		search,
		fetch,
		crawl,
	}
}

func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Route.search.RegisterRouter(router)
	v1Route.fetch.RegisterRouter(router)
	v1Route.crawl.RegisterRouter(router)
}
