package search

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	domainsearch "searxng-mcp/internal/domain/search"
	"searxng-mcp/internal/interfaces/httpserver/responses"
	"searxng-mcp/utils/platformerrors"
)

// SearchRoute exposes the SearXNG gateway over REST.
type SearchRoute struct {
	searchService *domainsearch.SearchService
}

func NewSearchRoute(searchService *domainsearch.SearchService) *SearchRoute {
	return &SearchRoute{searchService: searchService}
}

func (r *SearchRoute) RegisterRouter(router gin.IRouter) {
	router.POST("/search", r.PostSearch)
}

// PostSearch runs a metasearch query.
// @Summary Search via SearXNG
// @Tags Search API
// @Accept json
// @Produce json
// @Param request body domainsearch.SearchRequest true "Search request"
// @Success 200 {object} domainsearch.SearchResponse
// @Failure 400 {object} responses.ErrorResponse "Invalid request payload or validation error"
// @Failure 502 {object} responses.ErrorResponse "SearXNG unreachable or returned an error"
// @Failure 503 {object} responses.ErrorResponse "SearXNG circuit open or server busy"
// @Router /v1/search [post]
func (r *SearchRoute) PostSearch(reqCtx *gin.Context) {
	var request domainsearch.SearchRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		log.Debug().Err(err).Msg("invalid search request body")
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "5a9e3c1d-7b2f-4e6a-8c0d-1f3b5d7e9a24")
		return
	}

	resp, err := r.searchService.Search(reqCtx.Request.Context(), request)
	if err != nil {
		responses.HandleError(reqCtx, err, responses.MessageOf(err))
		return
	}
	reqCtx.JSON(http.StatusOK, resp)
}
