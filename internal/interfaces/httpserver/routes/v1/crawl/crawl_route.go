package crawl

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	domaincrawl "searxng-mcp/internal/domain/crawl"
	"searxng-mcp/internal/interfaces/httpserver/responses"
	"searxng-mcp/utils/platformerrors"
)

type CrawlRoute struct {
	crawlService *domaincrawl.CrawlService
}

func NewCrawlRoute(crawlService *domaincrawl.CrawlService) *CrawlRoute {
	return &CrawlRoute{crawlService: crawlService}
}

func (r *CrawlRoute) RegisterRouter(router gin.IRouter) {
	router.POST("/crawl", r.PostCrawl)
}

// PostCrawl fetches a root page and the subpages its anchors select.
// Subpage failures are reported per page and never fail the request.
// @Summary Crawl a page and its linked subpages
// @Tags Crawl API
// @Accept json
// @Produce json
// @Param request body domaincrawl.Request true "Crawl request"
// @Success 200 {object} domaincrawl.Result
// @Failure 400 {object} responses.ErrorResponse "Invalid URL or parameters"
// @Router /v1/crawl [post]
func (r *CrawlRoute) PostCrawl(reqCtx *gin.Context) {
	var request domaincrawl.Request
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		log.Debug().Err(err).Msg("invalid crawl request body")
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "e6b8d0f2-4a1c-4e3b-8d5f-9a2c4e6b8d13")
		return
	}

	result, err := r.crawlService.Crawl(reqCtx.Request.Context(), request)
	if err != nil {
		responses.HandleError(reqCtx, err, responses.MessageOf(err))
		return
	}
	reqCtx.JSON(http.StatusOK, result)
}
