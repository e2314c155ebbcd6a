package fetch

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	domainfetch "searxng-mcp/internal/domain/fetch"
	"searxng-mcp/internal/interfaces/httpserver/responses"
	"searxng-mcp/utils/platformerrors"
)

// FetchRequest is the REST body for a single page fetch.
type FetchRequest struct {
	URL              string            `json:"url"`
	Headers          map[string]string `json:"headers,omitempty"`
	MaxContentLength int               `json:"max_content_length,omitempty"`
}

type FetchRoute struct {
	fetchService *domainfetch.FetchService
}

func NewFetchRoute(fetchService *domainfetch.FetchService) *FetchRoute {
	return &FetchRoute{fetchService: fetchService}
}

func (r *FetchRoute) RegisterRouter(router gin.IRouter) {
	router.POST("/fetch", r.PostFetch)
}

// PostFetch downloads one page and returns its cleaned text.
// @Summary Fetch a URL
// @Tags Fetch API
// @Accept json
// @Produce json
// @Param request body FetchRequest true "Fetch request"
// @Success 200 {object} domainfetch.Page
// @Failure 400 {object} responses.ErrorResponse "Invalid URL or parameters"
// @Failure 502 {object} responses.ErrorResponse "The page could not be fetched"
// @Router /v1/fetch [post]
func (r *FetchRoute) PostFetch(reqCtx *gin.Context) {
	var request FetchRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		log.Debug().Err(err).Msg("invalid fetch request body")
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "0d2f4b6a-8c1e-4a3d-9b5f-7e1a3c5d7f92")
		return
	}

	page, err := r.fetchService.Fetch(reqCtx.Request.Context(), domainfetch.Request{
		URL:              request.URL,
		Headers:          request.Headers,
		MaxContentLength: request.MaxContentLength,
	})
	if err != nil {
		responses.HandleError(reqCtx, err, responses.MessageOf(err))
		return
	}
	reqCtx.JSON(http.StatusOK, page)
}
