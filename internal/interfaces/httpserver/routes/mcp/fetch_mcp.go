package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	domainfetch "searxng-mcp/internal/domain/fetch"
	"searxng-mcp/internal/infrastructure/metrics"
)

const fetchPreviewChars = 1000

// FetchArgs defines the arguments for the fetch tool
type FetchArgs struct {
	URL              string            `json:"url" jsonschema:"Absolute http or https URL to fetch"`
	Headers          map[string]string `json:"headers,omitempty" jsonschema:"Extra request headers"`
	MaxContentLength *int              `json:"max_content_length,omitempty" jsonschema:"Maximum characters of cleaned text to return"`
}

type FetchMCP struct {
	fetchService *domainfetch.FetchService
}

func NewFetchMCP(fetchService *domainfetch.FetchService) *FetchMCP {
	return &FetchMCP{fetchService: fetchService}
}

func (f *FetchMCP) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeyFetch,
		Description: toolDescriptions[ToolKeyFetch],
	}, f.handleFetch)
}

func (f *FetchMCP) handleFetch(ctx context.Context, _ *mcp.CallToolRequest, input FetchArgs) (*mcp.CallToolResult, domainfetch.Page, error) {
	startTime := time.Now()
	ctx, requestID := withCallRequestID(ctx)

	log.Info().
		Str("tool", ToolKeyFetch).
		Str("request_id", requestID).
		Str("url", input.URL).
		Msg("MCP tool call received")

	req := domainfetch.Request{URL: input.URL, Headers: input.Headers}
	if input.MaxContentLength != nil {
		req.MaxContentLength = *input.MaxContentLength
	}

	page, err := f.fetchService.Fetch(ctx, req)
	if err != nil {
		metrics.RecordToolCall(ToolKeyFetch, "error", time.Since(startTime).Seconds())
		msg := errorMessage(err)
		payload := domainfetch.Failed(input.URL, 0, msg)
		if page != nil {
			payload = page.WithoutHTML()
		}
		log.Warn().Err(err).Str("tool", ToolKeyFetch).Str("url", input.URL).Msg("fetch failed")
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Fetch error: " + msg}},
			IsError: true,
		}, payload, nil
	}

	metrics.RecordToolCall(ToolKeyFetch, "success", time.Since(startTime).Seconds())
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatFetchedPage(*page)}},
	}, *page, nil
}

func formatFetchedPage(page domainfetch.Page) string {
	return fmt.Sprintf("Fetched content from: %s\nStatus Code: %d\nContent Length: %d characters\n\nContent:\n%s",
		page.BaseURL(),
		page.Status,
		page.ContentLength,
		preview(page.Content, fetchPreviewChars, "...\n[Content truncated]"),
	)
}
