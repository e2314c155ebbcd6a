package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	domaincrawl "searxng-mcp/internal/domain/crawl"
	domainfetch "searxng-mcp/internal/domain/fetch"
	"searxng-mcp/internal/infrastructure/metrics"
)

const (
	crawlRootPreviewChars = 500
	crawlPagePreviewChars = 200
)

// CrawlArgs defines the arguments for the crawl tool
type CrawlArgs struct {
	URL              string            `json:"url" jsonschema:"Absolute http or https URL of the root page"`
	Filters          []string          `json:"filters,omitempty" jsonschema:"Case-insensitive substrings an anchor text must contain for its link to be followed"`
	Headers          map[string]string `json:"headers,omitempty" jsonschema:"Extra request headers sent with every fetch"`
	SubpageLimit     *int              `json:"subpage_limit,omitempty" jsonschema:"Maximum number of subpages to fetch (1 to 20)"`
	MaxContentLength *int              `json:"max_content_length,omitempty" jsonschema:"Maximum characters of cleaned text per page"`
}

type CrawlMCP struct {
	crawlService *domaincrawl.CrawlService
}

func NewCrawlMCP(crawlService *domaincrawl.CrawlService) *CrawlMCP {
	return &CrawlMCP{crawlService: crawlService}
}

func (c *CrawlMCP) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeyCrawl,
		Description: toolDescriptions[ToolKeyCrawl],
	}, c.handleCrawl)
}

func (c *CrawlMCP) handleCrawl(ctx context.Context, _ *mcp.CallToolRequest, input CrawlArgs) (*mcp.CallToolResult, domaincrawl.Result, error) {
	startTime := time.Now()
	ctx, requestID := withCallRequestID(ctx)

	log.Info().
		Str("tool", ToolKeyCrawl).
		Str("request_id", requestID).
		Str("url", input.URL).
		Msg("MCP tool call received")

	req := domaincrawl.Request{
		URL:          input.URL,
		Filters:      input.Filters,
		Headers:      input.Headers,
		SubpageLimit: input.SubpageLimit,
	}
	if input.MaxContentLength != nil {
		req.MaxContentLength = *input.MaxContentLength
	}

	result, err := c.crawlService.Crawl(ctx, req)
	if err != nil {
		metrics.RecordToolCall(ToolKeyCrawl, "error", time.Since(startTime).Seconds())
		msg := errorMessage(err)
		log.Warn().Err(err).Str("tool", ToolKeyCrawl).Str("url", input.URL).Msg("crawl rejected")
		payload := domaincrawl.Result{
			Root:  domainfetch.Failed(input.URL, 0, msg),
			Pages: []domaincrawl.SubPage{},
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Crawl error: " + msg}},
			IsError: true,
		}, payload, nil
	}

	status := "success"
	if !result.Root.OK() {
		status = "error"
	}
	metrics.RecordToolCall(ToolKeyCrawl, status, time.Since(startTime).Seconds())

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatCrawlResult(result)}},
		IsError: !result.Root.OK(),
	}, *result, nil
}

func formatCrawlResult(result *domaincrawl.Result) string {
	var b strings.Builder
	root := result.Root
	if !root.OK() {
		fmt.Fprintf(&b, "Crawl error: could not fetch %s: %s", root.URL, root.Error)
		return b.String()
	}

	fmt.Fprintf(&b, "Crawled %s\nStatus Code: %d\n", root.BaseURL(), root.Status)
	fmt.Fprintf(&b, "Links discovered: %d, matched: %d, fetched: %d, failed: %d, skipped: %d\n\n",
		result.Discovered, result.Matched, result.Fetched, result.Failed, result.Skipped)
	fmt.Fprintf(&b, "Root content:\n%s\n", preview(root.Content, crawlRootPreviewChars, "..."))

	for i, sub := range result.Pages {
		fmt.Fprintf(&b, "\n%d. %s\n   URL: %s\n", i+1, strings.TrimSpace(sub.AnchorText), sub.Page.URL)
		switch {
		case sub.Page.Skipped:
			b.WriteString("   Skipped\n")
		case sub.Page.Error != "":
			fmt.Fprintf(&b, "   Error: %s\n", sub.Page.Error)
		default:
			fmt.Fprintf(&b, "   Status Code: %d\n   Content: %s\n", sub.Page.Status, preview(sub.Page.Content, crawlPagePreviewChars, "..."))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
