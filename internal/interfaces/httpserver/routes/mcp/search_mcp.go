package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	domainsearch "searxng-mcp/internal/domain/search"
	"searxng-mcp/internal/infrastructure/metrics"
)

const (
	ToolKeySearch = "search"
	ToolKeyFetch  = "fetch"
	ToolKeyCrawl  = "crawl"
)

var toolDescriptions = map[string]string{
	ToolKeySearch: "Search using SearXNG metasearch engine",
	ToolKeyFetch:  "Fetch content from a URL",
	ToolKeyCrawl:  "Fetch a page and the linked subpages whose anchor text matches the filters",
}

const searchSnippetChars = 200

// SearchArgs defines the arguments for the search tool
type SearchArgs struct {
	Query      string `json:"query" jsonschema:"Search query"`
	Categories string `json:"categories,omitempty" jsonschema:"Comma separated SearXNG categories such as general or news"`
	Engines    string `json:"engines,omitempty" jsonschema:"Comma separated SearXNG engine names"`
	Language   string `json:"language,omitempty" jsonschema:"Language code for results such as en or de"`
	TimeRange  string `json:"time_range,omitempty" jsonschema:"Restrict results to the last day or week or month or year"`
	PageNo     *int   `json:"pageno,omitempty" jsonschema:"Result page number starting at 1"`
	MaxResults *int   `json:"max_results,omitempty" jsonschema:"Maximum number of results to return (1 to 100)"`
}

type searchToolPayload struct {
	Query           string                `json:"query"`
	NumberOfResults float64               `json:"number_of_results"`
	Results         []domainsearch.Result `json:"results"`
	Suggestions     []string              `json:"suggestions"`
	Error           string                `json:"error,omitempty"`
}

// SearchMCP handles MCP tool registration for the search tool.
type SearchMCP struct {
	searchService *domainsearch.SearchService
}

func NewSearchMCP(searchService *domainsearch.SearchService) *SearchMCP {
	return &SearchMCP{searchService: searchService}
}

// RegisterTools registers search tools with the MCP server
func (s *SearchMCP) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeySearch,
		Description: toolDescriptions[ToolKeySearch],
	}, s.handleSearch)
}

func (s *SearchMCP) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchArgs) (*mcp.CallToolResult, searchToolPayload, error) {
	startTime := time.Now()
	ctx, requestID := withCallRequestID(ctx)

	log.Info().
		Str("tool", ToolKeySearch).
		Str("request_id", requestID).
		Msg("MCP tool call received")

	resp, err := s.searchService.Search(ctx, toSearchRequest(input))
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolKeySearch).Str("query", input.Query).Msg("search service failed")
		metrics.RecordToolCall(ToolKeySearch, "error", time.Since(startTime).Seconds())
		msg := errorMessage(err)
		errPayload := searchToolPayload{
			Query:       input.Query,
			Results:     []domainsearch.Result{},
			Suggestions: []string{},
			Error:       msg,
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Search error: " + msg}},
			IsError: true,
		}, errPayload, nil
	}

	payload := searchToolPayload{
		Query:           resp.Query,
		NumberOfResults: resp.NumberOfResults,
		Results:         resp.Results,
		Suggestions:     resp.Suggestions,
	}
	if payload.Results == nil {
		payload.Results = []domainsearch.Result{}
	}
	if payload.Suggestions == nil {
		payload.Suggestions = []string{}
	}

	metrics.RecordToolCall(ToolKeySearch, "success", time.Since(startTime).Seconds())
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatSearchResults(resp.Query, resp.Results)}},
	}, payload, nil
}

func toSearchRequest(input SearchArgs) domainsearch.SearchRequest {
	req := domainsearch.SearchRequest{
		Query:      input.Query,
		Categories: domainsearch.SplitList(input.Categories),
		Engines:    domainsearch.SplitList(input.Engines),
		PageNo:     input.PageNo,
		MaxResults: input.MaxResults,
	}
	if lang := strings.TrimSpace(input.Language); lang != "" {
		req.Language = &lang
	}
	if tr := strings.TrimSpace(input.TimeRange); tr != "" {
		timeRange := domainsearch.TimeRange(tr)
		req.TimeRange = &timeRange
	}
	return req
}

// formatSearchResults renders results as a numbered plain-text list.
func formatSearchResults(query string, results []domainsearch.Result) string {
	if len(results) == 0 {
		return "No results found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for '%s':\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&b, "   URL: %s\n", r.URL)
		fmt.Fprintf(&b, "   Engine: %s\n", r.Engine)
		fmt.Fprintf(&b, "   Content: %s\n\n", preview(r.Content, searchSnippetChars, "..."))
	}
	return strings.TrimRight(b.String(), "\n")
}
