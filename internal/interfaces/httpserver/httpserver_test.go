package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searxng-mcp/internal/domain/crawl"
	"searxng-mcp/internal/domain/fetch"
	"searxng-mcp/internal/domain/search"
	"searxng-mcp/internal/infrastructure/config"
	"searxng-mcp/internal/infrastructure/fetcher"
	"searxng-mcp/internal/infrastructure/linkextract"
	"searxng-mcp/internal/infrastructure/searxng"
	"searxng-mcp/internal/interfaces/httpserver/responses"
	"searxng-mcp/internal/interfaces/httpserver/routes/mcp"
	v1 "searxng-mcp/internal/interfaces/httpserver/routes/v1"
	crawlroute "searxng-mcp/internal/interfaces/httpserver/routes/v1/crawl"
	fetchroute "searxng-mcp/internal/interfaces/httpserver/routes/v1/fetch"
	searchroute "searxng-mcp/internal/interfaces/httpserver/routes/v1/search"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const searxngBody = `{
  "query": "golang",
  "number_of_results": 2,
  "results": [
    {"url": "https://go.dev", "title": "Go", "content": "The Go language", "engine": "bing"},
    {"url": "https://pkg.go.dev", "title": "Packages", "content": "docs", "engine": "bing"}
  ],
  "suggestions": ["golang tutorial"]
}`

type fixture struct {
	server      *HTTPServer
	searxParams url.Values
	site        *httptest.Server
}

func newFixture(t *testing.T, searxStatus int) *fixture {
	t.Helper()
	f := &fixture{}

	searx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.searxParams = r.URL.Query()
		if searxStatus != http.StatusOK {
			w.WriteHeader(searxStatus)
			return
		}
		w.Write([]byte(searxngBody))
	}))
	t.Cleanup(searx.Close)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Home</title></head><body><p>Welcome</p>
<a href="/guide">Getting started guide</a>
<a href="/contact">Contact</a>
<a href="/missing">Missing guide</a>
</body></html>`))
	})
	mux.HandleFunc("/guide", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><h1>Guide</h1><p>Step one</p></body></html>`))
	})
	mux.HandleFunc("/missing", http.NotFound)
	f.site = httptest.NewServer(mux)
	t.Cleanup(f.site.Close)

	cfg := &config.Config{
		ServiceName:      "searxng-mcp",
		ServiceVersion:   "test",
		HTTPMaxInFlight:  8,
		HTTPQueueTimeout: 1,
	}

	client := searxng.NewClient(searxng.ClientConfig{
		BaseURL: searx.URL,
		Timeout: 2 * time.Second,
		Retry:   searxng.RetryConfig{MaxAttempts: 1},
	})
	pageFetcher := fetcher.NewFetcher(fetcher.Config{Timeout: 2 * time.Second})

	searchService := search.NewSearchService(client, search.Settings{DefaultLanguage: "en"})
	fetchService := fetch.NewFetchService(pageFetcher)
	crawlService := crawl.NewCrawlService(crawl.NewEngine(pageFetcher, linkextract.NewExtractor(), nil, crawl.EngineConfig{Workers: 2}))

	v1Route := v1.NewV1Route(
		searchroute.NewSearchRoute(searchService),
		fetchroute.NewFetchRoute(fetchService),
		crawlroute.NewCrawlRoute(crawlService),
	)
	mcpRoute := mcp.NewMCPRoute(cfg,
		mcp.NewSearchMCP(searchService),
		mcp.NewFetchMCP(fetchService),
		mcp.NewCrawlMCP(crawlService),
	)

	f.server = NewHTTPServer(cfg, v1Route, mcpRoute, client)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	w := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"searxng-mcp"}`, w.Body.String())

	w = f.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	ready := decode[map[string]any](t, w)
	assert.Equal(t, "ready", ready["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	w := f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "searxng_mcp_inflight_requests")
}

func TestToolsCatalog(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	w := f.do(http.MethodGet, "/tools", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Tools []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			InputSchema struct {
				Type       string                    `json:"type"`
				Properties map[string]map[string]any `json:"properties"`
				Required   []string                  `json:"required"`
			} `json:"input_schema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Tools, 3)

	searchTool := body.Tools[0]
	assert.Equal(t, "search", searchTool.Name)
	assert.Equal(t, "Search using SearXNG metasearch engine", searchTool.Description)
	assert.Equal(t, "object", searchTool.InputSchema.Type)
	assert.Equal(t, []string{"query"}, searchTool.InputSchema.Required)
	assert.Equal(t, "Search query", searchTool.InputSchema.Properties["query"]["description"])
	assert.Contains(t, searchTool.InputSchema.Properties, "time_range")

	assert.Equal(t, "fetch", body.Tools[1].Name)
	assert.Equal(t, "Fetch content from a URL", body.Tools[1].Description)
	assert.Equal(t, []string{"url"}, body.Tools[1].InputSchema.Required)

	assert.Equal(t, "crawl", body.Tools[2].Name)
	assert.Contains(t, body.Tools[2].InputSchema.Properties, "subpage_limit")
}

func TestSearchRoute(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	for _, path := range []string{"/search", "/v1/search"} {
		w := f.do(http.MethodPost, path, `{"query":"golang","categories":"general, it","max_results":1}`)
		require.Equal(t, http.StatusOK, w.Code, path)

		resp := decode[search.SearchResponse](t, w)
		assert.Equal(t, "golang", resp.Query)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "https://go.dev", resp.Results[0].URL)
		assert.Equal(t, []string{"golang tutorial"}, resp.Suggestions)
		assert.Equal(t, "general,it", f.searxParams.Get("categories"))
		assert.Equal(t, "en", f.searxParams.Get("language"))
	}
}

func TestSearchRouteValidation(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	cases := map[string]string{
		"missing query":      `{}`,
		"blank query":        `{"query":"   "}`,
		"bad time range":     `{"query":"x","time_range":"decade"}`,
		"negative page":      `{"query":"x","pageno":-1}`,
		"negative max":       `{"query":"x","max_results":-5}`,
		"malformed json":     `{"query":`,
		"wrong engines type": `{"query":"x","engines":42}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/v1/search", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			errResp := decode[responses.ErrorResponse](t, w)
			assert.NotEmpty(t, errResp.Code)
			assert.NotEmpty(t, errResp.Error)
			assert.NotEmpty(t, errResp.RequestID)
		})
	}

	w := f.do(http.MethodPost, "/search", `{}`)
	assert.Equal(t, "query is required", decode[responses.ErrorResponse](t, w).Error)
}

func TestSearchRouteUpstreamFailure(t *testing.T) {
	f := newFixture(t, http.StatusInternalServerError)
	w := f.do(http.MethodPost, "/search", `{"query":"golang"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "search upstream unavailable", decode[responses.ErrorResponse](t, w).Error)
}

func TestFetchRoute(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	w := f.do(http.MethodPost, "/fetch", `{"url":"`+f.site.URL+`/guide","max_content_length":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[map[string]any](t, w)
	assert.Equal(t, "Guide", page["content"])
	assert.Equal(t, true, page["truncated"])
	assert.Equal(t, float64(200), page["status"])
	assert.NotContains(t, page, "HTML")

	w = f.do(http.MethodPost, "/v1/fetch", `{"url":"`+f.site.URL+`/missing"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	errResp := decode[responses.ErrorResponse](t, w)
	assert.Equal(t, "HTTP 404: Not Found", errResp.Error)
	assert.NotEmpty(t, errResp.Code)

	w = f.do(http.MethodPost, "/fetch", `{"url":"ftp://example.com/file"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/fetch", `{"url":"`+f.site.URL+`","max_content_length":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrawlRoute(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	w := f.do(http.MethodPost, "/v1/crawl", `{"url":"`+f.site.URL+`/","filters":["guide"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	result := decode[crawl.Result](t, w)
	assert.Equal(t, "Home\nWelcome\nGetting started guide\nContact\nMissing guide", result.Root.Content)
	require.Len(t, result.Pages, 2)
	assert.Equal(t, "Getting started guide", result.Pages[0].AnchorText)
	assert.Equal(t, f.site.URL+"/guide", result.Pages[0].Page.URL)
	assert.True(t, result.Pages[0].Page.OK())
	assert.Equal(t, "Missing guide", result.Pages[1].AnchorText)
	assert.Equal(t, 404, result.Pages[1].Page.Status)
	assert.Equal(t, 3, result.Discovered)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 1, result.Failed)

	w = f.do(http.MethodPost, "/crawl", `{"url":"`+f.site.URL+`/","subpage_limit":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMCPMethodGuard(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	cases := map[string]string{
		"empty body":         "",
		"invalid json":       "{",
		"missing method":     `{"jsonrpc":"2.0","id":1}`,
		"unsupported method": `{"jsonrpc":"2.0","id":1,"method":"sampling/createMessage"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/mcp", strings.NewReader(body))
			w := httptest.NewRecorder()
			f.server.Handler().ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestMCPToolsList(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	req := httptest.NewRequest(http.MethodPost, "/v1/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"search"`)
	assert.Contains(t, w.Body.String(), `"name":"fetch"`)
	assert.Contains(t, w.Body.String(), `"name":"crawl"`)
}
