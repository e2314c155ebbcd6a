package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searxng-mcp/internal/domain/fetch"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(Config{Timeout: 2 * time.Second})
}

func TestFetchCleansHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Docs</title><style>body{}</style></head>
<body>
  <script>var secret = 1;</script>
  <h1>Hello   World</h1>
  <p>First
     paragraph</p>
  <div hidden>invisible</div>
  <noscript>enable js</noscript>
  <p style="display:none">also invisible</p>
</body></html>`))
	}))
	defer server.Close()

	page := newTestFetcher().Fetch(context.Background(), fetch.Request{URL: server.URL})

	require.True(t, page.OK(), page.Error)
	assert.Equal(t, http.StatusOK, page.Status)
	assert.Equal(t, "Docs\nHello World\nFirst paragraph", page.Content)
	assert.NotContains(t, page.Content, "secret")
	assert.NotContains(t, page.Content, "invisible")
	assert.NotContains(t, page.Content, "enable js")
	assert.False(t, page.Truncated)
	assert.Contains(t, page.HTML, "<script>")
}

func TestFetchTruncatesByCharacters(t *testing.T) {
	body := strings.Repeat("a", 500)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>" + body + "</p></body></html>"))
	}))
	defer server.Close()

	page := newTestFetcher().Fetch(context.Background(), fetch.Request{URL: server.URL, MaxContentLength: 100})

	require.True(t, page.OK(), page.Error)
	assert.Len(t, page.Content, 100)
	assert.True(t, page.Truncated)
	assert.Equal(t, 500, page.ContentLength)
}

func TestFetchTruncatesMultibyteOnRuneBoundary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(strings.Repeat("é", 10)))
	}))
	defer server.Close()

	page := newTestFetcher().Fetch(context.Background(), fetch.Request{URL: server.URL, MaxContentLength: 3})

	require.True(t, page.OK(), page.Error)
	assert.Equal(t, "ééé", page.Content)
	assert.True(t, page.Truncated)
	assert.Equal(t, 20, page.ContentLength)
}

func TestFetchNon2xxIsErrorPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	page := newTestFetcher().Fetch(context.Background(), fetch.Request{URL: server.URL})

	assert.False(t, page.OK())
	assert.Equal(t, http.StatusNotFound, page.Status)
	assert.Contains(t, page.Error, "404")
	assert.Empty(t, page.Content)
}

func TestFetchRejectsBinaryContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a})
	}))
	defer server.Close()

	page := newTestFetcher().Fetch(context.Background(), fetch.Request{URL: server.URL})

	assert.False(t, page.OK())
	assert.Contains(t, page.Error, "unsupported content type")
	assert.Empty(t, page.Content)
	assert.Empty(t, page.HTML)
}

func TestFetchSniffsMissingContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Write([]byte("<!DOCTYPE html><html><body><p>sniffed</p></body></html>"))
	}))
	defer server.Close()

	page := newTestFetcher().Fetch(context.Background(), fetch.Request{URL: server.URL})

	require.True(t, page.OK(), page.Error)
	assert.Equal(t, "sniffed", page.Content)
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("landed"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	page := newTestFetcher().Fetch(context.Background(), fetch.Request{URL: server.URL + "/start"})

	require.True(t, page.OK(), page.Error)
	assert.Equal(t, server.URL+"/start", page.URL)
	assert.Equal(t, server.URL+"/final", page.FinalURL)
	assert.Equal(t, "landed", page.Content)
}

func TestFetchMergesHeaders(t *testing.T) {
	var gotUA, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom")
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := newTestFetcher()
	page := f.Fetch(context.Background(), fetch.Request{URL: server.URL, Headers: map[string]string{"x-custom": "yes"}})
	require.True(t, page.OK(), page.Error)
	assert.Equal(t, defaultUserAgent, gotUA)
	assert.Equal(t, "yes", gotCustom)

	page = f.Fetch(context.Background(), fetch.Request{URL: server.URL, Headers: map[string]string{"user-agent": "custom-agent"}})
	require.True(t, page.OK(), page.Error)
	assert.Equal(t, "custom-agent", gotUA)
}

func TestFetchDecodesContentEncodings(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		compress func([]byte) []byte
	}{
		{
			name:     "gzip",
			encoding: "gzip",
			compress: func(in []byte) []byte {
				var buf bytes.Buffer
				w := gzip.NewWriter(&buf)
				w.Write(in)
				w.Close()
				return buf.Bytes()
			},
		},
		{
			name:     "br",
			encoding: "br",
			compress: func(in []byte) []byte {
				var buf bytes.Buffer
				w := brotli.NewWriter(&buf)
				w.Write(in)
				w.Close()
				return buf.Bytes()
			},
		},
		{
			name:     "deflate",
			encoding: "deflate",
			compress: func(in []byte) []byte {
				var buf bytes.Buffer
				w := zlib.NewWriter(&buf)
				w.Write(in)
				w.Close()
				return buf.Bytes()
			},
		},
		{
			name:     "raw deflate",
			encoding: "deflate",
			compress: func(in []byte) []byte {
				var buf bytes.Buffer
				w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
				w.Write(in)
				w.Close()
				return buf.Bytes()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := tt.compress([]byte("<html><body><p>compressed " + tt.name + "</p></body></html>"))
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Header().Set("Content-Encoding", tt.encoding)
				w.Write(payload)
			}))
			defer server.Close()

			page := newTestFetcher().Fetch(context.Background(), fetch.Request{URL: server.URL})
			require.True(t, page.OK(), page.Error)
			assert.Equal(t, "compressed "+tt.name, page.Content)
		})
	}
}

func TestFetchMarksCappedBodyTruncated(t *testing.T) {
	body := "<html><body><p>" + strings.Repeat("a", 200) + "</p></body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(body))
	}))
	defer server.Close()

	f := NewFetcher(Config{Timeout: 2 * time.Second, MaxBodyBytes: 64})
	page := f.Fetch(context.Background(), fetch.Request{URL: server.URL})
	require.True(t, page.OK(), page.Error)
	assert.True(t, page.Truncated)

	f = NewFetcher(Config{Timeout: 2 * time.Second, MaxBodyBytes: int64(len(body))})
	page = f.Fetch(context.Background(), fetch.Request{URL: server.URL})
	require.True(t, page.OK(), page.Error)
	assert.False(t, page.Truncated)
}

func TestFetchRejectsRedirectToGuardedURL(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/moved" {
			http.Redirect(w, r, "/seen", http.StatusFound)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("seen"))
	}))
	defer server.Close()

	ctx := fetch.WithRedirectGuard(context.Background(), func(target string) bool {
		return !strings.HasSuffix(target, "/seen")
	})
	page := newTestFetcher().Fetch(ctx, fetch.Request{URL: server.URL + "/moved"})
	assert.False(t, page.OK())
	assert.True(t, strings.HasPrefix(page.Error, "duplicate: "), page.Error)
	assert.Equal(t, int32(0), hits.Load())
}

func TestFetchDecodesDeclaredCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		w.Write([]byte("caf\xe9"))
	}))
	defer server.Close()

	page := newTestFetcher().Fetch(context.Background(), fetch.Request{URL: server.URL})
	require.True(t, page.OK(), page.Error)
	assert.Equal(t, "café", page.Content)
}

func TestFetchReplacesMalformedUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\xff\xfeok"))
	}))
	defer server.Close()

	page := newTestFetcher().Fetch(context.Background(), fetch.Request{URL: server.URL})
	require.True(t, page.OK(), page.Error)
	assert.Equal(t, "ok�ok", page.Content)
}

func TestFetchTimeoutIsErrorPage(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := NewFetcher(Config{Timeout: 50 * time.Millisecond})
	page := f.Fetch(context.Background(), fetch.Request{URL: server.URL})

	assert.False(t, page.OK())
	assert.Contains(t, page.Error, "timeout")
	assert.Equal(t, 0, page.Status)
}

func TestFetchUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	page := newTestFetcher().Fetch(context.Background(), fetch.Request{URL: url})
	assert.False(t, page.OK())
	assert.NotEmpty(t, page.Error)
}

func TestMergeHeaders(t *testing.T) {
	merged := MergeHeaders(
		map[string]string{"User-Agent": "default", "Accept": "text/html"},
		map[string]string{"user-agent": "mine", "X-Trace": "1"},
	)
	assert.Equal(t, map[string]string{"User-Agent": "mine", "Accept": "text/html", "X-Trace": "1"}, merged)
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in        string
		limit     int
		want      string
		truncated bool
	}{
		{"hello", 10, "hello", false},
		{"hello", 5, "hello", false},
		{"hello", 4, "hell", true},
		{"日本語テキスト", 3, "日本語", true},
		{"anything", 0, "anything", false},
	}
	for _, tc := range cases {
		got, truncated := Truncate(tc.in, tc.limit)
		if got != tc.want || truncated != tc.truncated {
			t.Fatalf("Truncate(%q, %d) = (%q, %v), want (%q, %v)", tc.in, tc.limit, got, truncated, tc.want, tc.truncated)
		}
	}
}
