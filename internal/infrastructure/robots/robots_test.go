package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyHonoursDisallow(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	}))
	defer server.Close()

	policy := NewChecker(Config{UserAgent: "test-agent"}).NewPolicy(nil)
	ctx := context.Background()

	assert.True(t, policy.Allowed(ctx, server.URL+"/docs"))
	assert.False(t, policy.Allowed(ctx, server.URL+"/private/page"))
	assert.True(t, policy.Allowed(ctx, server.URL+"/"))
	assert.Equal(t, int32(1), hits.Load())
}

func TestPolicyAgentFromHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: blocked-bot\nDisallow: /\n"))
	}))
	defer server.Close()

	checker := NewChecker(Config{UserAgent: "friendly"})
	ctx := context.Background()

	assert.True(t, checker.NewPolicy(nil).Allowed(ctx, server.URL+"/page"))
	assert.False(t, checker.NewPolicy(map[string]string{"user-agent": "blocked-bot"}).Allowed(ctx, server.URL+"/page"))
}

func TestPolicyFailsOpenWhenMissing(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	policy := NewChecker(Config{}).NewPolicy(nil)
	assert.True(t, policy.Allowed(context.Background(), server.URL+"/anything"))
}

func TestPolicyFailsOpenWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	policy := NewChecker(Config{}).NewPolicy(nil)
	assert.True(t, policy.Allowed(context.Background(), addr+"/anything"))
}

func TestPolicyRejectsRelativeURL(t *testing.T) {
	policy := NewChecker(Config{}).NewPolicy(nil)
	assert.False(t, policy.Allowed(context.Background(), "/relative"))
}

func TestPoliciesDoNotShareRules(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("User-agent: *\nAllow: /\n"))
	}))
	defer server.Close()

	checker := NewChecker(Config{})
	checker.NewPolicy(nil).Allowed(context.Background(), server.URL+"/a")
	checker.NewPolicy(nil).Allowed(context.Background(), server.URL+"/b")
	assert.Equal(t, int32(2), hits.Load())
}
