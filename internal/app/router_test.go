package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/observability"
	"github.com/tallybook/tallybook/jobs"
)

func testConfig() *Config {
	return &Config{AppEnv: "test", RateLimitPerMinute: 100}
}

func serve(h http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthAndMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	router := NewRouter(RouterParams{
		Config:     testConfig(),
		Metrics:    metrics,
		JobHandler: jobs.NewHandler(nil, nil),
	})

	rec := serve(router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = serve(router, http.MethodGet, "/jobs/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "tallybook_http_requests_total"))
}

func TestRouterUnknownPathIsProblem(t *testing.T) {
	router := NewRouter(RouterParams{Config: testConfig()})
	rec := serve(router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouterBearerToken(t *testing.T) {
	cfg := testConfig()
	cfg.APIToken = "s3cret"
	router := NewRouter(RouterParams{Config: cfg})

	rec := serve(router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodGet, "/invoices", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodGet, "/invoices", http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Authenticated, but no billing handler is mounted.
	rec = serve(router, http.MethodGet, "/invoices", http.Header{"Authorization": {"Bearer s3cret"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 2
	router := NewRouter(RouterParams{Config: cfg})

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, serve(router, http.MethodGet, "/healthz", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
