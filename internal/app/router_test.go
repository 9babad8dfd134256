package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/taskhub/internal/observability"
)

func newTestRouter() http.Handler {
	return NewRouter(RouterParams{
		Config:  &Config{AppEnv: "test", RateLimitPerMinute: 1000},
		Metrics: observability.NewMetrics(),
		Static: fstest.MapFS{
			"index.html": {Data: []byte("<!doctype html><title>taskhub</title>")},
			"app.js":     {Data: []byte("console.log('ok')")},
		},
	})
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAndSecurityHeaders(t *testing.T) {
	rec := serve(newTestRouter(), http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestUnknownAPIRouteIsJSON(t *testing.T) {
	rec := serve(newTestRouter(), http.MethodGet, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Not found"}`, rec.Body.String())
}

func TestStaticShellFallback(t *testing.T) {
	h := newTestRouter()

	rec := serve(h, http.MethodGet, "/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	rec = serve(h, http.MethodGet, "/admin/users")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>taskhub</title>")

	rec = serve(h, http.MethodPost, "/admin/users")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter()
	serve(h, http.MethodGet, "/healthz")
	rec := serve(h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taskhub_http_requests_total")
}
