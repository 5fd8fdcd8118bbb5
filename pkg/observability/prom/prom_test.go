package prom

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg)
	require.NoError(t, err)

	ctx := context.Background()
	h.OnSearchComplete(ctx, "ti", "LM358", 3, time.Second, nil)
	h.OnSearchComplete(ctx, "ti", "NOPE", 0, time.Second, nil)
	h.OnSearchComplete(ctx, "future", "LM358", 0, time.Second, errors.New("boom"))
	h.OnSetupFailed(ctx, "future", errors.New("missing api_key"))

	assert.Equal(t, 1.0, testutil.ToFloat64(h.searches.WithLabelValues("ti", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.searches.WithLabelValues("ti", "empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.searches.WithLabelValues("future", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.searchParts.WithLabelValues("ti")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.setupFailures.WithLabelValues("future")))
}

func TestHTTPAndCacheMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg)
	require.NoError(t, err)

	ctx := context.Background()
	h.OnResponse(ctx, "GET", "api.example.com", "/x", 503, time.Millisecond)
	h.OnResponse(ctx, "GET", "api.example.com", "/x", 200, time.Millisecond)
	h.OnRetry(ctx, 2, errors.New("503"))
	h.OnCacheHit(ctx, "file")
	h.OnCacheSet(ctx, "file", 128)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.httpRequests.WithLabelValues("GET", "api.example.com", "5xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.retries))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.cacheOps.WithLabelValues("file", "hit")))
	assert.Equal(t, 128.0, testutil.ToFloat64(h.cacheBytes.WithLabelValues("file")))
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg)
	require.NoError(t, err)
	h.OnSearchComplete(context.Background(), "ti", "LM358", 1, time.Second, nil)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "partscout_supplier_searches_total"))
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{200: "2xx", 404: "4xx", 503: "5xx", 0: "unknown", 700: "unknown"}
	for code, want := range tests {
		assert.Equal(t, want, statusClass(code), "code %d", code)
	}
}
