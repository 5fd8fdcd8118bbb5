// Package prom implements the observability hooks with Prometheus metrics.
//
// All collectors are registered on the [prometheus.Registerer] passed to
// [Register], so tests can use a private registry.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/partscout/pkg/observability"
)

const namespace = "partscout"

// Hooks implements SearchHooks, CacheHooks and HTTPHooks.
type Hooks struct {
	searches       *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	searchParts    *prometheus.CounterVec
	setupFailures  *prometheus.CounterVec
	cacheOps       *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpErrors     *prometheus.CounterVec
	retries        prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Hooks, error) {
	h := &Hooks{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supplier_searches_total",
			Help:      "Supplier searches by outcome.",
		}, []string{"supplier", "outcome"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "supplier_search_duration_seconds",
			Help:      "Duration of supplier searches.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"supplier"}),
		searchParts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supplier_parts_total",
			Help:      "Parts returned by supplier searches.",
		}, []string{"supplier"}),
		setupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supplier_setup_failures_total",
			Help:      "Suppliers that failed to configure.",
		}, []string{"supplier"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes.",
		}, []string{"backend", "op"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}, []string{"backend"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_requests_total",
			Help:      "Outgoing HTTP requests by host and status class.",
		}, []string{"method", "host", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_client_request_duration_seconds",
			Help:      "Duration of outgoing HTTP requests.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10},
		}, []string{"method", "host"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_errors_total",
			Help:      "Outgoing HTTP requests that failed before a response.",
		}, []string{"method", "host"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_retries_total",
			Help:      "Retried supplier calls.",
		}),
	}

	for _, c := range []prometheus.Collector{
		h.searches, h.searchDuration, h.searchParts, h.setupFailures,
		h.cacheOps, h.cacheBytes,
		h.httpRequests, h.httpDuration, h.httpErrors, h.retries,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Install registers h as the global search, cache and HTTP hooks.
func (h *Hooks) Install() {
	observability.SetSearchHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// Handler returns the scrape handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (h *Hooks) OnSearchStart(context.Context, string, string) {}

func (h *Hooks) OnSearchComplete(_ context.Context, supplier, _ string, parts int, d time.Duration, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case parts == 0:
		outcome = "empty"
	}
	h.searches.WithLabelValues(supplier, outcome).Inc()
	h.searchDuration.WithLabelValues(supplier).Observe(d.Seconds())
	h.searchParts.WithLabelValues(supplier).Add(float64(parts))
}

func (h *Hooks) OnSetupFailed(_ context.Context, supplier string, _ error) {
	h.setupFailures.WithLabelValues(supplier).Inc()
}

func (h *Hooks) OnCacheHit(_ context.Context, backend string) {
	h.cacheOps.WithLabelValues(backend, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, backend string) {
	h.cacheOps.WithLabelValues(backend, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, backend string, size int) {
	h.cacheOps.WithLabelValues(backend, "set").Inc()
	h.cacheBytes.WithLabelValues(backend).Add(float64(size))
}

func (h *Hooks) OnRequest(context.Context, string, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, method, host, _ string, status int, d time.Duration) {
	h.httpRequests.WithLabelValues(method, host, statusClass(status)).Inc()
	h.httpDuration.WithLabelValues(method, host).Observe(d.Seconds())
}

func (h *Hooks) OnError(_ context.Context, method, host, _ string, _ error) {
	h.httpErrors.WithLabelValues(method, host).Inc()
}

func (h *Hooks) OnRetry(context.Context, int, error) {
	h.retries.Inc()
}

// statusClass buckets a status code into "2xx" style classes.
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

var (
	_ observability.SearchHooks = (*Hooks)(nil)
	_ observability.CacheHooks  = (*Hooks)(nil)
	_ observability.HTTPHooks   = (*Hooks)(nil)
)
