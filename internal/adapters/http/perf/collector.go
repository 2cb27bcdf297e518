// Package perf records request and query timings as Prometheus histograms.
package perf

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EntryKind distinguishes request vs query entries.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is a single timing record.
type Entry struct {
	Kind       EntryKind
	Path       string // HTTP route pattern or DB operation
	Method     string // HTTP method (empty for queries)
	StatusCode int    // HTTP status (0 for queries)
	DurationMs float64
	Timestamp  time.Time
}

// Collector owns a private Prometheus registry so several collectors can coexist in tests.
type Collector struct {
	registry     *prometheus.Registry
	requests     *prometheus.HistogramVec
	queries      *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	count        int64
}

// NewCollector creates a collector with request, query and cache metrics registered.
// POST: Returns a ready-to-use collector
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "motoclub_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		queries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "motoclub_db_query_duration_seconds",
			Help:    "Duration of SQLite operations in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "motoclub_view_cache_lookups_total",
			Help: "Rendered view cache lookups by result",
		}, []string{"result"}),
	}
	c.registry.MustRegister(c.requests, c.queries, c.cacheLookups)
	c.registry.MustRegister(collectors.NewGoCollector())
	return c
}

// Record observes an entry in the matching histogram.
// PRE: e is a valid Entry
func (c *Collector) Record(e Entry) {
	seconds := e.DurationMs / 1000.0
	switch e.Kind {
	case KindRequest:
		c.requests.WithLabelValues(e.Method, e.Path, strconv.Itoa(e.StatusCode)).Observe(seconds)
	case KindQuery:
		c.queries.WithLabelValues(e.Path).Observe(seconds)
	}
	atomic.AddInt64(&c.count, 1)
}

// CacheLookup counts a view cache hit or miss.
func (c *Collector) CacheLookup(hit bool) {
	if hit {
		c.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	c.cacheLookups.WithLabelValues("miss").Inc()
}

// TotalRecorded returns the total number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return atomic.LoadInt64(&c.count)
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
