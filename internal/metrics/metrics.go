// Package metrics exposes Prometheus collectors for upstream fetches,
// stored snapshots and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels for upstream requests.
const (
	ResultOK         = "ok"
	ResultFetchError = "fetch_error"
	ResultParseError = "parse_error"
)

// Metrics is safe to use as a nil pointer; every method becomes a no-op.
type Metrics struct {
	registry         *prometheus.Registry
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	snapshotsStored  prometheus.Counter
	httpRequests     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riverwatch_upstream_requests_total",
			Help: "Upstream API requests by source and result.",
		}, []string{"source", "result"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riverwatch_upstream_request_duration_seconds",
			Help:    "Upstream API request latency by source.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		snapshotsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riverwatch_snapshots_stored_total",
			Help: "Snapshots appended to the readings table.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riverwatch_http_requests_total",
			Help: "HTTP requests served by method and status.",
		}, []string{"method", "status"}),
	}

	m.registry.MustRegister(
		m.upstreamRequests,
		m.upstreamDuration,
		m.snapshotsStored,
		m.httpRequests,
	)
	return m
}

func (m *Metrics) ObserveUpstream(source, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(source, result).Inc()
	m.upstreamDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) IncSnapshotsStored() {
	if m == nil {
		return
	}
	m.snapshotsStored.Inc()
}

func (m *Metrics) ObserveHTTP(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
