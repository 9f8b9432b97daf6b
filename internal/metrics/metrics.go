// Package metrics exposes Prometheus instrumentation for the server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/ganot/parley/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parley"

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	events      *prometheus.CounterVec
	rpcRequests *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	rateLimited prometheus.Counter
}

// New creates and registers the server collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Thread activity events published, by kind.",
		}, []string{"kind"}),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls handled, by method and outcome.",
		}, []string{"method", "outcome"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC call latency, by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.events,
		m.rpcRequests,
		m.rpcDuration,
		m.rateLimited,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRPC records one handled call. outcome is "ok" or an error kind.
func (m *Metrics) ObserveRPC(method, outcome string, elapsed time.Duration) {
	m.rpcRequests.WithLabelValues(method, outcome).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// TrackGauge registers a gauge computed on scrape.
func (m *Metrics) TrackGauge(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Hub counts published events by kind before handing them to the wrapped
// hub.
type Hub struct {
	notify.Hub
	metrics *Metrics
}

// InstrumentHub wraps hub with event counting.
func (m *Metrics) InstrumentHub(hub notify.Hub) *Hub {
	return &Hub{Hub: hub, metrics: m}
}

// Publish implements notify.Hub.
func (h *Hub) Publish(ctx context.Context, ev notify.Event) error {
	h.metrics.events.WithLabelValues(string(ev.Kind)).Inc()
	return h.Hub.Publish(ctx, ev)
}
