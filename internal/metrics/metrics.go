package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Buckets for invocation duration in milliseconds.
var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Metrics wraps the prometheus collectors shared by the runtime host
// and the emulator. All methods are safe on a nil receiver so callers
// can run without metrics wired.
type Metrics struct {
	registry *prometheus.Registry

	invocationsTotal   *prometheus.CounterVec
	invocationDuration prometheus.Histogram
	postsTotal         *prometheus.CounterVec
	pendingInvocations prometheus.Gauge
}

// New builds a Metrics instance on a private registry with the default
// Go and process collectors registered.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,

		invocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Total number of invocations by completion status",
			},
			[]string{"status"},
		),

		invocationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_ms",
				Help:      "Handler execution duration in milliseconds",
				Buckets:   defaultBuckets,
			},
		),

		postsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runtime_api_posts_total",
				Help:      "Total number of result documents posted to the control endpoint",
			},
			[]string{"kind"},
		),

		pendingInvocations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pending_invocations",
				Help:      "Invocations queued and not yet completed",
			},
		),
	}

	registry.MustRegister(
		m.invocationsTotal,
		m.invocationDuration,
		m.postsTotal,
		m.pendingInvocations,
	)

	return m
}

// ObserveInvocation records one completed invocation.
func (m *Metrics) ObserveInvocation(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.invocationsTotal.WithLabelValues(status).Inc()
	m.invocationDuration.Observe(float64(duration.Milliseconds()))
}

// IncPost counts one result document posted to the control endpoint.
func (m *Metrics) IncPost(kind string) {
	if m == nil {
		return
	}
	m.postsTotal.WithLabelValues(kind).Inc()
}

// AddPending adjusts the queued-invocation gauge.
func (m *Metrics) AddPending(delta float64) {
	if m == nil {
		return
	}
	m.pendingInvocations.Add(delta)
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
