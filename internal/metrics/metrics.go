// Package metrics defines the Prometheus collectors shared by the regen
// service, the poller, and the local store server.
//
// Collectors are registered on a caller-supplied registry so tests and
// multiple servers in one process never collide. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "regenq"

// Result labels.
const (
	ResultOK        = "ok"
	ResultCoalesced = "coalesced"
	ResultSkipped   = "skipped"
)

// Metrics groups every regenq collector.
type Metrics struct {
	registry *prometheus.Registry

	regenRequests *prometheus.CounterVec
	triggerCalls  *prometheus.CounterVec
	pollReads     *prometheus.CounterVec
	pollOutcomes  *prometheus.CounterVec
	activePollers prometheus.Gauge
	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		// Labels: field ("all" for every field), result (ok, coalesced, or an error kind)
		regenRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "regen",
			Name:      "requests_total",
			Help:      "Regeneration requests by field and result",
		}, []string{"field", "result"}),
		// Labels: result (ok, skipped, or an error kind)
		triggerCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "calls_total",
			Help:      "Worker webhook calls by result",
		}, []string{"result"}),
		pollReads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "reads_total",
			Help:      "Latest-by-slug reads issued by pollers",
		}, []string{"result"}),
		// Labels: state (finished, error, cancelled, timeout)
		pollOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "outcomes_total",
			Help:      "Poll rounds by final state",
		}, []string{"state"}),
		activePollers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "active",
			Help:      "Pollers currently in the polling state",
		}),
		apiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Store server requests by route and status code class",
		}, []string{"route", "code"}),
		apiLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Store server request latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RegenRequest(field, result string) {
	if m == nil {
		return
	}
	m.regenRequests.WithLabelValues(field, result).Inc()
}

func (m *Metrics) TriggerCall(result string) {
	if m == nil {
		return
	}
	m.triggerCalls.WithLabelValues(result).Inc()
}

func (m *Metrics) PollRead(result string) {
	if m == nil {
		return
	}
	m.pollReads.WithLabelValues(result).Inc()
}

func (m *Metrics) PollOutcome(state string) {
	if m == nil {
		return
	}
	m.pollOutcomes.WithLabelValues(state).Inc()
}

// PollerActive adjusts the active poller gauge by delta.
func (m *Metrics) PollerActive(delta float64) {
	if m == nil {
		return
	}
	m.activePollers.Add(delta)
}

// APIRequest records one store server request.
func (m *Metrics) APIRequest(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(route, codeClass(code)).Inc()
	m.apiLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func codeClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
