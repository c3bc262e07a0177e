package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the assistant's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	OutboundRequests *prometheus.CounterVec
	OutboundDuration *prometheus.HistogramVec
	PreferenceWrites *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		OutboundRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_outbound_requests_total",
			Help: "Outbound provider requests by provider and HTTP status.",
		}, []string{"provider", "status"}),
		OutboundDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assistant_outbound_request_duration_seconds",
			Help:    "Outbound provider request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		PreferenceWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_preference_writes_total",
			Help: "Persisted preference writes by storage key.",
		}, []string{"key"}),
	}

	reg.MustRegister(
		m.OutboundRequests,
		m.OutboundDuration,
		m.PreferenceWrites,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveOutbound records one provider round trip. status 0 means a transport error.
func (m *Metrics) ObserveOutbound(provider string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.OutboundRequests.WithLabelValues(provider, label).Inc()
	m.OutboundDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// PreferenceWritten counts a persisted write for key.
func (m *Metrics) PreferenceWritten(key string) {
	if m == nil {
		return
	}
	m.PreferenceWrites.WithLabelValues(key).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
