package metric

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "geminid"

// Registry holds all server metrics.
//
// All methods are safe on a nil *Registry, which records nothing.
type Registry struct {
	registry *prometheus.Registry

	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge
	HandshakeFailures prometheus.Counter
	ConnectionErrors  *prometheus.CounterVec
	ResponsesTotal    *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
}

// NewRegistry creates a registry with every geminid metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Accepted TCP connections.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Connections currently being served.",
		}),
		HandshakeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_failures_total",
			Help:      "TLS handshakes that did not complete.",
		}),
		ConnectionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_errors_total",
			Help:      "Connections that ended in error, by the stage they failed in.",
		}, []string{"stage"}),
		ResponsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Responses written, by status code.",
		}, []string{"status"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from accepted connection to close.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		r.ConnectionsTotal,
		r.ConnectionsActive,
		r.HandshakeFailures,
		r.ConnectionErrors,
		r.ResponsesTotal,
		r.RequestDuration,
	)
	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler serves the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler serves this registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Prometheus exposes the underlying registry so other components can add
// their own collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.ConnectionsTotal.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records the end of a connection and how long it lived.
func (r *Registry) ConnClosed(seconds float64) {
	if r == nil {
		return
	}
	r.ConnectionsActive.Dec()
	r.RequestDuration.Observe(seconds)
}

// IncHandshakeFailure records a failed TLS handshake.
func (r *Registry) IncHandshakeFailure() {
	if r == nil {
		return
	}
	r.HandshakeFailures.Inc()
}

// RecordConnError records a connection that failed in stage.
func (r *Registry) RecordConnError(stage string) {
	if r == nil {
		return
	}
	r.ConnectionErrors.WithLabelValues(stage).Inc()
}

// RecordResponse records a response header written with status.
func (r *Registry) RecordResponse(status uint8) {
	if r == nil {
		return
	}
	r.ResponsesTotal.WithLabelValues(strconv.Itoa(int(status))).Inc()
}
