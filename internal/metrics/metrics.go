package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the server. A nil *Metrics is
// valid and records nothing, so components can run without a registry.
type Metrics struct {
	registry *prometheus.Registry

	// Tool metrics
	ToolInvocationsTotal   *prometheus.CounterVec
	ToolInvocationDuration *prometheus.HistogramVec

	// Auth metrics
	AuthFailuresTotal *prometheus.CounterVec

	// Provider metrics
	ProviderCallsTotal   *prometheus.CounterVec
	ProviderCallDuration *prometheus.HistogramVec

	// Queue metrics
	QueueInFlight prometheus.Gauge

	// Transport metrics
	RPCRequestsTotal    *prometheus.CounterVec
	WSConnectionsActive prometheus.Gauge
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ToolInvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_tool_invocations_total",
				Help: "Total number of tool invocations by outcome",
			},
			[]string{"tool", "outcome"},
		),
		ToolInvocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quill_tool_invocation_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),

		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_auth_failures_total",
				Help: "Total number of rejected credentials",
			},
			[]string{"transport"},
		),

		ProviderCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_provider_calls_total",
				Help: "Total number of completion provider calls",
			},
			[]string{"provider", "status"},
		),
		ProviderCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quill_provider_call_duration_seconds",
				Help:    "Duration of completion provider calls in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"provider"},
		),

		QueueInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quill_queue_in_flight",
				Help: "Number of provider calls currently running",
			},
		),

		RPCRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_rpc_requests_total",
				Help: "Total number of JSON-RPC requests by method",
			},
			[]string{"transport", "method"},
		),
		WSConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "quill_ws_connections_active",
				Help: "Number of open WebSocket connections",
			},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.ToolInvocationsTotal)
	m.registry.MustRegister(m.ToolInvocationDuration)
	m.registry.MustRegister(m.AuthFailuresTotal)
	m.registry.MustRegister(m.ProviderCallsTotal)
	m.registry.MustRegister(m.ProviderCallDuration)
	m.registry.MustRegister(m.QueueInFlight)
	m.registry.MustRegister(m.RPCRequestsTotal)
	m.registry.MustRegister(m.WSConnectionsActive)
}

// ObserveToolInvocation records one dispatched call.
func (m *Metrics) ObserveToolInvocation(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ToolInvocationsTotal.WithLabelValues(tool, outcome).Inc()
	m.ToolInvocationDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// AuthFailure counts a rejected credential.
func (m *Metrics) AuthFailure(transport string) {
	if m == nil {
		return
	}
	m.AuthFailuresTotal.WithLabelValues(transport).Inc()
}

// ObserveProviderCall records one outbound completion request.
func (m *Metrics) ObserveProviderCall(provider string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ProviderCallsTotal.WithLabelValues(provider, status).Inc()
	m.ProviderCallDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// QueueStarted and QueueFinished bracket a running queue task.
func (m *Metrics) QueueStarted() {
	if m == nil {
		return
	}
	m.QueueInFlight.Inc()
}

func (m *Metrics) QueueFinished() {
	if m == nil {
		return
	}
	m.QueueInFlight.Dec()
}

// RPCRequest counts one decoded JSON-RPC message.
func (m *Metrics) RPCRequest(transport, method string) {
	if m == nil {
		return
	}
	m.RPCRequestsTotal.WithLabelValues(transport, method).Inc()
}

// WSConnected adjusts the open connection gauge by delta.
func (m *Metrics) WSConnected(delta int) {
	if m == nil {
		return
	}
	m.WSConnectionsActive.Add(float64(delta))
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
