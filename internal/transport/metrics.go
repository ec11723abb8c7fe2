// metrics.go — Prometheus collectors for the transport.
// Each Server owns its registry so parallel test servers never collide on
// collector registration.
package transport

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the transport collectors.
type Metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	sseConnections prometheus.Gauge
	toolDuration   *prometheus.HistogramVec
}

// NewMetrics builds the collector set on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_requests_total",
			Help: "MCP requests by HTTP method and response status.",
		}, []string{"method", "status"}),
		sseConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mcp_sse_connections",
			Help: "Open SSE streams.",
		}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mcp_tool_duration_seconds",
			Help:    "Tool call duration by tool and outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool", "ok"}),
	}
}

// CountRequest records one finished HTTP request.
func (m *Metrics) CountRequest(method string, status int) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// StreamOpened and StreamClosed track the SSE gauge.
func (m *Metrics) StreamOpened() { m.sseConnections.Inc() }
func (m *Metrics) StreamClosed() { m.sseConnections.Dec() }

// ObserveTool records a tool call duration. Wired into the tool service as
// its Observer.
func (m *Metrics) ObserveTool(tool string, seconds float64, ok bool) {
	m.toolDuration.WithLabelValues(tool, strconv.FormatBool(ok)).Observe(seconds)
}

// Handler serves the Prometheus text exposition.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
