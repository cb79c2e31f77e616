package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requestCount    *prometheus.CounterVec
	errorCount      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	deliveries        *prometheus.CounterVec
	droppedDeliveries prometheus.Counter
	activeConnections prometheus.Gauge

	auditAppended       prometheus.Counter
	auditAppendFailures prometheus.Counter
	relayDropped        prometheus.Counter
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "HTTP requests that ended in a domain error, by code.",
		}, []string{"path", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_deliveries_total",
			Help: "Frames queued to socket connections, by event.",
		}, []string{"event"}),
		droppedDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_dropped_deliveries_total",
			Help: "Frames dropped because a connection's outbound queue was full or closed.",
		}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_active_connections",
			Help: "Currently registered socket connections.",
		}),
		auditAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activity_audit_entries_appended_total",
			Help: "Activity log entries persisted.",
		}),
		auditAppendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activity_audit_append_failures_total",
			Help: "Activity log batches that could not be persisted after retries.",
		}),
		relayDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_relay_dropped_total",
			Help: "Envelopes not forwarded to the cross-instance relay.",
		}),
	}
	reg.MustRegister(
		m.requestCount, m.errorCount, m.requestDuration,
		m.deliveries, m.droppedDeliveries, m.activeConnections,
		m.auditAppended, m.auditAppendFailures, m.relayDropped,
	)
	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}

// RecordDelivery counts a frame queued to one connection.
func (m *Metrics) RecordDelivery(event string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(event).Inc()
}

// RecordDroppedDelivery counts a frame a slow or closed connection never got.
func (m *Metrics) RecordDroppedDelivery() {
	if m == nil {
		return
	}
	m.droppedDeliveries.Inc()
}

// SetActiveConnections reports the registry size.
func (m *Metrics) SetActiveConnections(n int) {
	if m == nil {
		return
	}
	m.activeConnections.Set(float64(n))
}

// RecordAuditAppended counts persisted activity entries.
func (m *Metrics) RecordAuditAppended(n int) {
	if m == nil {
		return
	}
	m.auditAppended.Add(float64(n))
}

// RecordAuditAppendFailure counts a batch lost after retries.
func (m *Metrics) RecordAuditAppendFailure() {
	if m == nil {
		return
	}
	m.auditAppendFailures.Inc()
}

// RecordRelayDropped counts envelopes the relay could not forward.
func (m *Metrics) RecordRelayDropped() {
	if m == nil {
		return
	}
	m.relayDropped.Inc()
}
