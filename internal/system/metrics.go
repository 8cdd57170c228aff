// Package system provides system-level services for monitoring.
package system

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects hub metrics. Collectors are registered on a caller-owned
// registry so independent instances can coexist (and tests stay isolated).
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	connectionsTotal  prometheus.Counter
	connectionsActive prometheus.Gauge
	messagesTotal     *prometheus.CounterVec
	framesDropped     prometheus.Counter
	errorsTotal       prometheus.Counter
}

// NewMetrics creates a metrics service on its own registry. roomCount, when
// non-nil, is sampled on scrape for the active-rooms gauge.
func NewMetrics(roomCount func() int) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,

		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncd_ws_connections_total",
			Help: "Total number of WebSocket connections accepted",
		}),
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "syncd_ws_connections_active",
			Help: "Number of currently open WebSocket connections",
		}),
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syncd_ws_messages_total",
			Help: "Total number of inbound messages by type",
		}, []string{"type"}),
		framesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncd_ws_frames_dropped_total",
			Help: "Total number of outbound frames dropped on congested or closed sessions",
		}),
		errorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syncd_protocol_errors_total",
			Help: "Total number of error frames sent to clients",
		}),
	}

	if roomCount != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "syncd_rooms_active",
			Help: "Number of active rooms",
		}, func() float64 {
			return float64(roomCount())
		})
	}

	return m
}

// Handler returns an HTTP handler for exposing metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ConnectionOpened records an accepted connection.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
	m.connectionsActive.Inc()
}

// ConnectionClosed records a closed connection.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

// MessageReceived records an inbound message of the given type.
func (m *Metrics) MessageReceived(msgType string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(msgType).Inc()
}

// FrameDropped records an outbound frame dropped on a slow or closed peer.
func (m *Metrics) FrameDropped() {
	if m == nil {
		return
	}
	m.framesDropped.Inc()
}

// ErrorSent records an error frame sent to a client.
func (m *Metrics) ErrorSent() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}
