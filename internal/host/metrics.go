package host

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the host daemon's Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal *prometheus.CounterVec
	ErrorsTotal   *prometheus.CounterVec
	Connections   prometheus.Gauge
	BundleBytes   *prometheus.CounterVec
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridged_requests_total",
				Help: "Total bridge requests handled, by action",
			},
			[]string{"action"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridged_errors_total",
				Help: "Total bridge requests answered with an error, by action",
			},
			[]string{"action"},
		),
		Connections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridged_connections",
				Help: "Currently open channel connections",
			},
		),
		BundleBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridged_bundle_bytes_total",
				Help: "Raw bundle bytes served, by bundle",
			},
			[]string{"bundle"},
		),
	}

	reg.MustRegister(m.RequestsTotal, m.ErrorsTotal, m.Connections, m.BundleBytes)
	return m
}

// Registry exposes the underlying registry for the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
