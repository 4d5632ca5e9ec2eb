package infrastructure

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ListingsLoaded  prometheus.Gauge
	ListingsKept    prometheus.Gauge
	DatasetLoads    prometheus.Counter
}

// NewMetrics creates and registers the application collectors on a
// dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bnbpulse_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bnbpulse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ListingsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bnbpulse_listings_loaded",
			Help: "Rows in the raw combined table after the last load",
		}),
		ListingsKept: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bnbpulse_listings_kept",
			Help: "Rows surviving preprocessing after the last load",
		}),
		DatasetLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bnbpulse_dataset_loads_total",
			Help: "Number of dataset load and preprocess runs",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ListingsLoaded,
		m.ListingsKept,
		m.DatasetLoads,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, statusLabel(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
