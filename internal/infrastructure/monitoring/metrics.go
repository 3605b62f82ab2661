package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the kernel memory subsystem
// and its inspection API.
type Metrics struct {
	// HTTP metrics (inspection API)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Kernel memory metrics
	RegionUsedBytes     *prometheus.GaugeVec
	SharedMemoryLive    prometheus.Gauge
	SharedMemoryCreated prometheus.Counter
	MemoryOps           *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with its own registry, so
// independent kernel instances (and tests) do not collide.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	m := &Metrics{
		startTime: time.Now(),
		registry:  registry,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_http_requests_total",
				Help: "Total number of inspection API requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kernel_http_request_duration_seconds",
				Help:    "Inspection API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RegionUsedBytes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kernel_memory_region_used_bytes",
				Help: "Allocated bytes per physical memory region",
			},
			[]string{"region"},
		),
		SharedMemoryLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_shared_memory_objects",
				Help: "Live shared memory objects",
			},
		),
		SharedMemoryCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "kernel_shared_memory_created_total",
				Help: "Shared memory objects created since boot",
			},
		),
		MemoryOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_memory_ops_total",
				Help: "Map/unmap operations by outcome",
			},
			[]string{"op", "result"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_uptime_seconds",
				Help: "Seconds since kernel boot",
			},
		),
	}
	return m
}

// RecordHTTPRequest records an inspection API request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetRegionUsed updates the used-bytes gauge of a region.
func (m *Metrics) SetRegionUsed(region string, bytes float64) {
	m.RegionUsedBytes.WithLabelValues(region).Set(bytes)
}

// RecordMemoryOp counts one map/unmap operation outcome.
func (m *Metrics) RecordMemoryOp(op, result string) {
	m.MemoryOps.WithLabelValues(op, result).Inc()
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
