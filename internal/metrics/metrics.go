package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	// Detection loop counters
	Ticks          atomic.Uint64
	TicksSkipped   atomic.Uint64
	ClassifyErrors atomic.Uint64
	DemoTicks      atomic.Uint64

	// Detections recorded per source
	ClassifierDetections atomic.Uint64
	DemoDetections       atomic.Uint64

	// Latency tracking
	ClassifyLatencyMs atomic.Uint64 // Last classification latency in ms

	// Camera
	CameraErrors    atomic.Uint64
	MonitoringState atomic.Uint64 // 0 = standby, 1 = monitoring

	// Viewers and notifications
	ActiveViewers       atomic.Int64
	NotificationsSent   atomic.Uint64
	NotificationsFailed atomic.Uint64

	// Archive
	ArchivedDetections atomic.Uint64
	ArchiveErrors      atomic.Uint64

	// Prometheus collectors
	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.registerPrometheusMetrics()

	return m
}

func (m *Metrics) counter(name, help string, value *atomic.Uint64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{Name: name, Help: help},
		func() float64 { return float64(value.Load()) },
	))
}

// registerPrometheusMetrics registers all metrics with Prometheus
func (m *Metrics) registerPrometheusMetrics() {
	m.counter("guardian_detection_ticks_total", "Total detection ticks", &m.Ticks)
	m.counter("guardian_detection_ticks_skipped_total", "Ticks skipped for lack of an active source or frame", &m.TicksSkipped)
	m.counter("guardian_classify_errors_total", "Classifier invocations that failed", &m.ClassifyErrors)
	m.counter("guardian_demo_ticks_total", "Total demo generator ticks", &m.DemoTicks)
	m.counter("guardian_detections_classifier_total", "Detections produced by the classifier", &m.ClassifierDetections)
	m.counter("guardian_detections_demo_total", "Detections produced by the demo generator", &m.DemoDetections)
	m.counter("guardian_camera_errors_total", "Camera acquisition failures", &m.CameraErrors)
	m.counter("guardian_notifications_sent_total", "Push notifications delivered", &m.NotificationsSent)
	m.counter("guardian_notifications_failed_total", "Push notifications that failed", &m.NotificationsFailed)
	m.counter("guardian_archived_detections_total", "Detections flushed to the archive", &m.ArchivedDetections)
	m.counter("guardian_archive_errors_total", "Archive write failures", &m.ArchiveErrors)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "guardian_classify_latency_ms",
			Help: "Last classification latency in milliseconds",
		},
		func() float64 { return float64(m.ClassifyLatencyMs.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "guardian_monitoring_active",
			Help: "Monitoring active (0=standby, 1=active)",
		},
		func() float64 { return float64(m.MonitoringState.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "guardian_active_viewers",
			Help: "Number of connected websocket viewers",
		},
		func() float64 { return float64(m.ActiveViewers.Load()) },
	))
}

// RegisterWindowGauge exposes the current rolling window length.
func (m *Metrics) RegisterWindowGauge(size func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "guardian_window_detections",
			Help: "Detections currently held in the rolling window",
		},
		func() float64 { return float64(size()) },
	))
}

// ObserveClassifyLatency stores the latency of the last classification
func (m *Metrics) ObserveClassifyLatency(d time.Duration) {
	m.ClassifyLatencyMs.Store(uint64(d.Milliseconds()))
}

// SetMonitoring records the monitoring state
func (m *Metrics) SetMonitoring(active bool) {
	if active {
		m.MonitoringState.Store(1)
		return
	}
	m.MonitoringState.Store(0)
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
