package service

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the export pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	exportOutcomes  *prometheus.CounterVec
	archivesBuilt   prometheus.Counter
	reapedArchives  prometheus.Counter
	reapedMedia     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	exportOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "export_jobs_total",
		Help: "Export job attempts by outcome",
	}, []string{"outcome"})

	archivesBuilt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "export_archives_built_total",
		Help: "Total archive parts uploaded by completed exports",
	})

	reapedArchives := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reaper_archives_deleted_total",
		Help: "Total expired archive blobs removed by the reaper",
	})

	reapedMedia := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reaper_media_purged_total",
		Help: "Total expired media rows purged by the reaper",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, exportOutcomes, archivesBuilt, reapedArchives, reapedMedia, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		exportOutcomes:  exportOutcomes,
		archivesBuilt:   archivesBuilt,
		reapedArchives:  reapedArchives,
		reapedMedia:     reapedMedia,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"method": method, "path": path, "status": httpStatusLabel(status)}
	m.requestDuration.With(labels).Observe(duration.Seconds())
	m.requestTotal.With(labels).Inc()
}

// ObserveExportOutcome counts one export attempt result.
func (m *MetricsService) ObserveExportOutcome(outcome string) {
	if m == nil {
		return
	}
	m.exportOutcomes.WithLabelValues(outcome).Inc()
}

// AddArchivesBuilt counts uploaded archive parts.
func (m *MetricsService) AddArchivesBuilt(n int) {
	if m == nil {
		return
	}
	m.archivesBuilt.Add(float64(n))
}

// AddReapedArchives counts archive blobs removed by the reaper.
func (m *MetricsService) AddReapedArchives(n int) {
	if m == nil {
		return
	}
	m.reapedArchives.Add(float64(n))
}

// AddReapedMedia counts media rows purged by the reaper.
func (m *MetricsService) AddReapedMedia(n int) {
	if m == nil {
		return
	}
	m.reapedMedia.Add(float64(n))
}

func httpStatusLabel(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
