package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
	gradingTasksTotal       *prometheus.CounterVec
	notificationsPublished  *prometheus.CounterVec
	gradingQueueDepthsGauge prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors shared across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openlearn",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "openlearn",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for HTTP requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		gradingTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openlearn",
			Name:      "grading_tasks_total",
			Help:      "Background grading tasks by terminal outcome.",
		}, []string{"outcome"})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "openlearn",
			Name:      "notifications_published_total",
			Help:      "Notifications fanned out to users, by channel.",
		}, []string{"channel"})

		gradingQueueDepthsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "openlearn",
			Name:      "grading_queue_depth",
			Help:      "Jobs currently waiting in the grading queue.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			gradingTasksTotal,
			notificationsPublished,
			gradingQueueDepthsGauge,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// GradingTasks exposes the grading outcome counter.
func GradingTasks() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingTasksTotal
}

// NotificationsPublished exposes the notification fan-out counter.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

// GradingQueueDepth exposes the queue depth gauge.
func GradingQueueDepth() prometheus.Gauge {
	RegisterMetrics()
	return gradingQueueDepthsGauge
}
