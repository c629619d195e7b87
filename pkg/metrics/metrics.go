package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec

	// Notification metrics
	NotificationsCreated   *prometheus.CounterVec
	NotificationFailures   *prometheus.CounterVec
	NotificationsPublished *prometheus.CounterVec
	NotificationsPurged    prometheus.Counter

	// Lab result metrics
	LabResultsSent prometheus.Counter

	// Dashboard metrics
	DashboardCache *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them with reg.
// A nil reg registers with the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path", "status"}),
		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		NotificationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Total number of stored notifications by recipient type",
		}, []string{"recipient"}),
		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_dispatch_failures_total",
			Help:      "Notifications that could not be created after a state change",
		}, []string{"operation"}),
		NotificationsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_published_total",
			Help:      "Realtime and email fan-out attempts by publisher and status",
		}, []string{"publisher", "status"}),
		NotificationsPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_purged_total",
			Help:      "Read notifications removed by the cleanup worker",
		}),

		LabResultsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lab_results_sent_total",
			Help:      "Lab results released to patients",
		}),

		DashboardCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_cache_total",
			Help:      "Dashboard stats cache lookups by result",
		}, []string{"result"}),
	}
}
