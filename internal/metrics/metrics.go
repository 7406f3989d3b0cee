package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the panel.
// It includes counters and histograms for backend calls, page views,
// list actions, sessions and report generation.
type Metrics struct {
	BackendRequests  *prometheus.CounterVec   // Counter for backend calls by operation and outcome
	BackendDuration  *prometheus.HistogramVec // Histogram for backend call durations
	PageViews        *prometheus.CounterVec   // Counter for rendered pages
	Actions          *prometheus.CounterVec   // Counter for list actions by outcome
	Logins           *prometheus.CounterVec   // Counter for login attempts
	ActiveViews      prometheus.Gauge         // Gauge for mounted list views
	SessionStoreOps  *prometheus.CounterVec   // Counter for session store operations
	ReportGeneration *prometheus.HistogramVec // Histogram for xlsx export durations
}

// NewMetrics creates a new Metrics instance with the provided Prometheus Registerer.
//
// Parameters:
//   - reg: A Prometheus Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		BackendRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Total number of requests sent to the employee backend",
		}, []string{"operation", "status"}), // status: http status code or "error"
		BackendDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Duration of employee backend requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}), // operation: login, list, get, create, update, toggle, delete
		PageViews: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "panel_page_views_total",
			Help: "Total number of rendered panel pages",
		}, []string{"page"}),
		Actions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "panel_actions_total",
			Help: "List actions by outcome",
		}, []string{"action", "result"}), // result: ok, failed, rejected
		Logins: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "panel_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"result"}),
		ActiveViews: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "panel_mounted_views",
			Help: "Number of mounted employee list views",
		}),
		SessionStoreOps: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "session_store_operations_total",
			Help: "Session store operations by outcome",
		}, []string{"operation", "result"}),
		ReportGeneration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "report_generation_duration_seconds",
			Help: "Duration of report excel generation.",
		}, []string{"source"}), // source: panel, cli
	}
}
