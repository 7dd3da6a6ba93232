package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "counsel",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "counsel",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "counsel",
			Subsystem: "session",
			Name:      "submissions_total",
			Help:      "Submissions by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "counsel",
			Subsystem: "session",
			Name:      "analysis_duration_seconds",
			Help:      "Analysis service call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "counsel",
			Subsystem: "session",
			Name:      "uploads_total",
			Help:      "Attachment uploads by outcome",
		},
		[]string{"outcome"},
	)

	FindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "counsel",
			Subsystem: "risk",
			Name:      "findings_total",
			Help:      "Risk findings produced by severity",
		},
		[]string{"severity"},
	)
)

// RecordRequest records HTTP request metrics.
func RecordRequest(method, endpoint, status string, duration float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(duration)
}

// RecordSubmission increments the submission counter for outcome.
func RecordSubmission(outcome string) {
	SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordUpload increments the upload counter for outcome.
func RecordUpload(outcome string) {
	UploadsTotal.WithLabelValues(outcome).Inc()
}

// RecordFinding increments the findings counter for severity.
func RecordFinding(severity string) {
	FindingsTotal.WithLabelValues(severity).Inc()
}
