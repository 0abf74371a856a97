// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReferenceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_reference_fetches_total",
			Help: "Reference list fetches by list and outcome",
		},
		[]string{"list", "outcome"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_application_submissions_total",
			Help: "Application submissions by outcome",
		},
		[]string{"outcome"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_validation_failures_total",
			Help: "Field validation failures by field",
		},
		[]string{"field"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_backend_request_duration_seconds",
			Help:    "Duration of candidate service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Portal HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	HTTPPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_panics_total",
			Help: "Recovered handler panics by route",
		},
		[]string{"route"},
	)

	SubmissionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_submissions_in_flight",
			Help: "Candidate submissions currently waiting on the backend",
		},
	)
)

// Outcome labels shared by the counters above.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
	OutcomeBlocked  = "blocked"
	OutcomeCanceled = "canceled"
)
