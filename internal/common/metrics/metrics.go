// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomePersisted = "persisted"
	OutcomeDegraded  = "degraded"
	OutcomeFailed    = "failed"
)

var (
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survey_sessions_started_total",
			Help: "Total number of survey sessions started from the intake screen",
		},
	)

	AnswersRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_answers_total",
			Help: "Total number of answers recorded by choice",
		},
		[]string{"choice"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_submissions_total",
			Help: "Total number of submission attempts by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_submission_duration_seconds",
			Help:    "Duration of store writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	IdentityReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "survey_identity_ready",
			Help: "1 when a respondent identity is available, 0 otherwise",
		},
	)
)
