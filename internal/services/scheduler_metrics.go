// Package services – scheduler metrics
//
// Prometheus collectors describing the assignment run. Outcome labels are a
// fixed set so cardinality stays bounded:
//
//   - completed:    the run wrote every record and flipped has_run
//   - skipped:      has_run was already true; nothing was written
//   - insufficient: fewer than two participants at the deadline
//   - failed:       any other error; the transaction was rolled back
package services

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeCompleted    = "completed"
	outcomeSkipped      = "skipped"
	outcomeInsufficient = "insufficient"
	outcomeFailed       = "failed"
)

var (
	assignmentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gift_assignment_runs_total",
			Help: "Assignment run attempts by outcome.",
		},
		[]string{"outcome"},
	)

	assignmentCompleted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gift_assignment_completed",
			Help: "1 once assignments have been durably recorded, else 0.",
		},
	)

	assignmentRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gift_assignment_run_duration_seconds",
			Help:    "Duration of assignment runs that reached the database.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(assignmentRuns, assignmentCompleted, assignmentRunDuration)
}
