package batch

import "github.com/prometheus/client_golang/prometheus"

var (
	// submissions counts submit/retry calls by outcome:
	// success, partial, failed, invalid.
	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passbatch_submissions_total",
			Help: "Batch submissions by outcome.",
		},
		[]string{"outcome"},
	)

	// recordOutcomes counts per-record results reported by the remote API.
	recordOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passbatch_records_total",
			Help: "Submitted pass records by result.",
		},
		[]string{"result"},
	)

	// retries counts automatic retries by error category.
	retries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passbatch_retries_total",
			Help: "Automatic retries of batch submissions by error category.",
		},
		[]string{"category"},
	)

	// submitLatency records the wall time of a submission including retries.
	submitLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "passbatch_submit_duration_seconds",
			Help:    "Duration of batch submissions including retries.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

func init() {
	prometheus.MustRegister(submissions, recordOutcomes, retries, submitLatency)
}
