package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Jobs
	JobsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tryon_jobs_started_total",
			Help: "Total number of try-on generations started",
		},
	)
	JobsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tryon_jobs_completed_total",
			Help: "Total number of try-on generations that completed",
		},
	)
	JobsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tryon_jobs_failed_total",
			Help: "Total number of try-on generations that failed, by reason",
		},
		[]string{"reason"}, // reason: input|provider|upload|store
	)
	JobDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tryon_job_duration_seconds",
			Help:    "Histogram of end-to-end generation durations",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9), // 1s..256s
		},
	)

	// Provider calls
	ProviderDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tryon_provider_duration_seconds",
			Help:    "Duration of provider generate calls",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9),
		},
		[]string{"provider"},
	)

	// Result uploads
	UploadFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tryon_result_upload_failures_total",
			Help: "Number of individual result image uploads that failed",
		},
	)
)

// Register installs all collectors on the given registry.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		JobsStarted,
		JobsCompleted,
		JobsFailed,
		JobDurationSeconds,
		ProviderDurationSeconds,
		UploadFailures,
	)
}
