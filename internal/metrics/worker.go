package metrics

import "time"

var (
	jobsTotal = newCounterVec("jobs_total",
		"Delivery jobs by type and final status",
		"type", "status")

	jobRetries = newCounterVec("job_retries_total",
		"Failed job attempts that were rescheduled",
		"type")

	jobDuration = newHistogramVec("job_duration_seconds",
		"Time spent in one job attempt",
		[]float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
		"type")
)

var jobsInFlight = newGaugeVec("jobs_in_flight", "Jobs currently being processed", "type")

// JobStarted marks a job as in flight.
func JobStarted(jobType string) {
	jobsInFlight.WithLabelValues(jobType).Inc()
}

// JobCompleted records a successful attempt.
func JobCompleted(jobType string, d time.Duration) {
	finishJob(jobType, d)
	jobsTotal.WithLabelValues(jobType, "completed").Inc()
}

// JobFailed records an attempt after which the job is given up.
func JobFailed(jobType string, d time.Duration) {
	finishJob(jobType, d)
	jobsTotal.WithLabelValues(jobType, "failed").Inc()
}

// JobRetried records a failed attempt that was rescheduled.
func JobRetried(jobType string, d time.Duration) {
	finishJob(jobType, d)
	jobRetries.WithLabelValues(jobType).Inc()
}

func finishJob(jobType string, d time.Duration) {
	jobsInFlight.WithLabelValues(jobType).Dec()
	jobDuration.WithLabelValues(jobType).Observe(d.Seconds())
}
