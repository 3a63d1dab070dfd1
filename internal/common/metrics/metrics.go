// internal/common/metrics/metrics.go

// Package metrics holds the prometheus instruments for the applicant
// lifecycle workers. Job-level series are labelled by task type so the four
// workers share one set; the email and notification counters track the
// side-effect machinery behind them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	// OutboxEmailsSent counts lifecycle emails delivered from the outbox,
	// labelled by event type (application-received, hired, rejected, ...).
	OutboxEmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_emails_sent_total",
			Help: "Total number of outbox emails delivered",
		},
		[]string{"event_type"},
	)

	// NotificationsPublished counts realtime pushes that reached Redis,
	// labelled by recipient type (JobSeeker or Recruiter).
	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Total number of realtime notifications published",
		},
		[]string{"recipient_type"},
	)
)
