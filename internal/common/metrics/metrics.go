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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	BankOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bank_operations_total",
			Help: "Mock bank API calls by operation and result code",
		},
		[]string{"operation", "result"},
	)

	BankOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bank_operation_duration_seconds",
			Help:    "Mock bank API call duration including simulated latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 1.5, 2, 3, 5},
		},
		[]string{"operation"},
	)

	EscrowReleases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escrow_releases_total",
			Help: "Escrow releases by trigger (manual, auto)",
		},
		[]string{"trigger"},
	)

	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bank_notifications_total",
			Help: "Bank message deliveries by channel and result",
		},
		[]string{"channel", "result"},
	)
)
