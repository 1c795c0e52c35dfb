package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(updateJobsProcessedTotal) }

var updateJobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "update_jobs_processed_total",
		Help: "Total number of Telegram updates processed by the worker pool, labeled by status.",
	},
	[]string{"status"}, // 'completed', 'failed', 'dropped'
)

func IncUpdateJob(status string) {
	updateJobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}
