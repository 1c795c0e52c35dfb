package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		extractionOutcomesTotal,
		remindersSentTotal,
		eventsPurgedTotal,
		calendarArtifactsTotal,
	)
}

var (
	extractionOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_extraction_outcomes_total",
			Help: "Outcomes of event extraction attempts.",
		},
		[]string{"outcome"}, // 'created', 'no_time', 'extraction_failed', 'too_long', 'rate_limited'
	)

	remindersSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Reminder deliveries attempted by the reminder worker.",
		},
		[]string{"status"}, // 'sent', 'failed'
	)

	eventsPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "events_purged_total",
			Help: "Total number of finished events removed by the cleanup worker.",
		},
	)

	calendarArtifactsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_artifacts_total",
			Help: "Calendar artifacts produced for users.",
		},
		[]string{"kind"}, // 'google_link', 'ics'
	)
)

func IncExtractionOutcome(outcome string) {
	extractionOutcomesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncReminder(status string) {
	remindersSentTotal.WithLabelValues(norm(status)).Inc()
}

func AddEventsPurged(count int64) {
	eventsPurgedTotal.Add(float64(count))
}

func IncCalendarArtifact(kind string) {
	calendarArtifactsTotal.WithLabelValues(norm(kind)).Inc()
}
