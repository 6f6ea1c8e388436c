package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_cycles_total",
			Help: "Total number of registry sync cycles",
		},
		[]string{"status"}, // status: success, failed
	)

	ProjectsSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projects_synced_total",
			Help: "Total number of project snapshots upserted",
		},
	)

	ScoresComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scores_computed_total",
			Help: "Total number of transparency scores computed",
		},
		[]string{"color"},
	)

	AuditEventsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_detected_total",
			Help: "Total number of deadline audit events logged",
		},
		[]string{"event_type"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of subscriber notifications attempted",
		},
		[]string{"channel", "status"}, // status: sent, failed, deduped
	)

	DispatchCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_cycle_duration_seconds",
			Help:    "Duration of one notification dispatch cycle",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)
)

func ObserveDispatchCycle(d time.Duration) {
	DispatchCycleDuration.Observe(d.Seconds())
}
