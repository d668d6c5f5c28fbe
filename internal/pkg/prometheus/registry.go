package prometheus

import "github.com/prometheus/client_golang/prometheus"

var registry = prometheus.NewRegistry()

func GetRegistry() *prometheus.Registry {
	return registry
}

var (
	// ScheduleUpdates counts accepted schedule configuration replacements.
	ScheduleUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracksync_schedule_updates_total",
		Help: "Number of schedule configuration updates persisted.",
	})

	// SyncTriggers counts trigger-loop outcomes by result
	// (fired, skipped, queued, dropped).
	SyncTriggers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracksync_sync_triggers_total",
		Help: "Number of scheduled sync triggers by outcome.",
	}, []string{"result"})
)

func init() {
	registry.MustRegister(ScheduleUpdates, SyncTriggers)
}
