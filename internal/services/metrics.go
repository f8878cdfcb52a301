package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the journal core. HTTP-level metrics come
// from the fiberprometheus middleware; these cover what happens behind
// the handlers.
var (
	lifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_lifecycle_transitions_total",
		Help: "Lifecycle transitions by action and outcome",
	}, []string{"action", "status"})

	persistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_persistence_failures_total",
		Help: "Write-through saves that failed and were rolled back",
	})

	entriesByState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "inkwell_entries",
		Help: "Journal entries by lifecycle state",
	}, []string{"state"})

	notificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_notifications_sent_total",
		Help: "Toast notifications pushed to subscribers",
	})
)
