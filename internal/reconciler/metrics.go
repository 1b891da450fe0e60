package reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultApplied   = "applied"
	resultDuplicate = "duplicate"
	resultSkipped   = "skipped"
	resultError     = "error"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anky_reconciler_events_total",
		Help: "Lifecycle events handled by the reconciler, by event type and result",
	}, []string{"event_type", "result"})

	eventDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "anky_reconciler_event_duration_seconds",
		Help:    "Time spent reconciling a single lifecycle event",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
)
