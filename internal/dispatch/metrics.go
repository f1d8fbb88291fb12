package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const tracerName = "github.com/sells-group/kb-resolver/internal/dispatch"

var (
	// asksTotal counts answered questions.
	// Labels: intent, brain, provenance
	asksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kbr",
		Subsystem: "dispatch",
		Name:      "asks_total",
		Help:      "Questions answered by intent, brain and provenance",
	}, []string{"intent", "brain", "provenance"})

	// stageOutcomesTotal counts stage attempts.
	// Labels: stage, outcome (answered, empty, skipped, failed)
	stageOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kbr",
		Subsystem: "dispatch",
		Name:      "stage_outcomes_total",
		Help:      "Dispatch stage attempts by outcome",
	}, []string{"stage", "outcome"})

	askLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kbr",
		Subsystem: "dispatch",
		Name:      "ask_latency_seconds",
		Help:      "End-to-end Ask latency by brain",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"brain"})

	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kbr",
		Subsystem: "dispatch",
		Name:      "panics_total",
		Help:      "Panics recovered while answering",
	})
)

const (
	outcomeAnswered = "answered"
	outcomeEmpty    = "empty"
	outcomeSkipped  = "skipped"
	outcomeFailed   = "failed"
)
