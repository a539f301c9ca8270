package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// stepsApplied counts applied transformations by kind.
	stepsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spvfuzz_transformations_applied_total",
		Help: "Total transformations applied by kind",
	}, []string{"kind"})

	// stepsRejected counts transformations whose preconditions failed.
	stepsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spvfuzz_transformations_rejected_total",
		Help: "Total transformations rejected by kind and reason code",
	}, []string{"kind", "code"})

	// validationFailures counts invalid modules by phase (before, after).
	validationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spvfuzz_validation_failures_total",
		Help: "Total validation failures by phase",
	}, []string{"phase"})

	// stepDuration tracks the time to check, apply and validate one step.
	stepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spvfuzz_step_duration_seconds",
		Help:    "Step duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
	})

	// replaysTotal counts replays by result (match, mismatch).
	replaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spvfuzz_replays_total",
		Help: "Total replays by result",
	}, []string{"result"})
)

const (
	phaseBefore = "before"
	phaseAfter  = "after"
)
