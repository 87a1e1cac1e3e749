package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK       = "ok"
	outcomeFallback = "fallback"
	outcomePanic    = "panic"
)

var (
	stageOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_stage_outcomes_total",
		Help: "Stage executions by outcome.",
	}, []string{"stage", "outcome"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scout_stage_duration_seconds",
		Help:    "Wall time per stage execution.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"stage"})
)
