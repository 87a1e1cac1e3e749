package processor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MikeSquared-Agency/scout/internal/output"
)

var (
	candidatesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_candidates_processed_total",
		Help: "Candidates finished, by result partition.",
	}, []string{"partition"})

	candidateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scout_candidate_duration_seconds",
		Help:    "Wall time of one candidate traversal.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scout_candidates_inflight",
		Help: "Candidate traversals currently running.",
	})

	sinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_sink_errors_total",
		Help: "Result sink failures, by sink.",
	}, []string{"sink"})
)

func recordOutcome(rec output.Record) {
	candidatesProcessed.WithLabelValues(string(rec.Partition)).Inc()
}
