package prefilter

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_prefilter_messages_total",
		Help: "Messages seen by the pre-filter",
	})

	candidatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_prefilter_candidates_total",
		Help: "Messages that survived the pre-filter",
	})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_prefilter_rejections_total",
		Help: "Messages rejected by the pre-filter, by rule",
	}, []string{"rule"})

	blacklistAdditionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scout_blacklist_additions_total",
		Help: "Users added to the blacklist by automatic detection",
	}, []string{"category"})

	needsHelpScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scout_prefilter_needs_help_score",
		Help:    "Needs-help score of surviving candidates",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})
)

// ruleLabel keeps label cardinality bounded: "keyword:<pattern>" and
// "blacklisted_user:<category>" collapse to their rule name.
func ruleLabel(reason string) string {
	if i := strings.IndexByte(reason, ':'); i >= 0 {
		return reason[:i]
	}
	return reason
}
