// Package metrics exposes the viewer daemon's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vidwatch"

var (
	progressReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "progress_reports_total",
			Help:      "Watch progress reports by outcome",
		},
		[]string{"result"},
	)

	engagementMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engagement_mutations_total",
			Help:      "Like/dislike/subscription mutations by kind and outcome",
		},
		[]string{"kind", "result"},
	)

	playbackTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_transitions_total",
			Help:      "Playback lifecycle transitions by target state",
		},
		[]string{"state"},
	)

	commentLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comment_loads_total",
			Help:      "Comment thread loads by outcome",
		},
		[]string{"result"},
	)
)

// Outcome labels
const (
	ResultSuccess    = "success"
	ResultFailure    = "failure"
	ResultRolledBack = "rolled_back"
	ResultStale      = "stale"
)

func RecordProgressReport(result string) {
	progressReports.WithLabelValues(result).Inc()
}

func RecordEngagement(kind, result string) {
	engagementMutations.WithLabelValues(kind, result).Inc()
}

func RecordTransition(state string) {
	playbackTransitions.WithLabelValues(state).Inc()
}

func RecordCommentLoad(result string) {
	commentLoads.WithLabelValues(result).Inc()
}
