// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the discovery ledger.
var (
	// Counters.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_submissions_total",
			Help: "Total number of discovery submissions by outcome",
		},
		[]string{"outcome", "reason"},
	)

	FirstDiscoveriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "first_discoveries_total",
			Help: "Total number of first global discoveries settled",
		},
	)

	BadgesAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total number of badges awarded",
		},
		[]string{"badge_name"},
	)

	LevelUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "level_ups_total",
			Help: "Total number of level-up transitions",
		},
	)

	// Histograms.
	XPAwarded = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_xp_awarded",
			Help:    "XP granted per completed discovery",
			Buckets: prometheus.LinearBuckets(0, 25, 12), // 0 to 275 XP
		},
	)

	PipelineDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_pipeline_duration_seconds",
			Help:    "Time from submission receipt to terminal state",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)
)

// RecordSubmission records a submission reaching a terminal state.
func RecordSubmission(outcome, reason string) {
	SubmissionsTotal.WithLabelValues(outcome, reason).Inc()
}

// RecordFirstDiscovery records a settled first global discovery.
func RecordFirstDiscovery() {
	FirstDiscoveriesTotal.Inc()
}

// RecordBadgeAwarded records a badge award.
func RecordBadgeAwarded(badgeName string) {
	BadgesAwardedTotal.WithLabelValues(badgeName).Inc()
}

// RecordLevelUp records a level-up transition.
func RecordLevelUp() {
	LevelUpsTotal.Inc()
}

// ObserveXPAwarded observes the XP granted by a completed discovery.
func ObserveXPAwarded(xp int) {
	XPAwarded.Observe(float64(xp))
}

// ObservePipelineDuration observes end-to-end pipeline duration.
func ObservePipelineDuration(d time.Duration) {
	PipelineDurationSeconds.Observe(d.Seconds())
}
