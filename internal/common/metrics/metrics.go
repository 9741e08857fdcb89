// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relationship_extractions_total",
			Help: "Signal bundles produced, by the tier that produced them",
		},
		[]string{"source"},
	)

	ExtractionFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relationship_extraction_fallbacks_total",
			Help: "Provider attempts that degraded to the heuristic extractor",
		},
		[]string{"provider", "error_code"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relationship_provider_latency_seconds",
			Help:    "Round-trip latency of extraction provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ProfileMerges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relationship_profile_merges_total",
			Help: "Profile merge attempts by result",
		},
		[]string{"result"},
	)

	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relationship_stage_transitions_total",
			Help: "Conversation stage advances",
		},
		[]string{"from", "to"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "relationship_turn_duration_seconds",
			Help: "Duration of one chat turn through the engine",
		},
		[]string{"source"},
	)

	TurnsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relationship_turns_active",
			Help: "Chat turns currently being processed",
		},
	)
)
