package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certifier_analysis_requests_total",
			Help: "Analysis requests by analysis type and outcome",
		},
		[]string{"analysis_type", "status"},
	)

	analysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "certifier_analysis_duration_seconds",
			Help:    "End-to-end analysis latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	coherenceScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "certifier_coherence_score",
			Help:    "Coherence scores of issued certificates",
			Buckets: prometheus.LinearBuckets(-1, 0.2, 11),
		},
	)

	activeAnalyses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "certifier_active_analyses",
			Help: "Analyses currently in progress",
		},
	)
)
