package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// providerRequests counts backend calls.
	// Labels: provider, status (success, error)
	providerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certifier",
		Name:      "provider_requests_total",
		Help:      "Total analysis backend requests by provider and status",
	}, []string{"provider", "status"})

	// providerLatency measures backend call duration.
	providerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "certifier",
		Name:      "provider_request_duration_seconds",
		Help:      "Analysis backend request latency in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"provider"})

	// providerAvailable is 1 while a provider is marked available.
	providerAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "certifier",
		Name:      "provider_available",
		Help:      "Provider availability as last recorded by the registry",
	}, []string{"provider"})

	// fallbacks counts responses synthesized locally.
	// Labels: mode (single, hybrid)
	fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certifier",
		Name:      "provider_fallbacks_total",
		Help:      "Total analyses answered by the local fallback",
	}, []string{"mode"})

	// consensusScore tracks agreement between the top two hybrid results.
	consensusScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "certifier",
		Name:      "hybrid_consensus_score",
		Help:      "Distribution of hybrid analysis consensus scores",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})
)
