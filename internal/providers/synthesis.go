package providers

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

const (
	primaryWeight      = 0.6
	secondaryWeight    = 0.4
	maxRecommendations = 8
	maxRiskFactors     = 6
	consensusThreshold = 0.7
)

type outcome struct {
	name   string
	result *AnalysisResult
	err    error
}

// synthesize reconciles two or more successful results, given in
// registration order. The highest-confidence result is primary; ties keep
// registration order.
func synthesize(results []outcome) *Response {
	ranked := slices.Clone(results)
	slices.SortStableFunc(ranked, func(x, y outcome) int {
		return cmp.Compare(y.result.Confidence, x.result.Confidence)
	})

	a, b := ranked[0].result, ranked[1].result

	recs := make([][]string, len(ranked))
	risks := make([][]string, len(ranked))
	names := make([]string, len(ranked))
	for i, o := range ranked {
		recs[i] = o.result.Recommendations
		risks[i] = o.result.RiskFactors
		names[i] = o.name
	}

	consensus := primaryWeight*(1-math.Abs(a.Confidence-b.Confidence)) +
		secondaryWeight*Overlap(a.Recommendations, b.Recommendations)
	consensus = clamp(consensus)
	consensusScore.Observe(consensus)

	details := map[string]any{
		"synthesis": map[string]any{
			"primary":   ranked[0].name,
			"secondary": ranked[1].name,
			"weights":   []float64{primaryWeight, secondaryWeight},
		},
	}
	for _, o := range ranked {
		details[o.name] = map[string]any{
			"confidence": o.result.Confidence,
			"verdict":    o.result.Verdict,
		}
	}

	return &Response{
		AnalysisResult: AnalysisResult{
			Analysis:         a.Analysis,
			Confidence:       clamp(primaryWeight*a.Confidence + secondaryWeight*b.Confidence),
			Recommendations:  DedupMerge(maxRecommendations, recs...),
			RiskFactors:      DedupMerge(maxRiskFactors, risks...),
			Reasoning:        a.Reasoning,
			Verdict:          a.Verdict,
			TechnicalDetails: details,
		},
		ProviderUsed:       strings.Join(names, "+"),
		ProvidersConsulted: names,
		Hybrid:             true,
		Consensus: &Consensus{
			Score:   consensus,
			Reached: consensus >= consensusThreshold,
		},
	}
}

// fallback synthesizes a local response when no backend contributed.
func fallback(confidence float64, consulted []string, reason string) *Response {
	if consulted == nil {
		consulted = []string{}
	}
	return &Response{
		AnalysisResult: AnalysisResult{
			Analysis:   "Local analysis only: no analysis backend produced a result for this requirement.",
			Confidence: confidence,
			Recommendations: []string{
				"Re-run the analysis once an analysis backend is available",
				"Review the requirement manually before deployment",
			},
			RiskFactors: []string{
				"Requirement was not assessed by an analysis backend",
			},
			TechnicalDetails: map[string]any{
				"fallback": true,
				"reason":   reason,
			},
		},
		ProviderUsed:       Local,
		ProvidersConsulted: consulted,
		Fallback:           true,
	}
}
