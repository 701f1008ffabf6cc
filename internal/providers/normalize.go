package providers

import (
	"math"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JaimeStill/certifier/pkg/formatting"
)

const (
	heuristicConfidence = 0.6
	heuristicPenalty    = 0.5
	maxHeuristicItems   = 8
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// payload is the JSON body both dialects are asked to produce.
type payload struct {
	Analysis         string         `json:"analysis" validate:"required"`
	Confidence       *float64       `json:"confidence" validate:"required,gte=0,lte=1"`
	Recommendations  []string       `json:"recommendations"`
	RiskFactors      []string       `json:"risk_factors"`
	Verdict          string         `json:"verdict" validate:"omitempty,oneof=COHERENT INCOHERENT PASS FAIL"`
	TechnicalDetails map[string]any `json:"technical_details"`
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+\s+|\n+`)
	bulletPrefix  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

	recommendationWords = []string{"should", "must", "recommend", "ensure"}
	riskWords           = []string{"risk", "vulnerab", "threat", "breach", "exposure"}
)

// Normalize converts raw completion content into an AnalysisResult.
// Content that does not yield a valid payload degrades to keyword
// extraction with reduced confidence and technical_details.parse_fallback set.
func Normalize(dialect Dialect, content string) *AnalysisResult {
	var trace string
	body := strings.TrimSpace(content)
	if dialect == DialectReasoning {
		trace, body = formatting.SplitReasoning(content)
	}

	p, err := formatting.Parse[payload](body)
	if err == nil {
		p.Verdict = strings.ToUpper(strings.TrimSpace(p.Verdict))
		err = validate.Struct(p)
	}

	if err == nil {
		return &AnalysisResult{
			Analysis:         p.Analysis,
			Confidence:       *p.Confidence,
			Recommendations:  nonNil(p.Recommendations),
			RiskFactors:      nonNil(p.RiskFactors),
			Reasoning:        trace,
			Verdict:          Verdict(p.Verdict),
			TechnicalDetails: p.TechnicalDetails,
		}
	}

	return heuristic(body, trace, p, err)
}

func heuristic(body, trace string, p payload, cause error) *AnalysisResult {
	base := heuristicConfidence
	if p.Confidence != nil && *p.Confidence >= 0 && *p.Confidence <= 1 {
		base = *p.Confidence
	}

	analysis := strings.TrimSpace(p.Analysis)
	if analysis == "" {
		analysis = body
	}

	text := body
	if trace != "" {
		text = body + "\n" + trace
	}

	var verdict Verdict
	if _, known := Verdict(strings.ToUpper(p.Verdict)).Passed(); known {
		verdict = Verdict(strings.ToUpper(p.Verdict))
	}

	return &AnalysisResult{
		Analysis:        analysis,
		Confidence:      clamp(base * heuristicPenalty),
		Recommendations: extract(text, recommendationWords),
		RiskFactors:     extract(text, riskWords),
		Reasoning:       trace,
		Verdict:         verdict,
		TechnicalDetails: map[string]any{
			"parse_fallback": true,
			"parse_error":    cause.Error(),
		},
	}
}

// extract returns distinct sentences of text containing any keyword, in order.
func extract(text string, keywords []string) []string {
	out := []string{}
	seen := make(map[string]bool)

	for _, raw := range sentenceSplit.Split(text, -1) {
		s := strings.TrimRight(strings.TrimSpace(bulletPrefix.ReplaceAllString(raw, "")), ".!?;: ")
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		if seen[lower] || !containsAny(lower, keywords) {
			continue
		}
		seen[lower] = true
		out = append(out, s)
		if len(out) == maxHeuristicItems {
			break
		}
	}

	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return min(max(v, 0), 1)
}
