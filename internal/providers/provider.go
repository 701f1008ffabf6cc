// Package providers connects the certification pipeline to chat-completion
// analysis backends. It tracks backend availability, selects a backend per
// request, and reconciles concurrent analyses into a single result.
package providers

import (
	"slices"
	"strings"
	"time"
)

// Capability tags what a backend is suited for.
type Capability string

const (
	CapabilityReasoning        Capability = "reasoning"
	CapabilityPolicyGeneration Capability = "policy-generation"
	CapabilityComprehensive    Capability = "comprehensive-analysis"
	CapabilityFastInference    Capability = "fast-inference"
)

// Local names the sentinel provider used when no backend is available.
const Local = "local"

// Hybrid is the provider preference that requests analysis from every backend.
const Hybrid = "hybrid"

// Verdict is a backend's judgment of a requirement.
type Verdict string

const (
	VerdictCoherent   Verdict = "COHERENT"
	VerdictIncoherent Verdict = "INCOHERENT"
	VerdictPass       Verdict = "PASS"
	VerdictFail       Verdict = "FAIL"
)

// Passed reports whether the verdict is affirmative. The second result is
// false when the verdict is empty or unrecognized.
func (v Verdict) Passed() (passed bool, known bool) {
	switch v {
	case VerdictCoherent, VerdictPass:
		return true, true
	case VerdictIncoherent, VerdictFail:
		return false, true
	}
	return false, false
}

// specialties maps an analysis type to the capability best suited to it.
var specialties = map[string]Capability{
	"security":    CapabilityComprehensive,
	"compliance":  CapabilityComprehensive,
	"performance": CapabilityFastInference,
	"semantic":    CapabilityReasoning,
}

// Provider is the registry's view of one backend.
type Provider struct {
	Name         string       `json:"name"`
	Capabilities []Capability `json:"capabilities"`
	Available    bool         `json:"available"`
	LastProbe    time.Time    `json:"last_probe"`
	LastError    string       `json:"last_error,omitempty"`
}

// Has reports whether the provider advertises capability c.
func (p Provider) Has(c Capability) bool {
	return slices.Contains(p.Capabilities, c)
}

// Request asks a backend to analyze a requirement.
type Request struct {
	LSU          string         `json:"lsu"`
	AnalysisType string         `json:"analysis_type"`
	Preferred    string         `json:"preferred,omitempty"`
	Reasoning    bool           `json:"reasoning,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// AnalysisResult is one backend's normalized output.
type AnalysisResult struct {
	Analysis         string         `json:"analysis" validate:"required"`
	Confidence       float64        `json:"confidence" validate:"gte=0,lte=1"`
	Recommendations  []string       `json:"recommendations"`
	RiskFactors      []string       `json:"risk_factors"`
	Reasoning        string         `json:"reasoning,omitempty"`
	Verdict          Verdict        `json:"verdict,omitempty" validate:"omitempty,oneof=COHERENT INCOHERENT PASS FAIL"`
	TechnicalDetails map[string]any `json:"technical_details,omitempty"`
}

// Unparsed reports whether the result came from keyword heuristics because
// the backend reply did not carry a valid payload.
func (r *AnalysisResult) Unparsed() bool {
	v, _ := r.TechnicalDetails["parse_fallback"].(bool)
	return v
}

// Consensus annotates a hybrid response with how closely the top two
// backends agreed. It never changes the verdict.
type Consensus struct {
	Score   float64 `json:"score"`
	Reached bool    `json:"reached"`
}

// Response is the orchestrator's reconciled answer. It is always well formed:
// Confidence lies in [0,1] and ProviderUsed is never empty.
type Response struct {
	AnalysisResult
	ProviderUsed       string        `json:"provider_used"`
	ProvidersConsulted []string      `json:"providers_consulted"`
	Fallback           bool          `json:"fallback"`
	Hybrid             bool          `json:"hybrid"`
	Consensus          *Consensus    `json:"consensus,omitempty"`
	Duration           time.Duration `json:"duration"`
}

// ProvidersUsed splits ProviderUsed into the names of contributing backends.
// It returns nil for fallback responses.
func (r *Response) ProvidersUsed() []string {
	if r.Fallback || r.ProviderUsed == "" {
		return nil
	}
	return strings.Split(r.ProviderUsed, "+")
}
