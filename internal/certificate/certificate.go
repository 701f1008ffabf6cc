// Package certificate interprets a semantic syndrome into a signed
// certificate and assembles the artifact package returned to callers.
package certificate

import (
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/certifier/internal/verifier"
)

// Status is the certification verdict.
type Status string

const (
	StatusCoherent   Status = "COHERENT"
	StatusIncoherent Status = "INCOHERENT"
)

// Severity ranks the risk of deploying a certified requirement.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// RiskAssessment summarizes severity with impact and mitigation guidance.
type RiskAssessment struct {
	Severity   Severity `json:"severity"`
	Impact     string   `json:"impact_analysis"`
	Mitigation string   `json:"mitigation_strategy"`
}

// SignatureMetadata identifies what informed the certificate.
type SignatureMetadata struct {
	Providers        []string `json:"providers"`
	ConsensusReached bool     `json:"consensus_reached"`
	AnalysisMethod   string   `json:"analysis_method"`
	EngineVersion    string   `json:"engine_version"`
}

// Certificate is the immutable verdict for one run.
type Certificate struct {
	DiagnosisID       string             `json:"diagnosis_id"`
	AnalysisID        string             `json:"analysis_id"`
	Status            Status             `json:"status"`
	CoherenceScore    float64            `json:"coherence_score"`
	SyndromeVector    []int              `json:"syndrome_vector"`
	Outcomes          []verifier.Outcome `json:"outcomes"`
	FailedChecks      []string           `json:"failed_checks"`
	FaultLocation     string             `json:"fault_location,omitempty"`
	RiskAssessment    RiskAssessment     `json:"risk_assessment"`
	RecommendedAction string             `json:"recommended_action,omitempty"`
	IssuedAt          time.Time          `json:"issued_at"`
	ExpiresAt         time.Time          `json:"expires_at"`
	Signature         SignatureMetadata  `json:"signature_metadata"`
}

// Coherent reports whether the certificate status is COHERENT.
func (c *Certificate) Coherent() bool {
	return c.Status == StatusCoherent
}

// Classify applies the severity rules to the failing outcomes. A failed
// security or compliance check is CRITICAL even when the score is positive.
func Classify(coherent bool, failed []verifier.Outcome) Severity {
	for _, o := range failed {
		if o.Category == verifier.CategorySecurity || o.Category == verifier.CategoryCompliance {
			return SeverityCritical
		}
	}

	switch {
	case coherent:
		return SeverityLow
	case len(failed) > 2:
		return SeverityCritical
	case len(failed) > 1:
		return SeverityHigh
	case len(failed) == 1 && failed[0].Confidence < 0.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// RecommendedAction derives the remediation token for a failing check name.
func RecommendedAction(check string) string {
	return "REVIEW_AND_FIX_" + strings.ToUpper(strings.TrimPrefix(check, "S_"))
}

func describe(check string) string {
	return strings.ReplaceAll(strings.TrimPrefix(check, "S_"), "_", " ")
}

func assess(severity Severity, score float64, failed []verifier.Outcome) RiskAssessment {
	r := RiskAssessment{Severity: severity}

	if len(failed) == 0 {
		r.Impact = fmt.Sprintf("All stabilizer checks passed with coherence %.2f.", score)
		r.Mitigation = "Standard monitoring procedures."
		return r
	}

	primary := describe(failed[0].Name)
	if d := failed[0].Diagnosis; d != nil && d.Issue != "" {
		primary = fmt.Sprintf("%s (%s)", primary, d.Issue)
	}

	switch severity {
	case SeverityCritical:
		r.Impact = fmt.Sprintf("%d stabilizer fault(s), including %s. The compiled policy could leave controls unenforced or bypassable.", len(failed), primary)
		r.Mitigation = fmt.Sprintf("Halt deployment. Resolve the %s fault and recertify after expert review.", describe(failed[0].Name))
	case SeverityHigh:
		r.Impact = fmt.Sprintf("%d stabilizer faults, led by %s. Policy behavior is unreliable.", len(failed), primary)
		r.Mitigation = fmt.Sprintf("Manual review required. Address the %s fault before deployment.", describe(failed[0].Name))
	case SeverityMedium:
		r.Impact = fmt.Sprintf("One low-confidence fault in %s. Policy behavior may diverge from intent.", primary)
		r.Mitigation = fmt.Sprintf("Clarify the requirement for %s and recertify.", describe(failed[0].Name))
	default:
		r.Impact = fmt.Sprintf("%d fault(s), led by %s, within tolerance at coherence %.2f.", len(failed), primary, score)
		r.Mitigation = "Standard monitoring procedures; track the failing check in the next review."
	}
	return r
}
