// Package policy compiles certified requirements into OPA Rego policies and
// submits them to an external policy-validation service.
package policy

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/JaimeStill/certifier/internal/certificate"
)

// Threshold is the coherence score an input certificate must meet for allow.
const Threshold = 0.7

//go:embed policy.rego.tmpl
var regoSource string

var rego = template.Must(template.New("policy.rego").Parse(regoSource))

// Generate renders the Rego policy enforcing a certificate for analysisType.
func Generate(c *certificate.Certificate, analysisType string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("certificate required")
	}

	data := struct {
		DiagnosisID  string
		Score        float64
		Status       certificate.Status
		ExpiresAt    string
		Type         string
		Threshold    float64
		FailedChecks []string
	}{
		DiagnosisID:  c.DiagnosisID,
		Score:        c.CoherenceScore,
		Status:       c.Status,
		ExpiresAt:    c.ExpiresAt.Format(time.RFC3339),
		Type:         packageName(analysisType),
		Threshold:    Threshold,
		FailedChecks: c.FailedChecks,
	}

	var b strings.Builder
	if err := rego.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render policy: %w", err)
	}
	return b.String(), nil
}

func packageName(analysisType string) string {
	name := strings.ToLower(strings.TrimSpace(analysisType))
	if name == "" {
		return "full"
	}
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, name)
}
