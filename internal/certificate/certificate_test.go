package certificate_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/certifier/internal/certificate"
	"github.com/JaimeStill/certifier/internal/verifier"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func outcome(check verifier.Check, passed bool, confidence float64) verifier.Outcome {
	o := verifier.Outcome{
		Name:       check.Name,
		Category:   check.Category,
		Weight:     check.Weight,
		Outcome:    1,
		Confidence: confidence,
	}
	if !passed {
		o.Outcome = -1
		o.Diagnosis = &verifier.Diagnosis{Issue: "issue in " + check.Name, Artifact: "policy.rego"}
	}
	return o
}

// syndrome builds a five-check syndrome; fails maps check index to confidence.
func syndrome(fails map[int]float64) *verifier.Syndrome {
	var outcomes []verifier.Outcome
	for i, c := range verifier.Checks() {
		if conf, ok := fails[i]; ok {
			outcomes = append(outcomes, outcome(c, false, conf))
			continue
		}
		outcomes = append(outcomes, outcome(c, true, 0.9))
	}
	return &verifier.Syndrome{
		Outcomes:  outcomes,
		Coherence: verifier.Coherence(outcomes),
		Metadata: verifier.Metadata{
			AnalysisMethod:   verifier.MethodBackendAssisted,
			Providers:        []string{"nvidia", "groq"},
			ConsensusReached: true,
		},
	}
}

func newGenerator(t *testing.T) *certificate.Generator {
	t.Helper()
	g, err := certificate.NewGenerator(certificate.Options{
		KeyID:   "test-key",
		Key:     []byte("secret"),
		Version: "v1.0.0",
		Now:     func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestCertify(t *testing.T) {
	tests := []struct {
		name     string
		fails    map[int]float64
		status   certificate.Status
		severity certificate.Severity
		fault    string
		action   string
	}{
		{
			name:     "all pass",
			status:   certificate.StatusCoherent,
			severity: certificate.SeverityLow,
		},
		{
			name:     "single security failure is critical",
			fails:    map[int]float64{2: 0.4},
			status:   certificate.StatusCoherent,
			severity: certificate.SeverityCritical,
			fault:    "S_security_analysis",
		},
		{
			name:     "coherent with syntax failure is low",
			fails:    map[int]float64{0: 0.3},
			status:   certificate.StatusCoherent,
			severity: certificate.SeverityLow,
			fault:    "S_syntax_validation",
		},
		{
			name:     "fault location is first in vector order",
			fails:    map[int]float64{0: 0.9, 1: 0.9, 3: 0.9},
			status:   certificate.StatusIncoherent,
			severity: certificate.SeverityCritical,
			fault:    "S_syntax_validation",
			action:   "REVIEW_AND_FIX_SYNTAX_VALIDATION",
		},
		{
			name:     "two failures with positive score is low",
			fails:    map[int]float64{1: 0.95, 3: 0.95},
			status:   certificate.StatusCoherent,
			severity: certificate.SeverityLow,
			fault:    "S_semantic_consistency",
		},
		{
			name:     "compliance failure is critical",
			fails:    map[int]float64{4: 0.2},
			status:   certificate.StatusCoherent,
			severity: certificate.SeverityCritical,
			fault:    "S_compliance_audit",
		},
	}

	g := newGenerator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := syndrome(tt.fails)
			c, err := g.Certify(s, "qec-1-0001")
			if err != nil {
				t.Fatal(err)
			}

			if c.Status != tt.status {
				t.Errorf("status: got %s, want %s (score %v)", c.Status, tt.status, c.CoherenceScore)
			}
			if c.Coherent() != (c.CoherenceScore > 0) {
				t.Errorf("status %s disagrees with score %v", c.Status, c.CoherenceScore)
			}
			if c.RiskAssessment.Severity != tt.severity {
				t.Errorf("severity: got %s, want %s", c.RiskAssessment.Severity, tt.severity)
			}
			if c.FaultLocation != tt.fault {
				t.Errorf("fault: got %q, want %q", c.FaultLocation, tt.fault)
			}
			if c.RecommendedAction != tt.action {
				t.Errorf("action: got %q, want %q", c.RecommendedAction, tt.action)
			}
			if c.RiskAssessment.Impact == "" || c.RiskAssessment.Mitigation == "" {
				t.Error("risk assessment text missing")
			}
		})
	}
}

func TestClassify(t *testing.T) {
	checks := verifier.Checks()
	syntax, semantic, perf := checks[0], checks[1], checks[3]

	tests := []struct {
		name     string
		coherent bool
		failed   []verifier.Outcome
		want     certificate.Severity
	}{
		{"none", true, nil, certificate.SeverityLow},
		{"three failures", false, []verifier.Outcome{outcome(syntax, false, .9), outcome(semantic, false, .9), outcome(perf, false, .9)}, certificate.SeverityCritical},
		{"two failures", false, []verifier.Outcome{outcome(syntax, false, .9), outcome(perf, false, .9)}, certificate.SeverityHigh},
		{"one low confidence", false, []verifier.Outcome{outcome(perf, false, .4)}, certificate.SeverityMedium},
		{"one high confidence", false, []verifier.Outcome{outcome(perf, false, .6)}, certificate.SeverityLow},
		{"security wins over coherent", true, []verifier.Outcome{outcome(checks[2], false, .3)}, certificate.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := certificate.Classify(tt.coherent, tt.failed); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCertifyMetadata(t *testing.T) {
	g := newGenerator(t)
	c, err := g.Certify(syndrome(nil), "qec-1-0001")
	if err != nil {
		t.Fatal(err)
	}

	if c.DiagnosisID != "diag-qec-1-0001" {
		t.Errorf("diagnosis id: got %s", c.DiagnosisID)
	}
	if !c.ExpiresAt.Equal(fixedNow.Add(24 * time.Hour)) {
		t.Errorf("expiry: got %v", c.ExpiresAt)
	}
	want := certificate.SignatureMetadata{
		Providers:        []string{"nvidia", "groq"},
		ConsensusReached: true,
		AnalysisMethod:   verifier.MethodBackendAssisted,
		EngineVersion:    "v1.0.0",
	}
	if diff := cmp.Diff(want, c.Signature); diff != "" {
		t.Errorf("signature metadata (-want +got):\n%s", diff)
	}

	if _, err := g.Certify(nil, "x"); !errors.Is(err, certificate.ErrMissingSyndrome) {
		t.Errorf("nil syndrome: got %v", err)
	}
}

func TestPackage(t *testing.T) {
	g := newGenerator(t)
	reps := map[string]string{
		"policy.rego":       "package governance",
		"specification.tla": "---- MODULE GovernanceSpec ----",
	}
	lsu := "All transactions over $10,000 require two-manager approval"

	t.Run("coherent carries policy", func(t *testing.T) {
		c, _ := g.Certify(syndrome(nil), "qec-1-0001")
		p, err := g.Package(c, lsu, reps, "template")
		if err != nil {
			t.Fatal(err)
		}
		if p.Payload.ArtifactType != certificate.ArtifactRegoPolicy || p.Payload.ArtifactBody != "package governance" {
			t.Errorf("payload: %+v", p.Payload)
		}
		if p.Payload.ArtifactID != "artifact-qec-1-0001" {
			t.Errorf("artifact id: got %s", p.Payload.ArtifactID)
		}
	})

	t.Run("incoherent halts generation", func(t *testing.T) {
		c, _ := g.Certify(syndrome(map[int]float64{0: .9, 1: .9, 3: .9}), "qec-1-0002")
		p, err := g.Package(c, lsu, reps, "template")
		if err != nil {
			t.Fatal(err)
		}
		if p.Payload.ArtifactType != certificate.ArtifactSafetyProtocol {
			t.Errorf("artifact type: got %s", p.Payload.ArtifactType)
		}
		body := p.Payload.ArtifactBody
		if !strings.Contains(body, "HALTED") || !strings.Contains(body, lsu) || !strings.Contains(body, "INCOHERENT") {
			t.Errorf("halted marker: %s", body)
		}
		if strings.Contains(body, "package governance") {
			t.Error("incoherent package carries policy code")
		}
	})
}

func TestSignatureRoundTrip(t *testing.T) {
	g := newGenerator(t)
	c, _ := g.Certify(syndrome(map[int]float64{2: 0.4}), "qec-1-0003")
	p, err := g.Package(c, "lsu text", map[string]string{"policy.rego": "package governance"}, "template")
	if err != nil {
		t.Fatal(err)
	}

	if p.Signature.Algorithm != certificate.Algorithm || p.Signature.KeyID != "test-key" || len(p.Signature.Value) != 64 {
		t.Errorf("signature: %+v", p.Signature)
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var decoded certificate.Package
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if err := g.Verify(&decoded); err != nil {
		t.Errorf("verify decoded package: %v", err)
	}

	decoded.Certificate.CoherenceScore = 0.99
	if err := g.Verify(&decoded); !errors.Is(err, certificate.ErrInvalidSignature) {
		t.Errorf("tampered certificate: got %v", err)
	}

	other, _ := certificate.NewGenerator(certificate.Options{KeyID: "test-key", Key: []byte("other")})
	if err := other.Verify(p); !errors.Is(err, certificate.ErrInvalidSignature) {
		t.Errorf("wrong key: got %v", err)
	}
}
