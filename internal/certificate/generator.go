package certificate

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/certifier/internal/verifier"
)

// Algorithm names the package signature scheme.
const Algorithm = "HMAC-SHA256"

// Artifact types carried by a package payload.
const (
	ArtifactRegoPolicy     = "rego_policy"
	ArtifactSafetyProtocol = "safety_protocol"
)

var (
	ErrInvalidSignature = errors.New("invalid package signature")
	ErrMissingSyndrome  = errors.New("syndrome required")
)

// Options configure a Generator.
type Options struct {
	TTL     time.Duration
	KeyID   string
	Key     []byte
	Version string
	Now     func() time.Time
}

// Generator issues certificates and signs artifact packages.
type Generator struct {
	ttl     time.Duration
	keyID   string
	key     []byte
	version string
	now     func() time.Time
}

// NewGenerator creates a Generator. Without a key, a random per-process key
// is generated and packages only verify within this process.
func NewGenerator(opts Options) (*Generator, error) {
	g := &Generator{
		ttl:     opts.TTL,
		keyID:   opts.KeyID,
		key:     opts.Key,
		version: opts.Version,
		now:     opts.Now,
	}

	if g.ttl <= 0 {
		g.ttl = 24 * time.Hour
	}
	if g.keyID == "" {
		g.keyID = "certifier-ephemeral"
	}
	if g.version == "" {
		g.version = "dev"
	}
	if g.now == nil {
		g.now = func() time.Time { return time.Now().UTC() }
	}
	if len(g.key) == 0 {
		g.key = make([]byte, 32)
		if _, err := rand.Read(g.key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}

	return g, nil
}

// Version returns the engine version stamped on certificates.
func (g *Generator) Version() string {
	return g.version
}

// Certify interprets a syndrome into a certificate.
func (g *Generator) Certify(s *verifier.Syndrome, analysisID string) (*Certificate, error) {
	if s == nil {
		return nil, ErrMissingSyndrome
	}

	coherent := s.Coherence > 0
	failed := s.Failed()
	severity := Classify(coherent, failed)
	issued := g.now()

	c := &Certificate{
		DiagnosisID:    "diag-" + analysisID,
		AnalysisID:     analysisID,
		Status:         StatusIncoherent,
		CoherenceScore: s.Coherence,
		SyndromeVector: s.Vector(),
		Outcomes:       append([]verifier.Outcome(nil), s.Outcomes...),
		FailedChecks:   make([]string, 0, len(failed)),
		RiskAssessment: assess(severity, s.Coherence, failed),
		IssuedAt:       issued,
		ExpiresAt:      issued.Add(g.ttl),
		Signature: SignatureMetadata{
			Providers:        append([]string{}, s.Metadata.Providers...),
			ConsensusReached: s.Metadata.ConsensusReached,
			AnalysisMethod:   s.Metadata.AnalysisMethod,
			EngineVersion:    g.version,
		},
	}

	for _, o := range failed {
		c.FailedChecks = append(c.FailedChecks, o.Name)
	}
	if len(failed) > 0 {
		c.FaultLocation = failed[0].Name
	}

	if coherent {
		c.Status = StatusCoherent
	} else if c.FaultLocation != "" {
		c.RecommendedAction = RecommendedAction(c.FaultLocation)
	}

	return c, nil
}

// Payload is the signed artifact content.
type Payload struct {
	ArtifactID      string            `json:"artifact_id"`
	ArtifactType    string            `json:"artifact_type"`
	ArtifactBody    string            `json:"artifact_body"`
	AnalysisID      string            `json:"analysis_id"`
	Representations map[string]string `json:"representations"`
	Metadata        PayloadMetadata   `json:"metadata"`
}

// PayloadMetadata records how the payload was produced.
type PayloadMetadata struct {
	CreatedAt time.Time `json:"creation_timestamp"`
	Version   string    `json:"version"`
	Source    string    `json:"representation_source"`
}

// Signature authenticates a package.
type Signature struct {
	KeyID     string    `json:"key_id"`
	Algorithm string    `json:"algorithm"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Package is the unit persisted and returned to callers.
type Package struct {
	Payload     Payload      `json:"payload"`
	Certificate *Certificate `json:"certificate_of_semantic_integrity"`
	Signature   Signature    `json:"signature"`
}

// Package assembles and signs the artifact package for a certificate.
// Incoherent certificates carry a halted-generation marker instead of policy code.
func (g *Generator) Package(c *Certificate, lsu string, representations map[string]string, source string) (*Package, error) {
	p := &Package{
		Payload: Payload{
			ArtifactID:      "artifact-" + c.AnalysisID,
			AnalysisID:      c.AnalysisID,
			Representations: representations,
			Metadata: PayloadMetadata{
				CreatedAt: g.now(),
				Version:   g.version,
				Source:    source,
			},
		},
		Certificate: c,
	}

	if c.Coherent() {
		p.Payload.ArtifactType = ArtifactRegoPolicy
		p.Payload.ArtifactBody = representations[verifier.ArtifactPolicy]
	} else {
		p.Payload.ArtifactType = ArtifactSafetyProtocol
		p.Payload.ArtifactBody = HaltedMarker(lsu, c)
	}

	value, err := g.sign(p)
	if err != nil {
		return nil, err
	}

	p.Signature = Signature{
		KeyID:     g.keyID,
		Algorithm: Algorithm,
		Value:     value,
		Timestamp: g.now(),
	}
	return p, nil
}

// Verify recomputes the package signature.
func (g *Generator) Verify(p *Package) error {
	if p.Signature.Algorithm != Algorithm || p.Signature.KeyID != g.keyID {
		return ErrInvalidSignature
	}

	want, err := g.sign(p)
	if err != nil {
		return err
	}

	got, err := hex.DecodeString(p.Signature.Value)
	if err != nil {
		return ErrInvalidSignature
	}
	expected, _ := hex.DecodeString(want)
	if !hmac.Equal(got, expected) {
		return ErrInvalidSignature
	}
	return nil
}

func (g *Generator) sign(p *Package) (string, error) {
	body, err := json.Marshal(struct {
		Payload     Payload      `json:"payload"`
		Certificate *Certificate `json:"certificate"`
	}{p.Payload, p.Certificate})
	if err != nil {
		return "", fmt.Errorf("canonicalize package: %w", err)
	}

	mac := hmac.New(sha256.New, g.key)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// HaltedMarker is the artifact body for a requirement that failed certification.
func HaltedMarker(lsu string, c *Certificate) string {
	return fmt.Sprintf(`# HALTED: policy generation stopped

## Requirement
%s

## Status
%s (coherence %.2f, severity %s)

## Action Required
This requirement failed semantic certification and must not be deployed.
Resolve the %s fault and resubmit for certification.
`, lsu, c.Status, c.CoherenceScore, c.RiskAssessment.Severity, faultOrNone(c.FaultLocation))
}

func faultOrNone(name string) string {
	if name == "" {
		return "reported"
	}
	return name
}
