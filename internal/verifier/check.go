// Package verifier runs the fixed battery of stabilizer checks against a
// requirement and aggregates their signed outcomes into a semantic syndrome.
package verifier

import "math"

// Category groups checks by the dimension they validate.
type Category string

const (
	CategorySyntax      Category = "syntax"
	CategorySemantic    Category = "semantic"
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryCompliance  Category = "compliance"
)

// Check is the static definition of one stabilizer.
type Check struct {
	Name            string   `json:"name"`
	Category        Category `json:"category"`
	Weight          float64  `json:"weight"`
	BaseProbability float64  `json:"base_probability"`
	Expected        int      `json:"expected"`
}

var checks = [...]Check{
	{Name: "S_syntax_validation", Category: CategorySyntax, Weight: 0.8, BaseProbability: 0.85, Expected: 1},
	{Name: "S_semantic_consistency", Category: CategorySemantic, Weight: 1.0, BaseProbability: 0.75, Expected: 1},
	{Name: "S_security_analysis", Category: CategorySecurity, Weight: 0.9, BaseProbability: 0.70, Expected: 1},
	{Name: "S_performance_check", Category: CategoryPerformance, Weight: 0.7, BaseProbability: 0.80, Expected: 1},
	{Name: "S_compliance_audit", Category: CategoryCompliance, Weight: 0.95, BaseProbability: 0.78, Expected: 1},
}

// Checks returns the stabilizer definitions in declaration order. The
// order determines syndrome order and fault location.
func Checks() []Check {
	out := make([]Check, len(checks))
	copy(out, checks[:])
	return out
}

// backendCategories are consulted through the analyzer instead of drawn.
var backendCategories = map[Category]string{
	CategorySemantic: "semantic",
	CategorySecurity: "security",
}

// Artifact names produced by the representation generator.
const (
	ArtifactPolicy        = "policy.rego"
	ArtifactSpecification = "specification.tla"
	ArtifactTests         = "test_suite.py"
	ArtifactDocumentation = "documentation.md"
)

var relevantArtifact = map[Category]string{
	CategorySyntax:      ArtifactPolicy,
	CategorySecurity:    ArtifactPolicy,
	CategorySemantic:    ArtifactSpecification,
	CategoryPerformance: ArtifactTests,
	CategoryCompliance:  ArtifactDocumentation,
}

// Provenance records where a diagnosis came from.
type Provenance string

const (
	ProvenanceBackend   Provenance = "backend"
	ProvenanceHeuristic Provenance = "heuristic"
)

// Diagnosis explains a failed check.
type Diagnosis struct {
	Issue       string     `json:"issue"`
	Remediation []string   `json:"remediation"`
	Artifact    string     `json:"artifact"`
	Confidence  float64    `json:"confidence"`
	Provenance  Provenance `json:"provenance"`
}

// Outcome is the runtime result of one check: +1 on pass, -1 on fail.
type Outcome struct {
	Name       string     `json:"name"`
	Category   Category   `json:"category"`
	Weight     float64    `json:"weight"`
	Outcome    int        `json:"outcome"`
	Confidence float64    `json:"confidence"`
	Provider   string     `json:"provider,omitempty"`
	Diagnosis  *Diagnosis `json:"diagnosis,omitempty"`
}

// Passed reports whether the check produced +1.
func (o Outcome) Passed() bool {
	return o.Outcome == 1
}

// Signed returns the confidence carrying the outcome's sign.
func (o Outcome) Signed() float64 {
	if o.Passed() {
		return o.Confidence
	}
	return -o.Confidence
}

// Analysis methods reported in syndrome metadata.
const (
	MethodBackendAssisted = "backend-assisted"
	MethodHeuristic       = "heuristic"
)

// Metadata describes how a syndrome was produced.
type Metadata struct {
	AnalysisMethod   string   `json:"analysis_method"`
	Providers        []string `json:"providers"`
	ConsensusReached bool     `json:"consensus_reached"`
	Warnings         []string `json:"warnings"`
}

// Syndrome is the ordered outcome vector with its coherence score.
type Syndrome struct {
	Outcomes  []Outcome `json:"outcomes"`
	Coherence float64   `json:"coherence_score"`
	Metadata  Metadata  `json:"metadata"`
}

// Vector returns the signed outcomes in check order.
func (s *Syndrome) Vector() []int {
	v := make([]int, len(s.Outcomes))
	for i, o := range s.Outcomes {
		v[i] = o.Outcome
	}
	return v
}

// Failed returns the failing outcomes in check order.
func (s *Syndrome) Failed() []Outcome {
	var failed []Outcome
	for _, o := range s.Outcomes {
		if !o.Passed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Coherence averages the signed confidences of outcomes, rounded to two decimals.
func Coherence(outcomes []Outcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	var sum float64
	for _, o := range outcomes {
		sum += o.Signed()
	}
	return round2(sum / float64(len(outcomes)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
