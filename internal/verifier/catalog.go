package verifier

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

const lsuPreviewLength = 100

// Entry is the heuristic explanation for one failing category.
type Entry struct {
	Issue       string   `yaml:"issue"`
	Remediation []string `yaml:"remediation"`
}

// Catalog maps check categories to diagnosis entries.
type Catalog map[Category]Entry

// DefaultCatalog parses the embedded remediation catalog.
func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes a YAML catalog and requires an entry for every check category.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, check := range checks {
		e, ok := c[check.Category]
		if !ok || e.Issue == "" || len(e.Remediation) == 0 {
			return nil, fmt.Errorf("catalog missing entry for %s", check.Category)
		}
	}
	return c, nil
}

func (c Catalog) diagnose(check Check, lsu string, confidence float64) *Diagnosis {
	e := c[check.Category]
	return &Diagnosis{
		Issue:       strings.ReplaceAll(e.Issue, "{lsu}", preview(lsu)),
		Remediation: append([]string(nil), e.Remediation...),
		Artifact:    relevantArtifact[check.Category],
		Confidence:  confidence,
		Provenance:  ProvenanceHeuristic,
	}
}

func preview(lsu string) string {
	lsu = strings.TrimSpace(lsu)
	r := []rune(lsu)
	if len(r) <= lsuPreviewLength {
		return lsu
	}
	return string(r[:lsuPreviewLength]) + "..."
}
