package verifier

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/JaimeStill/certifier/internal/providers"
)

// Analyzer supplies backend analyses for the semantic and security checks.
// Responses with Fallback set mean no backend contributed.
type Analyzer interface {
	Analyze(ctx context.Context, req providers.Request) *providers.Response
	AnalyzeHybrid(ctx context.Context, req providers.Request) *providers.Response
}

// Options tune a single verification run.
type Options struct {
	Preferred string
	Hybrid    bool
	Context   map[string]any
}

// Verifier runs the stabilizer battery.
type Verifier struct {
	analyzer Analyzer
	source   Source
	catalog  Catalog
	logger   *slog.Logger
}

// New creates a Verifier. A nil analyzer decides every check from source.
func New(analyzer Analyzer, source Source, catalog Catalog, logger *slog.Logger) *Verifier {
	return &Verifier{
		analyzer: analyzer,
		source:   source,
		catalog:  catalog,
		logger:   logger.With("system", "verifier"),
	}
}

// Verify runs every check in declaration order and returns the syndrome.
// It returns early with the context error when ctx is done between checks.
func (v *Verifier) Verify(ctx context.Context, lsu string, opts Options) (*Syndrome, error) {
	s := &Syndrome{
		Outcomes: make([]Outcome, 0, len(checks)),
		Metadata: Metadata{
			AnalysisMethod: MethodHeuristic,
			Providers:      []string{},
			Warnings:       []string{},
		},
	}

	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("verify %s: %w", check.Name, err)
		}

		o, resp := v.consult(ctx, check, lsu, opts)
		if o != nil {
			s.Metadata.AnalysisMethod = MethodBackendAssisted
			for _, name := range resp.ProvidersUsed() {
				if !slices.Contains(s.Metadata.Providers, name) {
					s.Metadata.Providers = append(s.Metadata.Providers, name)
				}
			}
			if resp.Consensus != nil && resp.Consensus.Reached {
				s.Metadata.ConsensusReached = true
			}
		} else if resp != nil {
			s.Metadata.Warnings = append(s.Metadata.Warnings,
				fmt.Sprintf("%s decided locally: %s reply carried no verdict", check.Name, resp.ProviderUsed))
		} else if _, ok := backendCategories[check.Category]; ok && v.analyzer != nil {
			s.Metadata.Warnings = append(s.Metadata.Warnings,
				fmt.Sprintf("%s decided locally: no analysis backend available", check.Name))
		}

		if o == nil {
			o = v.draw(check, lsu)
		}
		s.Outcomes = append(s.Outcomes, *o)
	}

	s.Coherence = Coherence(s.Outcomes)

	v.logger.Info(
		"syndrome computed",
		"coherence", s.Coherence,
		"vector", s.Vector(),
		"method", s.Metadata.AnalysisMethod,
	)

	return s, nil
}

// consult asks the analyzer about backend-assisted categories. It returns a
// nil Outcome when the check must be drawn instead: no backend answered, or
// the reply was unparsed and carried no verdict. The response is returned
// alongside in the second case.
func (v *Verifier) consult(ctx context.Context, check Check, lsu string, opts Options) (*Outcome, *providers.Response) {
	analysisType, ok := backendCategories[check.Category]
	if !ok || v.analyzer == nil {
		return nil, nil
	}

	req := providers.Request{
		LSU:          lsu,
		AnalysisType: analysisType,
		Preferred:    opts.Preferred,
		Reasoning:    check.Category == CategorySemantic,
		Context:      opts.Context,
	}

	var resp *providers.Response
	if opts.Hybrid {
		resp = v.analyzer.AnalyzeHybrid(ctx, req)
	} else {
		resp = v.analyzer.Analyze(ctx, req)
	}
	if resp == nil || resp.Fallback {
		return nil, nil
	}
	if _, known := resp.Verdict.Passed(); !known && resp.Unparsed() {
		v.logger.Warn("unparsed backend reply, drawing check", "check", check.Name, "provider", resp.ProviderUsed)
		return nil, resp
	}

	passed, known := resp.Verdict.Passed()
	if !known {
		passed = resp.Confidence >= 0.5
	}

	o := &Outcome{
		Name:       check.Name,
		Category:   check.Category,
		Weight:     check.Weight,
		Outcome:    sign(passed),
		Confidence: resp.Confidence,
		Provider:   resp.ProviderUsed,
	}

	if !passed {
		d := v.catalog.diagnose(check, lsu, resp.Confidence)
		d.Provenance = ProvenanceBackend
		if len(resp.Recommendations) > 0 {
			d.Remediation = append([]string(nil), resp.Recommendations...)
		}
		o.Diagnosis = d
	}

	return o, resp
}

func (v *Verifier) draw(check Check, lsu string) *Outcome {
	passed := v.source.Float64() < check.BaseProbability
	u := v.source.Float64()

	o := &Outcome{
		Name:     check.Name,
		Category: check.Category,
		Weight:   check.Weight,
		Outcome:  sign(passed),
	}

	if passed {
		o.Confidence = 0.8 + u*0.2
		return o
	}

	o.Confidence = 0.3 + u*0.4
	o.Diagnosis = v.catalog.diagnose(check, lsu, o.Confidence)
	return o
}

func sign(passed bool) int {
	if passed {
		return 1
	}
	return -1
}
