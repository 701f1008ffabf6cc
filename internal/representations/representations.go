// Package representations renders a requirement into the named artifacts the
// certification pipeline analyzes and packages.
package representations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"text/template"

	"github.com/JaimeStill/certifier/internal/providers"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Artifact names in generation order.
var Names = []string{
	"policy.rego",
	"specification.tla",
	"test_suite.py",
	"documentation.md",
}

var prompts = map[string]string{
	"policy.rego":       "Generate a complete Rego policy for: %s",
	"specification.tla": "Create a TLA+ specification for: %s",
	"test_suite.py":     "Write comprehensive Python tests for: %s",
	"documentation.md":  "Create documentation for: %s",
}

// Sources of a representation set.
const (
	SourceTemplate = "template"
	SourceBackend  = "backend"
	SourceMixed    = "mixed"
)

const previewLength = 100

// TextGenerator produces free-form text from a backend. It returns the name
// of the provider that answered.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, string, error)
}

// Set is the rendered artifact map for one requirement.
type Set struct {
	Artifacts map[string]string `json:"artifacts"`
	Source    string            `json:"source"`
	Providers []string          `json:"providers"`
}

// Generator renders representation sets.
type Generator struct {
	backend TextGenerator
	tmpl    *template.Template
	logger  *slog.Logger
}

// New creates a Generator. A nil backend renders templates only.
func New(backend TextGenerator, logger *slog.Logger) (*Generator, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse representation templates: %w", err)
	}
	return &Generator{
		backend: backend,
		tmpl:    tmpl,
		logger:  logger.With("system", "representations"),
	}, nil
}

// Generate renders every artifact for lsu. Backend output replaces a template
// per artifact; any backend failure falls back to that artifact's template.
func (g *Generator) Generate(ctx context.Context, lsu string) (*Set, error) {
	set := &Set{
		Artifacts: make(map[string]string, len(Names)),
		Providers: []string{},
	}

	useBackend := g.backend != nil
	generated := 0

	for _, name := range Names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if useBackend {
			text, provider, err := g.backend.Generate(ctx, fmt.Sprintf(prompts[name], lsu))
			switch {
			case err == nil && strings.TrimSpace(text) != "":
				set.Artifacts[name] = text
				generated++
				if !slices.Contains(set.Providers, provider) {
					set.Providers = append(set.Providers, provider)
				}
				continue
			case err != nil:
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				g.logger.Warn("backend generation failed, using template", "artifact", name, "provider", provider, "error", err)
				if errors.Is(err, providers.ErrNoProvider) {
					useBackend = false
				}
			}
		}

		body, err := g.Template(name, lsu)
		if err != nil {
			return nil, err
		}
		set.Artifacts[name] = body
	}

	switch generated {
	case 0:
		set.Source = SourceTemplate
	case len(Names):
		set.Source = SourceBackend
	default:
		set.Source = SourceMixed
	}

	return set, nil
}

// Template renders the built-in template for one artifact.
func (g *Generator) Template(name, lsu string) (string, error) {
	t := g.tmpl.Lookup(name + ".tmpl")
	if t == nil {
		return "", fmt.Errorf("unknown representation %q", name)
	}

	var b strings.Builder
	data := struct{ LSU, Preview string }{LSU: lsu, Preview: preview(lsu)}
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return b.String(), nil
}

func preview(lsu string) string {
	r := []rune(lsu)
	if len(r) <= previewLength {
		return lsu
	}
	return string(r[:previewLength]) + "..."
}
