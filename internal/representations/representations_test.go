package representations_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/JaimeStill/certifier/internal/providers"
	"github.com/JaimeStill/certifier/internal/representations"
)

const lsu = "All transactions over $10,000 require two-manager approval"

type fakeBackend struct {
	calls    int
	generate func(prompt string) (string, string, error)
}

func (f *fakeBackend) Generate(ctx context.Context, prompt string) (string, string, error) {
	f.calls++
	return f.generate(prompt)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGenerator(t *testing.T, backend representations.TextGenerator) *representations.Generator {
	t.Helper()
	g, err := representations.New(backend, discard())
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGenerateTemplates(t *testing.T) {
	set, err := newGenerator(t, nil).Generate(context.Background(), lsu)
	if err != nil {
		t.Fatal(err)
	}

	if set.Source != representations.SourceTemplate {
		t.Errorf("source: got %s", set.Source)
	}
	if len(set.Artifacts) != len(representations.Names) {
		t.Fatalf("artifacts: got %d", len(set.Artifacts))
	}

	checks := map[string]string{
		"policy.rego":       "package governance",
		"specification.tla": "---- MODULE GovernanceSpec ----",
		"test_suite.py":     "def test_safety_threshold",
		"documentation.md":  lsu,
	}
	for name, want := range checks {
		body := set.Artifacts[name]
		if !strings.Contains(body, want) {
			t.Errorf("%s missing %q", name, want)
		}
		if name != "documentation.md" && !strings.Contains(body, lsu) {
			t.Errorf("%s does not reference the requirement", name)
		}
	}
}

func TestTemplatePreviewTruncates(t *testing.T) {
	long := strings.Repeat("a", 150)
	body, err := newGenerator(t, nil).Template("policy.rego", long)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, strings.Repeat("a", 100)+"...") || strings.Contains(body, strings.Repeat("a", 101)) {
		t.Error("policy template should embed a 100 character preview")
	}

	if _, err := newGenerator(t, nil).Template("unknown.txt", lsu); err == nil {
		t.Error("expected error for unknown artifact")
	}
}

func TestGenerateBackend(t *testing.T) {
	b := &fakeBackend{generate: func(prompt string) (string, string, error) {
		return "generated: " + prompt, "nvidia", nil
	}}

	set, err := newGenerator(t, b).Generate(context.Background(), lsu)
	if err != nil {
		t.Fatal(err)
	}

	if set.Source != representations.SourceBackend {
		t.Errorf("source: got %s", set.Source)
	}
	if !strings.HasPrefix(set.Artifacts["policy.rego"], "generated: Generate a complete Rego policy for: "+lsu) {
		t.Errorf("policy: %s", set.Artifacts["policy.rego"])
	}
	if len(set.Providers) != 1 || set.Providers[0] != "nvidia" {
		t.Errorf("providers: %v", set.Providers)
	}
}

func TestGeneratePerArtifactFallback(t *testing.T) {
	b := &fakeBackend{generate: func(prompt string) (string, string, error) {
		if strings.Contains(prompt, "TLA+") {
			return "", "nvidia", errors.New("upstream error")
		}
		if strings.Contains(prompt, "Python") {
			return "   ", "nvidia", nil
		}
		return "generated", "nvidia", nil
	}}

	set, err := newGenerator(t, b).Generate(context.Background(), lsu)
	if err != nil {
		t.Fatal(err)
	}

	if set.Source != representations.SourceMixed {
		t.Errorf("source: got %s", set.Source)
	}
	if !strings.Contains(set.Artifacts["specification.tla"], "MODULE GovernanceSpec") {
		t.Error("failed artifact did not fall back to its template")
	}
	if !strings.Contains(set.Artifacts["test_suite.py"], "import pytest") {
		t.Error("blank artifact did not fall back to its template")
	}
	if set.Artifacts["policy.rego"] != "generated" {
		t.Error("successful artifact replaced")
	}
}

func TestGenerateStopsAskingWithoutProvider(t *testing.T) {
	b := &fakeBackend{generate: func(string) (string, string, error) {
		return "", providers.Local, providers.ErrNoProvider
	}}

	set, err := newGenerator(t, b).Generate(context.Background(), lsu)
	if err != nil {
		t.Fatal(err)
	}
	if b.calls != 1 {
		t.Errorf("backend calls: got %d, want 1", b.calls)
	}
	if set.Source != representations.SourceTemplate {
		t.Errorf("source: got %s", set.Source)
	}
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newGenerator(t, nil).Generate(ctx, lsu); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
