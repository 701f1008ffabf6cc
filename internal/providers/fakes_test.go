package providers_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/JaimeStill/certifier/internal/providers"
)

type fakeAdapter struct {
	name     string
	caps     []providers.Capability
	probeErr error
	analyze  func(ctx context.Context, req providers.Request) (*providers.AnalysisResult, error)
	generate func(ctx context.Context, prompt string) (string, error)

	probes atomic.Int32
	calls  atomic.Int32
}

func (f *fakeAdapter) Name() string                         { return f.name }
func (f *fakeAdapter) Capabilities() []providers.Capability { return f.caps }

func (f *fakeAdapter) Probe(ctx context.Context) error {
	f.probes.Add(1)
	return f.probeErr
}

func (f *fakeAdapter) Analyze(ctx context.Context, req providers.Request) (*providers.AnalysisResult, error) {
	f.calls.Add(1)
	return f.analyze(ctx, req)
}

func (f *fakeAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	if f.generate == nil {
		return "generated by " + f.name, nil
	}
	return f.generate(ctx, prompt)
}

func succeed(confidence float64, recs ...string) func(context.Context, providers.Request) (*providers.AnalysisResult, error) {
	return func(context.Context, providers.Request) (*providers.AnalysisResult, error) {
		return &providers.AnalysisResult{
			Analysis:        "ok",
			Confidence:      confidence,
			Recommendations: recs,
			Verdict:         providers.VerdictCoherent,
		}, nil
	}
}

func fail(err error) func(context.Context, providers.Request) (*providers.AnalysisResult, error) {
	return func(context.Context, providers.Request) (*providers.AnalysisResult, error) {
		return nil, err
	}
}

func block(ctx context.Context, _ providers.Request) (*providers.AnalysisResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrchestrator(timeout time.Duration, adapters ...providers.Adapter) *providers.Orchestrator {
	reg := providers.NewRegistry(providers.RegistryOptions{
		TTL:          time.Hour,
		ProbeTimeout: time.Second,
		Logger:       discard(),
	}, adapters...)
	return providers.NewOrchestrator(reg, timeout, discard())
}
