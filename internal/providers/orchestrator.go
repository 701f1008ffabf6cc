package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	singleFallbackConfidence = 0.4
	hybridFallbackConfidence = 0.3
)

// ErrNoProvider indicates no backend is available for text generation.
var ErrNoProvider = errors.New("no analysis provider available")

// Selection is the provider chosen for a request. Adapter is nil when the
// local sentinel was selected.
type Selection struct {
	Name    string
	Adapter Adapter
	Reason  string
}

// Orchestrator selects backends and reconciles their results. Analyze and
// AnalyzeHybrid never return an error; every path yields a Response.
type Orchestrator struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator over registry. timeout bounds each backend call.
func NewOrchestrator(registry *Registry, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		timeout:  timeout,
		logger:   logger.With("system", "orchestrator"),
	}
}

// Registry returns the registry the orchestrator reads from.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Select picks a provider for req. Rules, in order: the available preferred
// provider; a reasoning provider when reasoning is requested; a provider with
// the analysis type's specialty; any available provider; the local sentinel.
func (o *Orchestrator) Select(ctx context.Context, req Request) Selection {
	available := o.registry.Available(ctx)

	pick := func(reason string, match func(Provider) bool) (Selection, bool) {
		for _, p := range available {
			if match(p) {
				a, _ := o.registry.Adapter(p.Name)
				return Selection{Name: p.Name, Adapter: a, Reason: reason}, true
			}
		}
		return Selection{}, false
	}

	if req.Preferred != "" && req.Preferred != Hybrid {
		if s, ok := pick("preferred", func(p Provider) bool { return p.Name == req.Preferred }); ok {
			return s
		}
	}

	if req.Reasoning {
		if s, ok := pick("reasoning", func(p Provider) bool { return p.Has(CapabilityReasoning) }); ok {
			return s
		}
	}

	if c, ok := specialties[req.AnalysisType]; ok {
		if s, ok := pick("specialty", func(p Provider) bool { return p.Has(c) }); ok {
			return s
		}
	}

	if s, ok := pick("available", func(Provider) bool { return true }); ok {
		return s
	}

	return Selection{Name: Local, Reason: "no provider available"}
}

// Analyze runs req against one selected provider. A failing provider is
// marked unavailable and a local fallback response is returned. Errors that
// follow the caller's own cancellation leave availability untouched.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) *Response {
	start := time.Now()
	sel := o.Select(ctx, req)

	if sel.Adapter == nil {
		fallbacks.WithLabelValues("single").Inc()
		resp := fallback(singleFallbackConfidence, nil, sel.Reason)
		resp.Duration = time.Since(start)
		return resp
	}

	result, err := o.call(ctx, sel.Adapter, req)
	if err != nil {
		o.recordFailure(ctx, sel.Name, err)
		fallbacks.WithLabelValues("single").Inc()
		o.logger.Warn("analysis failed, using local fallback", "provider", sel.Name, "error", err)

		resp := fallback(singleFallbackConfidence, []string{sel.Name}, err.Error())
		resp.Duration = time.Since(start)
		return resp
	}

	o.logger.Debug("analysis complete", "provider", sel.Name, "reason", sel.Reason, "confidence", result.Confidence)

	return &Response{
		AnalysisResult:     *result,
		ProviderUsed:       sel.Name,
		ProvidersConsulted: []string{sel.Name},
		Duration:           time.Since(start),
	}
}

// AnalyzeHybrid runs req against every registered provider concurrently and
// waits for all of them. One failure never cancels the others.
func (o *Orchestrator) AnalyzeHybrid(ctx context.Context, req Request) *Response {
	start := time.Now()
	names := o.registry.Names()

	outcomes := make([]outcome, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			adapter, _ := o.registry.Adapter(name)
			result, err := o.call(ctx, adapter, req)
			outcomes[i] = outcome{name: name, result: result, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var succeeded []outcome
	for _, oc := range outcomes {
		if oc.err != nil {
			o.recordFailure(ctx, oc.name, oc.err)
			continue
		}
		o.registry.MarkAvailable(oc.name)
		succeeded = append(succeeded, oc)
	}

	var resp *Response
	switch len(succeeded) {
	case 0:
		fallbacks.WithLabelValues("hybrid").Inc()
		o.logger.Warn("hybrid analysis failed on every provider, using local fallback", "providers", len(names))
		resp = fallback(hybridFallbackConfidence, names, "all providers failed")
	case 1:
		resp = &Response{
			AnalysisResult:     *succeeded[0].result,
			ProviderUsed:       succeeded[0].name,
			ProvidersConsulted: names,
			Hybrid:             true,
		}
	default:
		resp = synthesize(succeeded)
		resp.ProvidersConsulted = names
	}

	resp.Duration = time.Since(start)
	return resp
}

// Generate produces free-form text, preferring a policy-generation provider.
// It returns the provider used alongside the text. A failing provider is
// marked unavailable and the error returned so the caller can fall back.
func (o *Orchestrator) Generate(ctx context.Context, prompt string) (string, string, error) {
	available := o.registry.Available(ctx)
	if len(available) == 0 {
		return "", Local, ErrNoProvider
	}

	chosen := available[0]
	for _, p := range available {
		if p.Has(CapabilityPolicyGeneration) {
			chosen = p
			break
		}
	}

	adapter, _ := o.registry.Adapter(chosen.Name)

	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	text, err := adapter.Generate(cctx, prompt)
	providerLatency.WithLabelValues(chosen.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		providerRequests.WithLabelValues(chosen.Name, "error").Inc()
		o.recordFailure(ctx, chosen.Name, err)
		return "", chosen.Name, err
	}

	providerRequests.WithLabelValues(chosen.Name, "success").Inc()
	return text, chosen.Name, nil
}

// recordFailure marks name unavailable unless the parent context ended.
// Only the per-call timeout and adapter errors count against a provider.
func (o *Orchestrator) recordFailure(ctx context.Context, name string, err error) {
	if ctx.Err() != nil {
		o.logger.Debug("provider call abandoned by caller", "provider", name, "error", err)
		return
	}
	o.registry.MarkUnavailable(name, err)
}

// call invokes one adapter under the per-call timeout, converting panics and
// malformed results into errors.
func (o *Orchestrator) call(ctx context.Context, adapter Adapter, req Request) (result *AnalysisResult, err error) {
	name := adapter.Name()
	start := time.Now()

	defer func() {
		if v := recover(); v != nil {
			result, err = nil, fmt.Errorf("provider %s panicked: %v", name, v)
		}

		status := "success"
		if err != nil {
			status = "error"
		}
		providerRequests.WithLabelValues(name, status).Inc()
		providerLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	result, err = adapter.Analyze(cctx, req)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("provider %s returned no result", name)
	}

	out := *result
	out.Confidence = clamp(out.Confidence)
	out.Recommendations = nonNil(out.Recommendations)
	out.RiskFactors = nonNil(out.RiskFactors)
	return &out, nil
}

// New builds the registry and orchestrator for every enabled backend in cfg.
func New(cfg *Config, httpClient *http.Client, logger *slog.Logger) *Orchestrator {
	enabled := cfg.Enabled()
	adapters := make([]Adapter, 0, len(enabled))
	for _, b := range enabled {
		adapters = append(adapters, NewOpenAIAdapter(b, httpClient))
	}

	registry := NewRegistry(RegistryOptions{
		TTL:          cfg.AvailabilityTTLDuration(),
		ProbeTimeout: cfg.TimeoutDuration(),
		Logger:       logger,
	}, adapters...)

	return NewOrchestrator(registry, cfg.TimeoutDuration(), logger)
}
