// Package engine runs the certification pipeline: representations,
// verification, certification, packaging and persistence of one requirement.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/google/uuid"

	"github.com/JaimeStill/certifier/internal/certificate"
	"github.com/JaimeStill/certifier/internal/policy"
	"github.com/JaimeStill/certifier/internal/providers"
	"github.com/JaimeStill/certifier/internal/representations"
	"github.com/JaimeStill/certifier/internal/runs"
	"github.com/JaimeStill/certifier/internal/verifier"
)

const maxRecommendations = 8

var (
	coherentRecommendations = []string{
		"Policy validation successful - ready for deployment",
		"Monitor performance in production environment",
		"Schedule regular compliance reviews",
	}
	incoherentRecommendations = []string{
		"Address semantic coherence issues before deployment",
		"Review failed stabilizer checks",
		"Consider manual expert review",
	}
	manualReviewRecommendations = []string{
		"Manual review required: automated certification did not complete",
		"Resubmit the requirement once the failure is resolved",
		"Consider manual expert review",
	}
	typeRecommendations = map[string]string{
		AnalysisSecurity:    "Conduct additional security penetration testing",
		AnalysisCompliance:  "Update compliance documentation",
		AnalysisPerformance: "Benchmark the requirement under production load",
	}
)

// RunStore persists run records and their artifact packages.
type RunStore interface {
	Create(ctx context.Context, run *runs.Run) error
	Update(ctx context.Context, run *runs.Run) error
	SavePackage(ctx context.Context, id uuid.UUID, data []byte) (string, error)
}

// ProviderStatus exposes backend availability.
type ProviderStatus interface {
	Snapshot() []providers.Provider
	Refresh(ctx context.Context) []providers.Provider
}

// Components are the collaborators of an Engine.
type Components struct {
	Representations *representations.Generator
	Verifier        *verifier.Verifier
	Certificates    *certificate.Generator
	Runs            RunStore
	// Validator is optional. Generated policies are not validated without it.
	Validator policy.Validator
	// Providers is optional. Status reports no providers without it.
	Providers ProviderStatus
	Timeout   time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

// Engine is the public entry point of the certification pipeline.
type Engine struct {
	reps      *representations.Generator
	verifier  *verifier.Verifier
	certs     *certificate.Generator
	runs      RunStore
	validator policy.Validator
	providers ProviderStatus
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// Assemble creates an Engine from prepared components.
func Assemble(c Components) *Engine {
	now := c.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		reps:      c.Representations,
		verifier:  c.Verifier,
		certs:     c.Certificates,
		runs:      c.Runs,
		validator: c.Validator,
		providers: c.Providers,
		timeout:   c.Timeout,
		logger:    c.Logger.With("system", "engine"),
		now:       now,
	}
}

// New wires an Engine from configuration around the provider orchestrator.
func New(
	cfg *Config,
	orch *providers.Orchestrator,
	store RunStore,
	validator policy.Validator,
	version string,
	logger *slog.Logger,
) (*Engine, error) {
	var backend representations.TextGenerator
	if cfg.AIRepresentations {
		backend = orch
	}
	reps, err := representations.New(backend, logger)
	if err != nil {
		return nil, err
	}

	catalog, err := verifier.DefaultCatalog()
	if err != nil {
		return nil, err
	}

	certs, err := certificate.NewGenerator(certificate.Options{
		TTL:     cfg.CertificateTTLDuration(),
		KeyID:   cfg.SigningKeyID,
		Key:     []byte(cfg.SigningKey),
		Version: version,
	})
	if err != nil {
		return nil, err
	}
	if cfg.SigningKey == "" {
		logger.Warn("no signing key configured, packages verify only within this process",
			"key_id", cfg.SigningKeyID,
		)
	}

	return Assemble(Components{
		Representations: reps,
		Verifier:        verifier.New(orch, verifier.NewSource(cfg.Seed), catalog, logger),
		Certificates:    certs,
		Runs:            store,
		Validator:       validator,
		Providers:       orch.Registry(),
		Timeout:         cfg.AnalysisTimeoutDuration(),
		Logger:          logger,
	}), nil
}

// Handler returns the HTTP handler for engine endpoints.
func (e *Engine) Handler(maxBodySize int64) *Handler {
	return NewHandler(e, e.logger, maxBodySize)
}

type result struct {
	syndrome   *verifier.Syndrome
	cert       *certificate.Certificate
	pkg        *certificate.Package
	packageRef string
	policy     string
	validation *policy.Validation
}

// Analyze certifies req. Invalid requests are rejected before any backend
// call with a REVIEW_REQUIRED response and an error wrapping
// ErrInvalidRequest. Pipeline failures mark the run FAILED and return a
// REVIEW_REQUIRED response with a nil error.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Response, error) {
	start := e.now()
	req.Normalize()

	id := analysisID(req.LSU, start)
	resp := &Response{
		AnalysisID:       id,
		Timestamp:        start,
		LSUInput:         req.LSU,
		ComplianceStatus: ReviewRequired,
		AuditTrailID:     "audit-" + id,
		ProviderUsed:     providers.Local,
	}

	if err := req.Validate(); err != nil {
		resp.Recommendations = slices.Clone(manualReviewRecommendations)
		analysisRequests.WithLabelValues(typeLabel(req.AnalysisType), "invalid").Inc()
		e.logger.Warn("rejected analysis request", "analysis_id", id, "error", err)
		return resp, err
	}

	activeAnalyses.Inc()
	defer activeAnalyses.Dec()
	timer := prometheus.NewTimer(analysisDuration)
	defer timer.ObserveDuration()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	run := runs.NewRun(id, req.LSU, req.AnalysisType, req.Metadata)
	if err := run.Start(start); err != nil {
		return e.degrade(resp, req, start, err), nil
	}
	resp.RunID = run.ID.String()

	if err := e.runs.Create(ctx, run); err != nil {
		return e.degrade(resp, req, start, fmt.Errorf("create run: %w", err)), nil
	}

	res, err := e.execute(ctx, req, run)
	if err == nil {
		err = e.complete(ctx, req, run, res)
	}
	if err != nil {
		e.fail(ctx, run, err)
		return e.degrade(resp, req, start, err), nil
	}

	resp.Result = res.pkg
	resp.GeneratedPolicy = res.policy
	resp.PolicyValidation = res.validation
	resp.ComplianceStatus = ComplianceStatus(res.cert)
	resp.Recommendations = recommend(res.cert, req.AnalysisType)
	resp.ProviderUsed = providerUsed(res.syndrome)
	resp.ConfidenceScore = res.cert.CoherenceScore
	resp.ProcessingTimeMS = e.now().Sub(start).Milliseconds()

	analysisRequests.WithLabelValues(req.AnalysisType, "success").Inc()
	coherenceScore.Observe(res.cert.CoherenceScore)
	e.audit(resp, res.cert)

	return resp, nil
}

func (e *Engine) execute(ctx context.Context, req Request, run *runs.Run) (res *result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	set, err := e.reps.Generate(ctx, req.LSU)
	if err != nil {
		return nil, fmt.Errorf("generate representations: %w", err)
	}

	opts := verifier.Options{
		Context: map[string]any{"analysis_type": req.AnalysisType},
	}
	if req.ProviderPreference == providers.Hybrid {
		opts.Hybrid = true
	} else {
		opts.Preferred = req.ProviderPreference
	}
	if len(req.Metadata) > 0 {
		opts.Context["metadata"] = req.Metadata
	}

	syndrome, err := e.verifier.Verify(ctx, req.LSU, opts)
	if err != nil {
		return nil, err
	}

	cert, err := e.certs.Certify(syndrome, run.AnalysisID)
	if err != nil {
		return nil, err
	}

	pkg, err := e.certs.Package(cert, req.LSU, set.Artifacts, set.Source)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(pkg)
	if err != nil {
		return nil, fmt.Errorf("encode package: %w", err)
	}

	ref, err := e.runs.SavePackage(ctx, run.ID, data)
	if err != nil {
		return nil, fmt.Errorf("save package: %w", err)
	}

	res = &result{
		syndrome:   syndrome,
		cert:       cert,
		pkg:        pkg,
		packageRef: ref,
	}

	if req.IntegrationMode == ModePolicyEngine {
		text, err := policy.Generate(cert, req.AnalysisType)
		if err != nil {
			return nil, err
		}
		res.policy = text
		res.validation = e.validate(ctx, run.AnalysisID, text)
	}

	return res, nil
}

// validate never fails the pipeline; an unreachable validator yields nil.
func (e *Engine) validate(ctx context.Context, analysisID, text string) *policy.Validation {
	if e.validator == nil {
		return nil
	}
	v, err := e.validator.Validate(ctx, text)
	if err != nil {
		e.logger.Warn("policy validation unavailable",
			"analysis_id", analysisID,
			"endpoint", e.validator.Endpoint(),
			"error", err,
		)
		return nil
	}
	return v
}

func (e *Engine) complete(ctx context.Context, req Request, run *runs.Run, res *result) error {
	completed := *run
	err := completed.Complete(e.now(), runs.Result{
		PackageRef:   res.packageRef,
		Status:       string(res.cert.Status),
		Coherence:    res.cert.CoherenceScore,
		Compliance:   ComplianceStatus(res.cert),
		ProviderUsed: providerUsed(res.syndrome),
	})
	if err != nil {
		return err
	}
	if err := e.runs.Update(ctx, &completed); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	*run = completed
	return nil
}

func (e *Engine) fail(ctx context.Context, run *runs.Run, cause error) {
	if err := run.Fail(e.now(), cause.Error()); err != nil {
		e.logger.Error("fail run", "run_id", run.ID, "error", err)
		return
	}
	if err := e.runs.Update(context.WithoutCancel(ctx), run); err != nil {
		e.logger.Error("persist failed run", "run_id", run.ID, "error", err)
	}
}

func (e *Engine) degrade(resp *Response, req Request, start time.Time, cause error) *Response {
	e.logger.Error("analysis failed", "analysis_id", resp.AnalysisID, "error", cause)
	analysisRequests.WithLabelValues(req.AnalysisType, "error").Inc()

	resp.Result = nil
	resp.ComplianceStatus = ReviewRequired
	resp.Recommendations = slices.Clone(manualReviewRecommendations)
	resp.ProviderUsed = providers.Local
	resp.ConfidenceScore = 0
	resp.ProcessingTimeMS = e.now().Sub(start).Milliseconds()
	return resp
}

func (e *Engine) audit(resp *Response, cert *certificate.Certificate) {
	decision := "DENY"
	violations := []string{"QEC: " + resp.ComplianceStatus}
	if resp.ComplianceStatus == Compliant {
		decision = "ALLOW"
		violations = []string{}
	}
	violations = append(violations, cert.FailedChecks...)

	e.logger.Info("audit entry",
		"audit_trail_id", resp.AuditTrailID,
		"analysis_id", resp.AnalysisID,
		"run_id", resp.RunID,
		"decision", decision,
		"violations", violations,
		"confidence", resp.ConfidenceScore,
		"provider", resp.ProviderUsed,
		"processing_time_ms", resp.ProcessingTimeMS,
	)
}

// Status describes the service and its backends.
type Status struct {
	Service        string               `json:"service"`
	Version        string               `json:"version"`
	Providers      []providers.Provider `json:"providers"`
	PolicyEndpoint string               `json:"policy_endpoint,omitempty"`
	Timestamp      time.Time            `json:"timestamp"`
}

// Status reports provider availability and the policy endpoint.
func (e *Engine) Status() Status {
	s := Status{
		Service:   "operational",
		Version:   e.certs.Version(),
		Providers: []providers.Provider{},
		Timestamp: e.now(),
	}
	if e.providers != nil {
		s.Providers = e.providers.Snapshot()
	}
	if e.validator != nil {
		s.PolicyEndpoint = e.validator.Endpoint()
	}
	return s
}

// RefreshProviders re-probes every backend.
func (e *Engine) RefreshProviders(ctx context.Context) []providers.Provider {
	if e.providers == nil {
		return []providers.Provider{}
	}
	return e.providers.Refresh(ctx)
}

func recommend(cert *certificate.Certificate, analysisType string) []string {
	base := coherentRecommendations
	if !cert.Coherent() {
		base = incoherentRecommendations
	}

	var extras []string
	if r, ok := typeRecommendations[analysisType]; ok {
		extras = append(extras, r)
	}

	var remediation []string
	for _, o := range cert.Outcomes {
		if !o.Passed() && o.Diagnosis != nil {
			remediation = append(remediation, o.Diagnosis.Remediation...)
		}
	}

	return providers.DedupMerge(maxRecommendations, base, extras, remediation)
}

func providerUsed(s *verifier.Syndrome) string {
	if len(s.Metadata.Providers) == 0 {
		return providers.Local
	}
	return strings.Join(s.Metadata.Providers, "+")
}

func analysisID(lsu string, at time.Time) string {
	h := fnv.New32a()
	h.Write([]byte(lsu))
	h.Write([]byte(strconv.FormatInt(at.UnixNano(), 10)))
	return fmt.Sprintf("qec-%d-%04d", at.Unix(), h.Sum32()%10000)
}

func typeLabel(analysisType string) string {
	switch analysisType {
	case AnalysisFull, AnalysisSecurity, AnalysisCompliance, AnalysisPerformance:
		return analysisType
	}
	return "unknown"
}
