package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/JaimeStill/certifier/internal/certificate"
	"github.com/JaimeStill/certifier/internal/policy"
)

const (
	AnalysisFull        = "full"
	AnalysisSecurity    = "security"
	AnalysisCompliance  = "compliance"
	AnalysisPerformance = "performance"

	ModePolicyEngine = "policy-engine"
	ModeStandalone   = "standalone"
)

// MinLSULength is the shortest accepted requirement after trimming.
const MinLSULength = 10

// Compliance bands layered over the certificate.
const (
	Compliant      = "COMPLIANT"
	NonCompliant   = "NON_COMPLIANT"
	ReviewRequired = "REVIEW_REQUIRED"
)

var providerName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		return providerName.MatchString(fl.Field().String())
	})
	return v
}

// Request asks the engine to certify one requirement.
type Request struct {
	LSU                string         `json:"lsu" validate:"required,min=10"`
	AnalysisType       string         `json:"analysis_type" validate:"oneof=full security compliance performance"`
	ProviderPreference string         `json:"ai_provider_preference,omitempty" validate:"omitempty,max=64,provider"`
	IntegrationMode    string         `json:"integration_mode" validate:"oneof=policy-engine standalone"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Normalize trims input and applies defaults for omitted fields.
func (r *Request) Normalize() {
	r.LSU = strings.TrimSpace(r.LSU)
	r.AnalysisType = strings.ToLower(strings.TrimSpace(r.AnalysisType))
	r.ProviderPreference = strings.ToLower(strings.TrimSpace(r.ProviderPreference))
	r.IntegrationMode = strings.ToLower(strings.TrimSpace(r.IntegrationMode))

	if r.AnalysisType == "" {
		r.AnalysisType = AnalysisFull
	}
	if r.IntegrationMode == "" {
		r.IntegrationMode = ModePolicyEngine
	}
}

// Validate reports every invalid field, wrapped in ErrInvalidRequest.
func (r *Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "LSU":
		return fmt.Sprintf("lsu must be at least %d characters", MinLSULength)
	case "AnalysisType":
		return fmt.Sprintf("unknown analysis_type %q", fe.Value())
	case "IntegrationMode":
		return fmt.Sprintf("unknown integration_mode %q", fe.Value())
	case "ProviderPreference":
		return fmt.Sprintf("malformed ai_provider_preference %q", fe.Value())
	}
	return fe.Error()
}

// Response is the outcome of one certification.
type Response struct {
	AnalysisID       string               `json:"analysis_id"`
	RunID            string               `json:"run_id,omitempty"`
	Timestamp        time.Time            `json:"timestamp"`
	LSUInput         string               `json:"lsu_input"`
	Result           *certificate.Package `json:"qec_result"`
	GeneratedPolicy  string               `json:"generated_policy,omitempty"`
	PolicyValidation *policy.Validation   `json:"policy_validation,omitempty"`
	ComplianceStatus string               `json:"compliance_status"`
	AuditTrailID     string               `json:"audit_trail_id"`
	Recommendations  []string             `json:"recommendations"`
	ProcessingTimeMS int64                `json:"processing_time_ms"`
	ProviderUsed     string               `json:"ai_provider_used"`
	ConfidenceScore  float64              `json:"confidence_score"`
}

// ComplianceStatus bands a certificate into a compliance verdict.
func ComplianceStatus(c *certificate.Certificate) string {
	switch {
	case c.Coherent() && c.CoherenceScore >= 0.8:
		return Compliant
	case !c.Coherent() || c.CoherenceScore < 0.5:
		return NonCompliant
	default:
		return ReviewRequired
	}
}
