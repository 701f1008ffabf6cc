package engine

import "github.com/JaimeStill/certifier/pkg/openapi"

var (
	minLSU   = MinLSULength
	unitLow  = -1.0
	unitHigh = 1.0
)

var analyzeOp = &openapi.Operation{
	Summary:     "Certify a requirement",
	Description: "Runs the stabilizer checks, issues a signed certificate of semantic integrity, and reports compliance. Invalid input returns 400 with a REVIEW_REQUIRED body.",
	Tags:        []string{"QEC"},
	RequestBody: openapi.RequestBodyJSON("AnalysisRequest", true),
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Analysis completed", "AnalysisResponse"),
		400: openapi.ResponseRef("BadRequest"),
		413: openapi.ResponseRef("PayloadTooLarge"),
		500: openapi.ResponseRef("InternalError"),
	},
}

var statusOp = &openapi.Operation{
	Summary: "Service and provider status",
	Tags:    []string{"QEC"},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Current status", "ServiceStatus"),
	},
}

var refreshOp = &openapi.Operation{
	Summary: "Re-probe every analysis provider",
	Tags:    []string{"QEC"},
	Responses: map[int]*openapi.Response{
		200: {
			Description: "Provider availability after probing",
			Content: openapi.JSONContent(openapi.Object(map[string]*openapi.Schema{
				"providers": openapi.ArrayOf(openapi.SchemaRef("Provider")),
			})),
		},
	},
}

// Schemas returns the component schemas referenced by the certification routes.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"AnalysisRequest": {
			Type:     "object",
			Required: []string{"lsu"},
			Properties: map[string]*openapi.Schema{
				"lsu":                    {Type: "string", Description: "Governance requirement to certify", MinLength: &minLSU},
				"analysis_type":          {Type: "string", Default: AnalysisFull, Enum: []any{AnalysisFull, AnalysisSecurity, AnalysisCompliance, AnalysisPerformance}},
				"ai_provider_preference": {Type: "string", Description: "Provider name, or hybrid to consult every available provider"},
				"integration_mode":       {Type: "string", Default: ModePolicyEngine, Enum: []any{ModePolicyEngine, ModeStandalone}},
				"metadata":               {Type: "object"},
			},
		},
		"AnalysisResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"analysis_id":        {Type: "string", Example: "qec-1760745600-0042"},
				"run_id":             {Type: "string", Format: "uuid"},
				"timestamp":          {Type: "string", Format: "date-time"},
				"lsu_input":          {Type: "string"},
				"qec_result":         openapi.SchemaRef("ArtifactPackage"),
				"generated_policy":   {Type: "string", Description: "Rego policy, present in policy-engine mode"},
				"policy_validation":  {Type: "object"},
				"compliance_status":  {Type: "string", Enum: []any{Compliant, NonCompliant, ReviewRequired}},
				"audit_trail_id":     {Type: "string"},
				"recommendations":    openapi.ArrayOf(&openapi.Schema{Type: "string"}),
				"processing_time_ms": {Type: "integer"},
				"ai_provider_used":   {Type: "string", Example: "nvidia+groq"},
				"confidence_score":   {Type: "number", Minimum: &unitLow, Maximum: &unitHigh},
			},
		},
		"ArtifactPackage": {
			Type:        "object",
			Description: "Signed payload and certificate of semantic integrity",
			Properties: map[string]*openapi.Schema{
				"payload":                           {Type: "object"},
				"certificate_of_semantic_integrity": {Type: "object"},
				"signature":                         {Type: "object"},
			},
		},
		"Provider": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name":         {Type: "string"},
				"capabilities": openapi.ArrayOf(&openapi.Schema{Type: "string"}),
				"available":    {Type: "boolean"},
				"last_probe":   {Type: "string", Format: "date-time"},
				"last_error":   {Type: "string"},
			},
		},
		"ServiceStatus": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"service":         {Type: "string", Example: "operational"},
				"version":         {Type: "string"},
				"providers":       openapi.ArrayOf(openapi.SchemaRef("Provider")),
				"policy_endpoint": {Type: "string"},
				"timestamp":       {Type: "string", Format: "date-time"},
			},
		},
	}
}
