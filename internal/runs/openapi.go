package runs

import "github.com/JaimeStill/certifier/pkg/openapi"

var listOp = &openapi.Operation{
	Summary: "List certification runs",
	Tags:    []string{"Runs"},
	Parameters: []*openapi.Parameter{
		openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
		openapi.QueryParam("page_size", "integer", "Results per page", false),
		openapi.QueryParam("search", "string", "Search requirement text and analysis ID", false),
		openapi.QueryParam("sort", "string", "Sort fields such as -StartedAt, prefix with - for descending", false),
		openapi.QueryParam("state", "string", "Filter by run state", false),
		openapi.QueryParam("compliance_status", "string", "Filter by compliance status", false),
		openapi.QueryParam("analysis_type", "string", "Filter by analysis type", false),
	},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Page of runs", "RunPage"),
	},
}

var findOp = &openapi.Operation{
	Summary:    "Find a run",
	Tags:       []string{"Runs"},
	Parameters: []*openapi.Parameter{openapi.PathParam("id", "Run ID")},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Run", "Run"),
		400: openapi.ResponseRef("BadRequest"),
		404: openapi.ResponseRef("NotFound"),
	},
}

var packageOp = &openapi.Operation{
	Summary:    "Download the signed artifact package of a run",
	Tags:       []string{"Runs"},
	Parameters: []*openapi.Parameter{openapi.PathParam("id", "Run ID")},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseJSON("Artifact package", "ArtifactPackage"),
		404: openapi.ResponseRef("NotFound"),
	},
}

// Schemas returns the component schemas referenced by the run routes.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Run": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                {Type: "string", Format: "uuid"},
				"analysis_id":       {Type: "string"},
				"lsu":               {Type: "string"},
				"analysis_type":     {Type: "string"},
				"state":             {Type: "string", Enum: []any{StatePending, StateProcessing, StateCompleted, StateFailed}},
				"started_at":        {Type: "string", Format: "date-time"},
				"ended_at":          {Type: "string", Format: "date-time"},
				"package_ref":       {Type: "string"},
				"error":             {Type: "string"},
				"status":            {Type: "string"},
				"coherence_score":   {Type: "number"},
				"compliance_status": {Type: "string"},
				"provider_used":     {Type: "string"},
				"metadata":          {Type: "object"},
			},
		},
		"RunPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        openapi.ArrayOf(openapi.SchemaRef("Run")),
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
	}
}
