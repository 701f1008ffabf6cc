package openapi

import "maps"

// NewComponents creates Components with shared schemas and error responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"PageRequest": Object(map[string]*Schema{
				"page":      {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
				"page_size": {Type: "integer", Description: "Results per page", Example: 20},
				"search":    {Type: "string", Description: "Search query"},
				"sort":      {Type: "string", Description: "Comma-separated sort fields. Prefix with - for descending. Example: Compliance,-StartedAt"},
			}),
		},
		Responses: map[string]*Response{
			"BadRequest": {
				Description: "Invalid request",
				Content:     errorContent(),
			},
			"NotFound": {
				Description: "Resource not found",
				Content:     errorContent(),
			},
			"PayloadTooLarge": {
				Description: "Request body exceeds the configured limit",
				Content:     errorContent(),
			},
			"InternalError": {
				Description: "Unexpected server failure",
				Content:     errorContent(),
			},
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges the given responses into the component responses.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}

func errorContent() map[string]*MediaType {
	return JSONContent(Object(map[string]*Schema{
		"error": {Type: "string", Description: "Error message"},
	}))
}
