package api

import (
	"net/http"

	"github.com/JaimeStill/certifier/internal/engine"
	"github.com/JaimeStill/certifier/internal/runs"
	"github.com/JaimeStill/certifier/pkg/openapi"
	"github.com/JaimeStill/certifier/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) error {
	groups := []routes.Group{
		domain.Runs.Handler().Routes(),
		domain.Engine.Handler(runtime.MaxBodySize).Routes(),
	}
	routes.Register(mux, groups...)

	spec, err := buildSpec(runtime, groups)
	if err != nil {
		return err
	}
	mux.HandleFunc("GET "+runtime.OpenAPI.DocumentPath(), openapi.ServeSpec(spec))
	return nil
}

func buildSpec(runtime *Runtime, groups []routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(runtime.OpenAPI.Title, runtime.Version)
	spec.SetDescription(runtime.OpenAPI.Description)
	spec.AddServer(runtime.OpenAPI.Server(runtime.BasePath))
	spec.Components.AddSchemas(runs.Schemas())
	spec.Components.AddSchemas(engine.Schemas())

	routes.Describe(spec, groups...)
	return openapi.MarshalJSON(spec)
}
