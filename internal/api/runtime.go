package api

import (
	"github.com/JaimeStill/certifier/internal/config"
	"github.com/JaimeStill/certifier/internal/engine"
	"github.com/JaimeStill/certifier/internal/infrastructure"
	"github.com/JaimeStill/certifier/internal/policy"
	"github.com/JaimeStill/certifier/pkg/openapi"
	"github.com/JaimeStill/certifier/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination  pagination.Config
	Engine      engine.Config
	Policy      policy.Config
	OpenAPI     openapi.Config
	BasePath    string
	MaxBodySize int64
	Version     string
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Providers: infra.Providers,
		},
		Pagination:  cfg.API.Pagination,
		Engine:      cfg.Engine,
		Policy:      cfg.Policy,
		OpenAPI:     cfg.API.OpenAPI,
		BasePath:    cfg.API.BasePath,
		MaxBodySize: cfg.API.MaxBodySizeBytes(),
		Version:     cfg.Version,
	}
}
