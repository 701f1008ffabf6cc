package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/certifier/pkg/formatting"
	"github.com/JaimeStill/certifier/pkg/middleware"
	"github.com/JaimeStill/certifier/pkg/openapi"
	"github.com/JaimeStill/certifier/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CERTIFIER_CORS_ENABLED",
	Origins:          "CERTIFIER_CORS_ORIGINS",
	AllowedMethods:   "CERTIFIER_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CERTIFIER_CORS_ALLOWED_HEADERS",
	AllowCredentials: "CERTIFIER_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CERTIFIER_CORS_MAX_AGE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "CERTIFIER_OPENAPI_TITLE",
	Description: "CERTIFIER_OPENAPI_DESCRIPTION",
	Path:        "CERTIFIER_OPENAPI_PATH",
	ServerURL:   "CERTIFIER_OPENAPI_SERVER_URL",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "CERTIFIER_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "CERTIFIER_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, request limits, CORS, pagination, and
// OpenAPI document settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
	OpenAPI     openapi.Config        `toml:"openapi"`
}

// MaxBodySizeBytes returns MaxBodySize in bytes.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxBodySize)
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("CERTIFIER_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("CERTIFIER_API_MAX_BODY_SIZE"); v != "" {
		c.MaxBodySize = v
	}
}

func (c *APIConfig) validate() error {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_body_size must be positive")
	}
	return nil
}
