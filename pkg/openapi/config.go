package openapi

import (
	"fmt"
	"os"
	"strings"
)

const (
	defaultTitle       = "Certifier API"
	defaultDescription = "Semantic fault-tolerance certification for natural-language governance requirements."
	defaultPath        = "/openapi.json"
)

// Config controls the generated API document: its metadata, the route it is
// served on relative to the API base path, and the server URL it advertises.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Path        string `toml:"path"`
	ServerURL   string `toml:"server_url"`
}

// ConfigEnv names the environment variables that override Config fields.
type ConfigEnv struct {
	Title       string
	Description string
	Path        string
	ServerURL   string
}

func (e *ConfigEnv) fields(c *Config) map[string]*string {
	return map[string]*string{
		e.Title:       &c.Title,
		e.Description: &c.Description,
		e.Path:        &c.Path,
		e.ServerURL:   &c.ServerURL,
	}
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.loadDefaults()
	if env != nil {
		for key, field := range env.fields(c) {
			if key == "" {
				continue
			}
			if v := os.Getenv(key); v != "" {
				*field = v
			}
		}
	}

	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path %q must start with /", c.Path)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	for dst, src := range map[*string]string{
		&c.Title:       overlay.Title,
		&c.Description: overlay.Description,
		&c.Path:        overlay.Path,
		&c.ServerURL:   overlay.ServerURL,
	} {
		if src != "" {
			*dst = src
		}
	}
}

// DocumentPath returns the route the document is served on.
func (c *Config) DocumentPath() string {
	if c.Path == "" {
		return defaultPath
	}
	return c.Path
}

// Server returns the advertised server URL: ServerURL when set, otherwise
// the API base path the routes are mounted under.
func (c *Config) Server(basePath string) string {
	if c.ServerURL != "" {
		return strings.TrimSuffix(c.ServerURL, "/")
	}
	return basePath
}

func (c *Config) loadDefaults() {
	if c.Title == "" {
		c.Title = defaultTitle
	}
	if c.Description == "" {
		c.Description = defaultDescription
	}
	if c.Path == "" {
		c.Path = defaultPath
	}
}
