package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/certifier/internal/engine"
	"github.com/JaimeStill/certifier/internal/policy"
	"github.com/JaimeStill/certifier/internal/providers"
	"github.com/JaimeStill/certifier/pkg/database"
	"github.com/JaimeStill/certifier/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCertifierEnv             = "CERTIFIER_ENV"
	EnvCertifierShutdownTimeout = "CERTIFIER_SHUTDOWN_TIMEOUT"
	EnvCertifierVersion         = "CERTIFIER_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "CERTIFIER_DB_HOST",
	Port:            "CERTIFIER_DB_PORT",
	Name:            "CERTIFIER_DB_NAME",
	User:            "CERTIFIER_DB_USER",
	Password:        "CERTIFIER_DB_PASSWORD",
	SSLMode:         "CERTIFIER_DB_SSL_MODE",
	MaxOpenConns:    "CERTIFIER_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "CERTIFIER_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "CERTIFIER_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "CERTIFIER_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "CERTIFIER_STORAGE_CONTAINER_NAME",
	ConnectionString: "CERTIFIER_STORAGE_CONNECTION_STRING",
	Prefix:           "CERTIFIER_STORAGE_PREFIX",
}

var providersEnv = &providers.Env{
	AvailabilityTTL: "CERTIFIER_PROVIDERS_AVAILABILITY_TTL",
	Timeout:         "CERTIFIER_PROVIDERS_TIMEOUT",
	BackendPrefix:   "CERTIFIER_",
}

var engineEnv = &engine.Env{
	Seed:              "CERTIFIER_ENGINE_SEED",
	CertificateTTL:    "CERTIFIER_ENGINE_CERTIFICATE_TTL",
	AnalysisTimeout:   "CERTIFIER_ENGINE_ANALYSIS_TIMEOUT",
	AIRepresentations: "CERTIFIER_ENGINE_AI_REPRESENTATIONS",
	SigningKeyID:      "CERTIFIER_ENGINE_SIGNING_KEY_ID",
	SigningKey:        "CERTIFIER_ENGINE_SIGNING_KEY",
}

var policyEnv = &policy.Env{
	Endpoint: "CERTIFIER_POLICY_ENDPOINT",
	Timeout:  "CERTIFIER_POLICY_TIMEOUT",
}

// Config is the root configuration for the certifier service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Providers       providers.Config `toml:"providers"`
	Engine          engine.Config    `toml:"engine"`
	Policy          policy.Config    `toml:"policy"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the CERTIFIER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCertifierEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// LoadStandalone loads configuration for in-process runs. Only the sections
// needed without a database or blob storage are finalized.
func LoadStandalone(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path != "" {
		cfg, err = load(path)
	} else {
		cfg, err = read()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.finalizeStandalone(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Providers.Merge(&overlay.Providers)
	c.Engine.Merge(&overlay.Engine)
	c.Policy.Merge(&overlay.Policy)
}

func read() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	return cfg, nil
}

func (c *Config) finalize() error {
	if err := c.finalizeStandalone(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) finalizeStandalone() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Providers.Finalize(providersEnv); err != nil {
		return fmt.Errorf("providers: %w", err)
	}
	if err := c.Engine.Finalize(engineEnv); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Policy.Finalize(policyEnv); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvCertifierShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCertifierVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvCertifierEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
