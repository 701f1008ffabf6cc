package engine

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds pipeline settings.
type Config struct {
	// Seed fixes the verifier's random source. Zero seeds from the clock.
	Seed              uint64 `toml:"seed"`
	CertificateTTL    string `toml:"certificate_ttl"`
	AnalysisTimeout   string `toml:"analysis_timeout"`
	AIRepresentations bool   `toml:"ai_representations"`
	SigningKeyID      string `toml:"signing_key_id"`
	SigningKey        string `toml:"signing_key"`
}

// Env maps config fields to environment variable names.
type Env struct {
	Seed              string
	CertificateTTL    string
	AnalysisTimeout   string
	AIRepresentations string
	SigningKeyID      string
	SigningKey        string
}

// CertificateTTLDuration returns CertificateTTL as a time.Duration.
func (c *Config) CertificateTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CertificateTTL)
	return d
}

// AnalysisTimeoutDuration returns AnalysisTimeout as a time.Duration.
func (c *Config) AnalysisTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.AnalysisTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.CertificateTTL != "" {
		c.CertificateTTL = overlay.CertificateTTL
	}
	if overlay.AnalysisTimeout != "" {
		c.AnalysisTimeout = overlay.AnalysisTimeout
	}
	if overlay.AIRepresentations {
		c.AIRepresentations = true
	}
	if overlay.SigningKeyID != "" {
		c.SigningKeyID = overlay.SigningKeyID
	}
	if overlay.SigningKey != "" {
		c.SigningKey = overlay.SigningKey
	}
}

func (c *Config) loadDefaults() {
	if c.CertificateTTL == "" {
		c.CertificateTTL = "24h"
	}
	if c.AnalysisTimeout == "" {
		c.AnalysisTimeout = "2m"
	}
	if c.SigningKeyID == "" {
		c.SigningKeyID = "certifier-key"
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := getenv(env.Seed); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
	if v := getenv(env.CertificateTTL); v != "" {
		c.CertificateTTL = v
	}
	if v := getenv(env.AnalysisTimeout); v != "" {
		c.AnalysisTimeout = v
	}
	if v := getenv(env.AIRepresentations); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AIRepresentations = b
		}
	}
	if v := getenv(env.SigningKeyID); v != "" {
		c.SigningKeyID = v
	}
	if v := getenv(env.SigningKey); v != "" {
		c.SigningKey = v
	}
}

func (c *Config) validate() error {
	if d, err := time.ParseDuration(c.CertificateTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid certificate_ttl: %q", c.CertificateTTL)
	}
	if d, err := time.ParseDuration(c.AnalysisTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid analysis_timeout: %q", c.AnalysisTimeout)
	}
	return nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
