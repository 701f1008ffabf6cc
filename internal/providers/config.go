package providers

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Dialect identifies how a backend shapes its completion content.
type Dialect string

const (
	// DialectReasoning content may open with a <think>...</think> trace before the JSON body.
	DialectReasoning Dialect = "reasoning"
	// DialectStructured content is a JSON body, optionally inside a code fence.
	DialectStructured Dialect = "structured"
)

// BackendConfig describes one chat-completion backend.
type BackendConfig struct {
	Name              string   `toml:"name"`
	Dialect           Dialect  `toml:"dialect"`
	BaseURL           string   `toml:"base_url"`
	APIKey            string   `toml:"api_key"`
	Model             string   `toml:"model"`
	Capabilities      []string `toml:"capabilities"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	MaxTokens         int      `toml:"max_tokens"`
	Temperature       float32  `toml:"temperature"`
	NoAuth            bool     `toml:"no_auth"`
	Disabled          bool     `toml:"disabled"`
}

// Enabled reports whether the backend should be registered. Backends that
// need a key and have none are skipped.
func (b *BackendConfig) Enabled() bool {
	return !b.Disabled && (b.APIKey != "" || b.NoAuth)
}

// CapabilityTags converts the configured capability strings.
func (b *BackendConfig) CapabilityTags() []Capability {
	tags := make([]Capability, len(b.Capabilities))
	for i, c := range b.Capabilities {
		tags[i] = Capability(c)
	}
	return tags
}

// Config holds backend definitions and the availability policy.
type Config struct {
	AvailabilityTTL string          `toml:"availability_ttl"`
	Timeout         string          `toml:"timeout"`
	Backends        []BackendConfig `toml:"backends"`
}

// Env maps config fields to environment variable names. BackendPrefix is
// combined with each backend name, e.g. CERTIFIER_GROQ_API_KEY.
type Env struct {
	AvailabilityTTL string
	Timeout         string
	BackendPrefix   string
}

// AvailabilityTTLDuration returns AvailabilityTTL as a time.Duration.
func (c *Config) AvailabilityTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.AvailabilityTTL)
	return d
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Enabled returns the backends that should be registered, in configured order.
func (c *Config) Enabled() []BackendConfig {
	var out []BackendConfig
	for _, b := range c.Backends {
		if b.Enabled() {
			out = append(out, b)
		}
	}
	return out
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Overlay backends replace
// base backends with the same name field by field and are appended otherwise.
func (c *Config) Merge(overlay *Config) {
	if overlay.AvailabilityTTL != "" {
		c.AvailabilityTTL = overlay.AvailabilityTTL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}

	for _, ob := range overlay.Backends {
		if b := c.backend(ob.Name); b != nil {
			b.merge(&ob)
			continue
		}
		c.Backends = append(c.Backends, ob)
	}
}

// DefaultBackends returns the NVIDIA and Groq definitions used when none are configured.
func DefaultBackends() []BackendConfig {
	return []BackendConfig{
		{
			Name:         "nvidia",
			Dialect:      DialectReasoning,
			BaseURL:      "https://integrate.api.nvidia.com/v1",
			Model:        "nvidia/llama-3.1-nemotron-ultra-253b-v1",
			Capabilities: []string{string(CapabilityReasoning), string(CapabilityPolicyGeneration)},
		},
		{
			Name:         "groq",
			Dialect:      DialectStructured,
			BaseURL:      "https://api.groq.com/openai/v1",
			Model:        "llama-3.3-70b-versatile",
			Capabilities: []string{string(CapabilityComprehensive), string(CapabilityFastInference)},
		},
	}
}

func (c *Config) backend(name string) *BackendConfig {
	for i := range c.Backends {
		if c.Backends[i].Name == name {
			return &c.Backends[i]
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.AvailabilityTTL == "" {
		c.AvailabilityTTL = "5m"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if len(c.Backends) == 0 {
		c.Backends = DefaultBackends()
	}
	for i := range c.Backends {
		c.Backends[i].loadDefaults()
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := getenv(env.AvailabilityTTL); v != "" {
		c.AvailabilityTTL = v
	}
	if v := getenv(env.Timeout); v != "" {
		c.Timeout = v
	}
	if env.BackendPrefix == "" {
		return
	}
	for i := range c.Backends {
		c.Backends[i].loadEnv(env.BackendPrefix)
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.AvailabilityTTL); err != nil {
		return fmt.Errorf("invalid availability_ttl: %w", err)
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout: %q", c.Timeout)
	}

	seen := make(map[string]bool, len(c.Backends))
	for _, b := range c.Backends {
		if err := b.validate(); err != nil {
			return fmt.Errorf("backend %q: %w", b.Name, err)
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate backend name %q", b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

func (b *BackendConfig) merge(o *BackendConfig) {
	if o.Dialect != "" {
		b.Dialect = o.Dialect
	}
	if o.BaseURL != "" {
		b.BaseURL = o.BaseURL
	}
	if o.APIKey != "" {
		b.APIKey = o.APIKey
	}
	if o.Model != "" {
		b.Model = o.Model
	}
	if o.Capabilities != nil {
		b.Capabilities = o.Capabilities
	}
	if o.RequestsPerSecond != 0 {
		b.RequestsPerSecond = o.RequestsPerSecond
	}
	if o.Burst != 0 {
		b.Burst = o.Burst
	}
	if o.MaxTokens != 0 {
		b.MaxTokens = o.MaxTokens
	}
	if o.Temperature != 0 {
		b.Temperature = o.Temperature
	}
	b.NoAuth = b.NoAuth || o.NoAuth
	b.Disabled = o.Disabled
}

func (b *BackendConfig) loadDefaults() {
	if b.Dialect == "" {
		b.Dialect = DialectStructured
	}
	if b.RequestsPerSecond == 0 {
		b.RequestsPerSecond = 2
	}
	if b.Burst == 0 {
		b.Burst = 4
	}
	if b.MaxTokens == 0 {
		b.MaxTokens = 2000
	}
	if b.Temperature == 0 {
		b.Temperature = 0.3
	}
}

func (b *BackendConfig) loadEnv(prefix string) {
	key := prefix + strings.ToUpper(strings.ReplaceAll(b.Name, "-", "_")) + "_"

	if v := os.Getenv(key + "API_KEY"); v != "" {
		b.APIKey = v
	}
	if v := os.Getenv(key + "BASE_URL"); v != "" {
		b.BaseURL = v
	}
	if v := os.Getenv(key + "MODEL"); v != "" {
		b.Model = v
	}
	if v := os.Getenv(key + "DISABLED"); v != "" {
		if disabled, err := strconv.ParseBool(v); err == nil {
			b.Disabled = disabled
		}
	}
}

func (b *BackendConfig) validate() error {
	if b.Name == "" {
		return fmt.Errorf("name required")
	}
	if b.Name == Local || b.Name == Hybrid {
		return fmt.Errorf("name %q is reserved", b.Name)
	}
	if b.Model == "" {
		return fmt.Errorf("model required")
	}
	u, err := url.Parse(b.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", b.BaseURL)
	}
	if b.Dialect != DialectReasoning && b.Dialect != DialectStructured {
		return fmt.Errorf("unknown dialect %q", b.Dialect)
	}
	for _, c := range b.CapabilityTags() {
		switch c {
		case CapabilityReasoning, CapabilityPolicyGeneration, CapabilityComprehensive, CapabilityFastInference:
		default:
			return fmt.Errorf("unknown capability %q", c)
		}
	}
	if b.Temperature < 0 || b.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0,2]")
	}
	if b.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	return nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
