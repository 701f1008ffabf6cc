package providers_test

import (
	"testing"

	"github.com/JaimeStill/certifier/internal/providers"
)

func TestConfigDefaults(t *testing.T) {
	cfg := providers.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if cfg.AvailabilityTTL != "5m" || cfg.Timeout != "30s" {
		t.Errorf("durations: got ttl=%s timeout=%s", cfg.AvailabilityTTL, cfg.Timeout)
	}
	if len(cfg.Backends) != 2 || cfg.Backends[0].Name != "nvidia" || cfg.Backends[1].Name != "groq" {
		t.Fatalf("default backends: %+v", cfg.Backends)
	}
	if len(cfg.Enabled()) != 0 {
		t.Error("backends without keys must not be enabled")
	}
}

func TestConfigBackendEnv(t *testing.T) {
	t.Setenv("TEST_GROQ_API_KEY", "gsk-test")
	t.Setenv("TEST_GROQ_MODEL", "llama-3.1-8b-instant")

	cfg := providers.Config{}
	if err := cfg.Finalize(&providers.Env{BackendPrefix: "TEST_"}); err != nil {
		t.Fatal(err)
	}

	enabled := cfg.Enabled()
	if len(enabled) != 1 || enabled[0].Name != "groq" {
		t.Fatalf("enabled: %+v", enabled)
	}
	if enabled[0].Model != "llama-3.1-8b-instant" {
		t.Errorf("model override: got %s", enabled[0].Model)
	}
}

func TestConfigMerge(t *testing.T) {
	base := providers.Config{Backends: providers.DefaultBackends()}
	base.Merge(&providers.Config{
		Timeout: "10s",
		Backends: []providers.BackendConfig{
			{Name: "groq", APIKey: "k"},
			{Name: "ollama", BaseURL: "http://localhost:11434/v1", Model: "qwen3", NoAuth: true},
		},
	})

	if err := base.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	names := []string{}
	for _, b := range base.Enabled() {
		names = append(names, b.Name)
	}
	if len(names) != 2 || names[0] != "groq" || names[1] != "ollama" {
		t.Errorf("enabled after merge: %v", names)
	}
	if base.Backends[1].BaseURL != "https://api.groq.com/openai/v1" {
		t.Error("merge overwrote base_url with zero value")
	}
	if base.TimeoutDuration().Seconds() != 10 {
		t.Errorf("timeout: got %v", base.TimeoutDuration())
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func() providers.BackendConfig {
		return providers.BackendConfig{Name: "x", BaseURL: "https://x.test/v1", Model: "m"}
	}

	tests := []struct {
		name   string
		mutate func(*providers.Config)
	}{
		{"bad ttl", func(c *providers.Config) { c.AvailabilityTTL = "soon" }},
		{"zero timeout", func(c *providers.Config) { c.Timeout = "0s" }},
		{"reserved name", func(c *providers.Config) { c.Backends[0].Name = "local" }},
		{"missing model", func(c *providers.Config) { c.Backends[0].Model = "" }},
		{"bad url", func(c *providers.Config) { c.Backends[0].BaseURL = "not a url" }},
		{"unknown dialect", func(c *providers.Config) { c.Backends[0].Dialect = "xml" }},
		{"unknown capability", func(c *providers.Config) { c.Backends[0].Capabilities = []string{"telepathy"} }},
		{"duplicate", func(c *providers.Config) { c.Backends = append(c.Backends, c.Backends[0]) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := providers.Config{Backends: []providers.BackendConfig{valid()}}
			tt.mutate(&cfg)
			if err := cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
