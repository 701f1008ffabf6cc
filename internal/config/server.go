package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// ServerConfig holds HTTP listener parameters. WriteTimeout must cover the
// slowest analysis, so it defaults above the engine's analysis timeout.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

var serverEnv = map[string]func(c *ServerConfig) *string{
	"CERTIFIER_SERVER_HOST":             func(c *ServerConfig) *string { return &c.Host },
	"CERTIFIER_SERVER_READ_TIMEOUT":     func(c *ServerConfig) *string { return &c.ReadTimeout },
	"CERTIFIER_SERVER_WRITE_TIMEOUT":    func(c *ServerConfig) *string { return &c.WriteTimeout },
	"CERTIFIER_SERVER_IDLE_TIMEOUT":     func(c *ServerConfig) *string { return &c.IdleTimeout },
	"CERTIFIER_SERVER_SHUTDOWN_TIMEOUT": func(c *ServerConfig) *string { return &c.ShutdownTimeout },
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Timeouts returns the read, write, and idle timeouts for http.Server.
func (c *ServerConfig) Timeouts() (read, write, idle time.Duration) {
	return parseDuration(c.ReadTimeout), parseDuration(c.WriteTimeout), parseDuration(c.IdleTimeout)
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for _, field := range serverEnv {
		if v := *field(overlay); v != "" {
			*field(c) = v
		}
	}
}

func (c *ServerConfig) loadDefaults() {
	defaults := map[*string]string{
		&c.Host:            "0.0.0.0",
		&c.ReadTimeout:     "1m",
		&c.WriteTimeout:    "3m",
		&c.IdleTimeout:     "2m",
		&c.ShutdownTimeout: "30s",
	}
	for dst, v := range defaults {
		if *dst == "" {
			*dst = v
		}
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

func (c *ServerConfig) loadEnv() {
	for name, field := range serverEnv {
		if v := os.Getenv(name); v != "" {
			*field(c) = v
		}
	}
	if v := os.Getenv("CERTIFIER_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	durations := []struct {
		key, value string
	}{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"idle_timeout", c.IdleTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	}
	for _, d := range durations {
		if v, err := time.ParseDuration(d.value); err != nil || v <= 0 {
			return fmt.Errorf("invalid %s: %q", d.key, d.value)
		}
	}
	return nil
}

func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
