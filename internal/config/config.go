// Package config provides configuration loading for uigen.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then UIGEN_* environment variables. See LoadWithFile.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete uigen configuration.
type Config struct {
	Directory DirectoryConfig `koanf:"directory"`
	Auth      AuthConfig      `koanf:"auth"`
	Session   SessionConfig   `koanf:"session"`
	Workspace WorkspaceConfig `koanf:"workspace"`
	Export    ExportConfig    `koanf:"export"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DirectoryConfig configures the project directory client.
type DirectoryConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	// Retries applies to idempotent requests only. Defaults to 2 when unset.
	Retries int           `koanf:"retries"`
}

// AuthConfig configures the session auth client.
type AuthConfig struct {
	// URL defaults to Directory.URL when empty.
	URL   string `koanf:"url"`
	Token Secret `koanf:"token"`
}

// SessionConfig carries the identity and active project the header is
// bound to. An empty UserID means unauthenticated mode.
type SessionConfig struct {
	UserID    string `koanf:"user_id"`
	Email     string `koanf:"email"`
	ProjectID string `koanf:"project_id"`
}

// WorkspaceConfig configures where the virtual file store is seeded from.
type WorkspaceConfig struct {
	Dir string `koanf:"dir"`
}

// ExportConfig configures where archives are saved.
type ExportConfig struct {
	Dir string `koanf:"dir"`
}

// ServerConfig configures the dev directory server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	// RateLimit is requests per second per client IP. Defaults to 20 when
	// unset; an explicit 0 disables limiting.
	RateLimit       float64       `koanf:"rate_limit"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds the subset of logging settings exposed to users.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
	// OTEL also sends log entries to the global OpenTelemetry logger provider.
	OTEL   bool   `koanf:"otel"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.fillDefaults(func(string) bool { return false })
	return cfg
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Directory or auth URL is not an absolute http(s) URL
//   - Directory timeout is not positive or retries are negative
//   - Server port is not between 1 and 65535
//   - Rate limit is negative
//   - Logging format is not json or console
func (c *Config) Validate() error {
	if err := validateHTTPURL("directory.url", c.Directory.URL); err != nil {
		return err
	}
	if c.Auth.URL != "" {
		if err := validateHTTPURL("auth.url", c.Auth.URL); err != nil {
			return err
		}
	}
	if c.Directory.Timeout <= 0 {
		return errors.New("directory timeout must be positive")
	}
	if c.Directory.Retries < 0 {
		return fmt.Errorf("directory retries must be >= 0, got %d", c.Directory.Retries)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server rate limit must be >= 0, got %v", c.Server.RateLimit)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	return nil
}

// AuthURL returns the auth endpoint base, falling back to the directory URL.
func (c *Config) AuthURL() string {
	if c.Auth.URL != "" {
		return c.Auth.URL
	}
	return c.Directory.URL
}

func validateHTTPURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s: scheme must be http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s: missing host", field)
	}
	return nil
}
