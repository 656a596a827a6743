package logging

import (
	"fmt"
	"regexp"

	"github.com/fyrsmithlabs/uigen/internal/config"
	"go.uber.org/zap/zapcore"
)

const maxPatternLen = 200

// Config is the full logger configuration. Users only see the subset in
// config.LoggingConfig; the rest is fixed by NewDefaultConfig.
type Config struct {
	Level     zapcore.Level     `koanf:"level"`
	Format    string            `koanf:"format"`
	Output    OutputConfig      `koanf:"output"`
	Caller    bool              `koanf:"caller"`
	Fields    map[string]string `koanf:"fields"`
	Redaction RedactionConfig   `koanf:"redaction"`
}

// OutputConfig controls where logs are written. With no output enabled the
// logger discards everything. OTEL sends entries through the otelzap bridge
// to an OpenTelemetry LoggerProvider.
type OutputConfig struct {
	File   string `koanf:"file"`
	Stderr bool   `koanf:"stderr"`
	OTEL   bool   `koanf:"otel"`
}

// RedactionConfig lists keys whose values are always hidden and patterns
// that hide any matching string value or message.
type RedactionConfig struct {
	Enabled  bool     `koanf:"enabled"`
	Fields   []string `koanf:"fields"`
	Patterns []string `koanf:"patterns"`
}

// NewDefaultConfig returns info-level JSON with redaction on and no sink.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Caller: true,
		Fields: map[string]string{
			"service": "uigen",
		},
		Redaction: RedactionConfig{
			Enabled: true,
			Fields: []string{
				"password", "secret", "token", "api_key",
				"authorization", "bearer", "credential",
			},
			Patterns: []string{
				`(?i)bearer\s+\S+`,
				`(?i)api[_-]?key[=:]\s*\S+`,
			},
		},
	}
}

// FromSettings maps the user facing logging section onto a Config.
func FromSettings(s config.LoggingConfig) (*Config, error) {
	cfg := NewDefaultConfig()
	if s.Level != "" {
		lvl, err := LevelFromString(s.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", s.Level, err)
		}
		cfg.Level = lvl
	}
	if s.Format != "" {
		cfg.Format = s.Format
	}
	cfg.Output.File = s.File
	cfg.Output.OTEL = s.OTEL
	return cfg, nil
}

// Validate rejects unknown formats, unusable redaction patterns, and empty
// static fields.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if c.Redaction.Enabled {
		for _, p := range c.Redaction.Patterns {
			if len(p) > maxPatternLen {
				return fmt.Errorf("redaction pattern longer than %d chars: %q", maxPatternLen, p)
			}
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("invalid redaction pattern %q: %w", p, err)
			}
		}
	}
	for k, v := range c.Fields {
		if k == "" || v == "" {
			return fmt.Errorf("static field %q needs a non-empty key and value", k)
		}
	}
	return nil
}
