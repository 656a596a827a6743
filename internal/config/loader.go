package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is stripped from environment keys before mapping.
	EnvPrefix = "UIGEN_"

	// ArchiveName is the fixed file name exports are saved under.
	ArchiveName = "uigen-export.zip"

	systemConfigDir = "/etc/uigen"
	maxFileBytes    = 1 << 20
)

// LoadWithFile reads configuration in three layers: defaults, then the YAML
// file at configPath (~/.config/uigen/config.yaml when empty), then UIGEN_*
// environment variables.
//
// The file must live under ~/.config/uigen/ or /etc/uigen/, be mode 0600 or
// 0400, and be at most 1MB. A missing file is skipped.
//
// Environment keys split on the first underscore after the prefix:
//
//	UIGEN_DIRECTORY_URL     -> directory.url
//	UIGEN_SESSION_USER_ID   -> session.user_id
//	UIGEN_SERVER_RATE_LIMIT -> server.rate_limit
func LoadWithFile(configPath string) (*Config, error) {
	if configPath == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(dir, "config.yaml")
	}
	if err := checkConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	k := koanf.New(".")
	if err := loadFile(k, configPath); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := new(Config)
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.fillDefaults(k.Exists)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ConfigDir returns ~/.config/uigen.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "uigen"), nil
}

// EnsureConfigDir creates ConfigDir with mode 0700.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	if section, field, ok := strings.Cut(key, "_"); ok {
		return section + "." + field
	}
	return key
}

// loadFile checks mode and size on the open descriptor, so the file that is
// checked is the file that is read.
func loadFile(k *koanf.Koanf, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat config file: %w", err)
	}
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}
	if info.Size() > maxFileBytes {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileBytes)
	}

	body, err := io.ReadAll(io.LimitReader(f, maxFileBytes))
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := k.Load(rawbytes.Provider(body), yaml.Parser()); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// checkConfigPath resolves symlinks when the target exists and requires the
// result to sit inside one of the accepted directories.
func checkConfigPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	userDir, err := ConfigDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{userDir, systemConfigDir} {
		rel, err := filepath.Rel(dir, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("%s is outside ~/.config/uigen/ and %s/", path, systemConfigDir)
}

// fillDefaults replaces zero values. Retries and the rate limit have a
// meaningful zero, so they keep it when set reports the key as present.
func (c *Config) fillDefaults(set func(key string) bool) {
	d := &c.Directory
	d.URL = orDefault(d.URL, "http://localhost:3000")
	if d.Timeout == 0 {
		d.Timeout = 10 * time.Second
	}
	if d.Retries == 0 && !set("directory.retries") {
		d.Retries = 2
	}

	c.Export.Dir = orDefault(c.Export.Dir, ".")

	s := &c.Server
	s.Host = orDefault(s.Host, "localhost")
	if s.Port == 0 {
		s.Port = 3000
	}
	if s.RateLimit == 0 && !set("server.rate_limit") {
		s.RateLimit = 20
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 10 * time.Second
	}

	l := &c.Logging
	l.Level = orDefault(l.Level, "info")
	l.Format = orDefault(l.Format, "json")
	if l.File == "" {
		if dir, err := ConfigDir(); err == nil {
			l.File = filepath.Join(dir, "uigen.log")
		}
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
