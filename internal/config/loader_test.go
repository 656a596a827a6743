package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestHome points HOME at a temp dir and returns ~/.config/uigen.
func setupTestHome(t *testing.T) string {
	t.Helper()
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "uigen")
	require.NoError(t, os.MkdirAll(configDir, 0700))
	return configDir
}

func writeConfig(t *testing.T, dir, body string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoadWithFile_Defaults(t *testing.T) {
	setupTestHome(t)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.Directory.URL)
	assert.Equal(t, 10*time.Second, cfg.Directory.Timeout)
	assert.Equal(t, 2, cfg.Directory.Retries)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 20.0, cfg.Server.RateLimit)
	assert.Equal(t, ".", cfg.Export.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Contains(t, cfg.Logging.File, filepath.Join(".config", "uigen", "uigen.log"))
	assert.Equal(t, cfg.Directory.URL, cfg.AuthURL())
}

func TestLoadWithFile_YAML(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, `
directory:
  url: https://designs.example.com
  timeout: 3s
  retries: 4
auth:
  url: https://auth.example.com
  token: s3cret
session:
  user_id: u-1
  email: dev@example.com
  project_id: p-1
export:
  dir: /tmp/out
logging:
  format: console
`, 0600)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://designs.example.com", cfg.Directory.URL)
	assert.Equal(t, 3*time.Second, cfg.Directory.Timeout)
	assert.Equal(t, 4, cfg.Directory.Retries)
	assert.Equal(t, "https://auth.example.com", cfg.AuthURL())
	assert.Equal(t, "s3cret", cfg.Auth.Token.Value())
	assert.Equal(t, "[REDACTED]", cfg.Auth.Token.String())
	assert.Equal(t, "u-1", cfg.Session.UserID)
	assert.Equal(t, "p-1", cfg.Session.ProjectID)
	assert.Equal(t, "/tmp/out", cfg.Export.Dir)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadWithFile_EnvOverridesFile(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "session:\n  user_id: from-file\n", 0600)

	t.Setenv("UIGEN_SESSION_USER_ID", "from-env")
	t.Setenv("UIGEN_SERVER_PORT", "8088")
	t.Setenv("UIGEN_SERVER_RATE_LIMIT", "5")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Session.UserID)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 5.0, cfg.Server.RateLimit)
}

func TestLoadWithFile_RejectsOutsideAllowedDirs(t *testing.T) {
	setupTestHome(t)

	_, err := LoadWithFile(filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path validation failed")
}

func TestLoadWithFile_RejectsSiblingPrefix(t *testing.T) {
	dir := setupTestHome(t)

	_, err := LoadWithFile(dir + "-evil/config.yaml")
	require.Error(t, err)
}

func TestLoadWithFile_InsecurePermissions(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "logging:\n  level: debug\n", 0644)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoadWithFile_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad scheme", "directory:\n  url: ftp://example.com\n", "scheme must be http or https"},
		{"bad port", "server:\n  port: 70000\n", "invalid server port"},
		{"bad format", "logging:\n  format: xml\n", "logging format"},
		{"negative retries", "directory:\n  retries: -1\n", "retries must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupTestHome(t)
			path := writeConfig(t, dir, tt.body, 0600)

			_, err := LoadWithFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnsureConfigDir(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	require.NoError(t, EnsureConfigDir())

	info, err := os.Stat(filepath.Join(tmpHome, ".config", "uigen"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "directory.url", envKey("UIGEN_DIRECTORY_URL"))
	assert.Equal(t, "session.project_id", envKey("UIGEN_SESSION_PROJECT_ID"))
	assert.Equal(t, "export", envKey("UIGEN_EXPORT"))
}

func TestLoadWithFile_ExplicitZeroKept(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "server:\n  rate_limit: 0\n", 0600)
	t.Setenv("UIGEN_DIRECTORY_RETRIES", "0")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Zero(t, cfg.Server.RateLimit)
	assert.Zero(t, cfg.Directory.Retries)
	assert.Equal(t, 3000, cfg.Server.Port)
}
