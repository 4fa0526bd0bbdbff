package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyscout/scout/errors"
)

func TestLoadFromBytes(t *testing.T) {
	yamlContent := []byte(`
version: "1.0"
service:
  base_url: "http://search.internal:3049"
  request_timeout: 10s
poll:
  interval: 1s
  min_gap: 500ms
  hard_timeout: 90s
web:
  listen: "127.0.0.1:9000"
`)

	cfg, err := LoadFromBytes(yamlContent)
	require.NoError(t, err)

	assert.Equal(t, "http://search.internal:3049", cfg.Service.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, time.Second, cfg.PollInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.PollMinGap())
	assert.Equal(t, 90*time.Second, cfg.HardTimeout())
	assert.Equal(t, "127.0.0.1:9000", cfg.WebListen())
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`version: "1.0"`))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.Service.BaseURL)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout())
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())
	assert.Equal(t, DefaultPollMinGap, cfg.PollMinGap())
	assert.Equal(t, DefaultHardTimeout, cfg.HardTimeout())
	assert.Equal(t, DefaultWebListen, cfg.WebListen())
}

func TestInvalidDuration(t *testing.T) {
	_, err := LoadFromBytes([]byte(`
version: "1.0"
poll:
  interval: "soon"
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("SCOUT_TEST_URL", "http://expanded:3049")

	cfg, err := LoadFromBytes([]byte(`
version: "1.0"
service:
  base_url: "${SCOUT_TEST_URL}"
`))
	require.NoError(t, err)
	assert.Equal(t, "http://expanded:3049", cfg.Service.BaseURL)

	// Default value syntax
	cfg, err = LoadFromBytes([]byte(`
version: "1.0"
service:
  base_url: "${SCOUT_UNSET_URL:-http://fallback:3049}"
`))
	require.NoError(t, err)
	assert.Equal(t, "http://fallback:3049", cfg.Service.BaseURL)
}

// TestExtensions verifies that custom extensions in scout.yml are properly loaded
func TestExtensions(t *testing.T) {
	yamlContent := []byte(`
version: "1.0"

# Extension fields consumed by the logging package
logging:
  level: debug
  report_caller: true
`)

	cfg, err := LoadFromBytes(yamlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg.Extensions)

	_, ok := cfg.Extensions["logging"]
	require.True(t, ok, "expected 'logging' extension to be present")

	type LoggingConfig struct {
		Level        string `yaml:"level"`
		ReportCaller bool   `yaml:"report_caller"`
	}

	var logCfg LoggingConfig
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
	assert.True(t, logCfg.ReportCaller)

	// Non-existent extension should not error and leave the target zero-valued
	var unknown LoggingConfig
	require.NoError(t, cfg.UnmarshalExtension("unknown", &unknown))
	assert.Empty(t, unknown.Level)
}

func TestLoadFromTOMLBytes(t *testing.T) {
	tomlContent := []byte(`
version = "1.0"

[poll]
interval = "3s"
`)

	cfg, err := LoadFromTOMLBytes(tomlContent)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.PollInterval())
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	path := filepath.Join(dir, "scout.yml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1.0"`), 0o644))

	// Walks up from a nested directory
	found, err := FindConfigFile(sub)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestLoadFromMissingConfigUsesDefaults(t *testing.T) {
	// An isolated directory with no config anywhere on the search path
	// still yields a usable config.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.Service.BaseURL)
}
