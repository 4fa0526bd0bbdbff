package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/studyscout/scout/errors"
	"github.com/studyscout/scout/pkg/paths"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are the recognized config file names, in search order.
var configNames = []string{
	"scout.yml",
	"scout.yaml",
	"scout.toml",
	".scout.yml",
	".scout.yaml",
}

// Load reads and parses a scout configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	if strings.HasSuffix(path, ".toml") {
		return LoadFromTOMLBytes(data)
	}
	return LoadFromBytes(data)
}

// LoadDefault finds and loads the configuration starting from the current
// working directory. If no config file exists anywhere on the search path,
// a default configuration is returned.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}
	return LoadFrom(cwd)
}

// LoadFrom loads configuration starting the file search from the given directory.
func LoadFrom(startDir string) (*Config, error) {
	path, err := FindConfigFile(startDir)
	if err != nil {
		// No config file anywhere is fine; everything has a default.
		cfg := &Config{}
		cfg.SetDefaults()
		return cfg, nil
	}
	return Load(path)
}

// LoadFromBytes parses YAML configuration from a byte array
func LoadFromBytes(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	return finish(&config)
}

// LoadFromTOMLBytes parses TOML configuration from a byte array
func LoadFromTOMLBytes(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var config Config
	if err := toml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
	}

	return finish(&config)
}

// finish applies schema validation, defaults, and semantic validation.
func finish(config *Config) (*Config, error) {
	// Validate against schema
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
	}

	if err := validator.Validate(config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "schema validation failed")
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// FindConfigFile searches for a scout config file starting from startDir and
// walking up to the filesystem root, then falls back to the XDG config path.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if xdgConfigPath := getXDGConfigPath(); xdgConfigPath != "" {
		if info, err := os.Stat(xdgConfigPath); err == nil && !info.IsDir() {
			return xdgConfigPath, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// getXDGConfigPath returns the XDG config path for scout
func getXDGConfigPath() string {
	dir := paths.ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "scout.yml")
}
