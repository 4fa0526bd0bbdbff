package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/studyscout/scout/errors"
)

//go:generate sh -c "cd .. && go run ./tools/config-schema-generator/"

// Default tunables. Every value is overridable in scout.yml.
const (
	DefaultBaseURL        = "http://localhost:3049"
	DefaultRequestTimeout = 30 * time.Second
	DefaultPollInterval   = 2 * time.Second
	DefaultPollMinGap     = 1500 * time.Millisecond
	DefaultHardTimeout    = 2 * time.Minute
	DefaultWebListen      = "127.0.0.1:7870"
)

// ServiceConfig holds connection settings for the remote search service.
type ServiceConfig struct {
	BaseURL        string `yaml:"base_url,omitempty" toml:"base_url,omitempty" json:"base_url,omitempty" jsonschema:"description=Base URL of the search/generation service"`
	RequestTimeout string `yaml:"request_timeout,omitempty" toml:"request_timeout,omitempty" json:"request_timeout,omitempty" jsonschema:"description=Per-request timeout as a Go duration (default 30s)"`
}

// PollConfig holds tunables for job progress polling.
type PollConfig struct {
	Interval    string `yaml:"interval,omitempty" toml:"interval,omitempty" json:"interval,omitempty" jsonschema:"description=Recurring poll interval as a Go duration (default 2s)"`
	MinGap      string `yaml:"min_gap,omitempty" toml:"min_gap,omitempty" json:"min_gap,omitempty" jsonschema:"description=Minimum gap between poll attempts (default 1.5s); earlier attempts are skipped"`
	HardTimeout string `yaml:"hard_timeout,omitempty" toml:"hard_timeout,omitempty" json:"hard_timeout,omitempty" jsonschema:"description=Absolute wall-clock budget for a job (default 2m)"`
}

// WebConfig holds settings for the snapshot web viewer.
type WebConfig struct {
	Listen string `yaml:"listen,omitempty" toml:"listen,omitempty" json:"listen,omitempty" jsonschema:"description=Listen address for the web viewer (default 127.0.0.1:7870)"`
}

// Config is the root scout.yml structure.
type Config struct {
	Version string        `yaml:"version" toml:"version" json:"version" jsonschema:"required,description=Configuration version (e.g. '1.0')"`
	Service ServiceConfig `yaml:"service,omitempty" toml:"service,omitempty" json:"service,omitempty" jsonschema:"description=Remote service connection settings"`
	Poll    PollConfig    `yaml:"poll,omitempty" toml:"poll,omitempty" json:"poll,omitempty" jsonschema:"description=Job polling tunables"`
	Web     WebConfig     `yaml:"web,omitempty" toml:"web,omitempty" json:"web,omitempty" jsonschema:"description=Web viewer settings"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`
}

// UnmarshalYAML implements custom YAML unmarshaling so unknown top-level keys
// land in Extensions instead of being dropped.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Version    string                 `yaml:"version"`
		Service    ServiceConfig          `yaml:"service"`
		Poll       PollConfig             `yaml:"poll"`
		Web        WebConfig              `yaml:"web"`
		Extensions map[string]interface{} `yaml:",inline"`
	}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.Version = raw.Version
	c.Service = raw.Service
	c.Poll = raw.Poll
	c.Web = raw.Web
	c.Extensions = raw.Extensions
	return nil
}

// SetDefaults fills in default values for unset fields.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Service.BaseURL == "" {
		c.Service.BaseURL = DefaultBaseURL
	}
}

// Validate checks that every duration field parses.
func (c *Config) Validate() error {
	fields := map[string]string{
		"service.request_timeout": c.Service.RequestTimeout,
		"poll.interval":           c.Poll.Interval,
		"poll.min_gap":            c.Poll.MinGap,
		"poll.hard_timeout":       c.Poll.HardTimeout,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("%s: %q is not a valid duration", name, value))
		}
		if d <= 0 {
			return errors.ConfigInvalid(fmt.Sprintf("%s must be positive, got %q", name, value))
		}
	}
	return nil
}

// RequestTimeout returns the parsed per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return durationOr(c.Service.RequestTimeout, DefaultRequestTimeout)
}

// PollInterval returns the parsed recurring poll interval.
func (c *Config) PollInterval() time.Duration {
	return durationOr(c.Poll.Interval, DefaultPollInterval)
}

// PollMinGap returns the parsed minimum gap between poll attempts.
func (c *Config) PollMinGap() time.Duration {
	return durationOr(c.Poll.MinGap, DefaultPollMinGap)
}

// HardTimeout returns the parsed absolute job budget.
func (c *Config) HardTimeout() time.Duration {
	return durationOr(c.Poll.HardTimeout, DefaultHardTimeout)
}

// WebListen returns the web viewer listen address.
func (c *Config) WebListen() string {
	if c.Web.Listen != "" {
		return c.Web.Listen
	}
	return DefaultWebListen
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded scout.yml into the provided target struct. The target must be a pointer.
// This provides a type-safe way for extensions to access their
// custom configuration sections.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	// Use mapstructure to decode the generic map[string]interface{}
	// into the strongly-typed target struct. We configure it to use
	// `yaml` tags for consistency.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
