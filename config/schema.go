package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the base JSON Schema for the scout configuration.
// It reflects the Config struct from types.go but excludes the 'Extensions'
// field; extension sections (e.g. "logging") are permitted by leaving
// additionalProperties open at the top level.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Top-level extension keys are allowed.
		AllowAdditionalProperties: true,
		// Expand struct references instead of using $ref for a cleaner base schema.
		ExpandedStruct: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	// Reflect a struct that omits the Extensions field so it's not
	// included in the base schema.
	type BaseConfig struct {
		Version string        `yaml:"version" json:"version" jsonschema:"required,description=Configuration version (e.g. '1.0')"`
		Service ServiceConfig `yaml:"service,omitempty" json:"service,omitempty" jsonschema:"description=Remote service connection settings"`
		Poll    PollConfig    `yaml:"poll,omitempty" json:"poll,omitempty" jsonschema:"description=Job polling tunables"`
		Web     WebConfig     `yaml:"web,omitempty" json:"web,omitempty" jsonschema:"description=Web viewer settings"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "Scout Configuration"
	schema.Description = "Base schema for core scout.yml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
