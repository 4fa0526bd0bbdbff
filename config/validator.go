package config

import (
	"github.com/studyscout/scout/schema"
)

// NewSchemaValidator returns a validator backed by the embedded JSON Schema.
func NewSchemaValidator() (*schema.Validator, error) {
	return schema.NewValidator()
}
