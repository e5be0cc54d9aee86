package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

//go:generate go run ../tools/schema-generator ../schema/definitions

// GenerateSchema generates the JSON Schema for nig-upload.yml from the Config struct.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Extension sections (logging, ...) live next to the core keys.
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&Config{})
	schema.Title = "nig-upload configuration"
	schema.Description = "Schema for nig-upload.yml."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
