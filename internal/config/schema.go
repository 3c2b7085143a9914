package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// MarshalSchema indents the schema to JSON bytes.
func MarshalSchema(sch *jsonschema.Schema) ([]byte, error) {
	return json.MarshalIndent(sch, "", "  ")
}

// Schema returns a JSON Schema for config.toml. Property names follow the
// TOML keys.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{ExpandedStruct: true, FieldNameTag: "toml"}
	sch := r.Reflect(&Config{})
	sch.Title = "devbridge configuration"
	sch.Description = "Settings read from config.toml."
	return sch
}
