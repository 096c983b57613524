package catalog

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema of a catalog file: a single Entry or an
// array of entries.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	entry := r.Reflect(new(Entry))
	version := entry.Version
	entry.Version = ""

	return &jsonschema.Schema{
		Version:     version,
		Title:       "katulong catalog file",
		Description: "A catalog entry or an array of catalog entries.",
		OneOf: []*jsonschema.Schema{
			entry,
			{Type: "array", Items: entry},
		},
	}
}

// SchemaJSON renders Schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
