package emit

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/usestring/harmodel/internal/registry"
	"github.com/usestring/harmodel/pkg/typetree"
)

const draft2020 = "https://json-schema.org/draft/2020-12/schema"

// SchemaDocument renders a tree as a standalone JSON Schema document with
// every registered model attached under $defs.
func SchemaDocument(reg *registry.Registry, root *typetree.Tree) *jsonschema.Schema {
	doc := typetree.ToSchema(root)
	doc.Version = draft2020

	models := reg.Models()
	if len(models) > 0 {
		doc.Definitions = make(jsonschema.Definitions, len(models))
		for _, m := range models {
			doc.Definitions[m.Name] = typetree.ToSchema(m.Tree)
		}
	}
	return doc
}

// SchemaJSON serializes a schema document with indentation.
func SchemaJSON(doc *jsonschema.Schema) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	return out, nil
}
