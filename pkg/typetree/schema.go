package typetree

import (
	"github.com/invopop/jsonschema"
)

// DefsPrefix is the JSON Pointer prefix used for model references.
const DefsPrefix = "#/$defs/"

// ToSchema converts a tree to a JSON Schema (Draft 2020-12). Ref nodes
// become $ref pointers under $defs; register models first and attach their
// schemas as $defs on the enclosing document.
func ToSchema(t *Tree) *jsonschema.Schema {
	if t == nil {
		return &jsonschema.Schema{}
	}

	s := baseSchema(t)
	if t.Nullable {
		return nullableSchema(s)
	}
	return s
}

func baseSchema(t *Tree) *jsonschema.Schema {
	switch t.Kind {
	case Bool:
		return &jsonschema.Schema{Type: "boolean"}
	case Int:
		return &jsonschema.Schema{Type: "integer"}
	case Float:
		return &jsonschema.Schema{Type: "number"}
	case String:
		return &jsonschema.Schema{Type: "string"}

	case Array:
		s := &jsonschema.Schema{Type: "array"}
		if t.Elem != nil && t.Elem.Kind != Unknown {
			s.Items = ToSchema(t.Elem)
		}
		return s

	case Object:
		s := &jsonschema.Schema{
			Type:       "object",
			Properties: jsonschema.NewProperties(),
		}
		var required []string
		for _, name := range t.FieldNames() {
			f := t.Fields[name]
			s.Properties.Set(name, ToSchema(f.Type))
			if !f.Optional && !f.Nullable() {
				required = append(required, name)
			}
		}
		s.Required = required
		return s

	case Union:
		anyOf := make([]*jsonschema.Schema, 0, len(t.Alts))
		for _, alt := range t.Alts {
			anyOf = append(anyOf, ToSchema(alt))
		}
		return &jsonschema.Schema{AnyOf: anyOf}

	case Ref:
		return &jsonschema.Schema{Ref: DefsPrefix + t.Name}
	}

	// Unknown matches anything.
	return &jsonschema.Schema{}
}

func nullableSchema(s *jsonschema.Schema) *jsonschema.Schema {
	null := &jsonschema.Schema{Type: "null"}
	if len(s.AnyOf) > 0 && s.Type == "" && s.Ref == "" {
		s.AnyOf = append(s.AnyOf, null)
		return s
	}
	if s.Type == "" && s.Ref == "" && s.Items == nil && s.Properties == nil {
		// Unknown already matches null.
		return s
	}
	return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{s, null}}
}
