// Package emit renders consolidation results into artifacts: Go model and
// client source, an OpenAPI 3 document, and JSON Schema, with an optional
// check that every emitted schema still accepts the samples it was
// inferred from.
package emit

import (
	"github.com/usestring/harmodel/pkg/typetree"
)

// typeExpr renders the Go type for a tree. Object nodes do not survive
// model registration, so only scalars, arrays, refs, unions and Unknown
// appear here; unions and Unknown both become any.
func typeExpr(t *typetree.Tree) string {
	if t == nil {
		return "any"
	}
	switch t.Kind {
	case typetree.Bool:
		return "bool"
	case typetree.Int:
		return "int64"
	case typetree.Float:
		return "float64"
	case typetree.String:
		return "string"
	case typetree.Array:
		return "[]" + typeExpr(t.Elem)
	case typetree.Ref:
		return t.Name
	case typetree.Object:
		return "map[string]any"
	}
	return "any"
}

// fieldType renders the Go type for a struct field. Optional and nullable
// fields become pointers so absence and null survive a round trip; any and
// slices already have a usable zero value and stay bare.
func fieldType(f typetree.Field) string {
	base := typeExpr(f.Type)
	if base == "any" || base[0] == '[' {
		return base
	}
	if f.Optional || f.Nullable() {
		return "*" + base
	}
	return base
}
