// Package typetree infers normalized shape descriptions from JSON samples.
// A Tree is the join of every sample observed for one logical position:
// merging is commutative and associative, and the resulting tree accepts
// every sample that contributed to it.
package typetree

import "sort"

// Kind identifies the variant of a Tree node.
type Kind uint8

const (
	// Unknown is the shape of a position with no information: an empty
	// sample set, an empty array's element, or a field seen only as null.
	Unknown Kind = iota
	Bool
	Int
	Float
	String
	Array
	Object
	// Union holds irreconcilable alternatives (e.g. string vs object).
	Union
	// Ref points to a registered named model. Produced by model
	// registration, never by inference itself.
	Ref
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	case Union:
		return "union"
	case Ref:
		return "ref"
	}
	return "invalid"
}

// IsScalar reports whether the kind is a scalar JSON type.
func (k Kind) IsScalar() bool {
	switch k {
	case Bool, Int, Float, String:
		return true
	}
	return false
}

// Tree describes the inferred shape of a JSON value.
//
// Nullable records that a null was observed alongside this shape. Null
// carries no shape information of its own, so it never widens a tree to a
// union; it only sets this flag.
type Tree struct {
	Kind     Kind
	Nullable bool

	Elem   *Tree            // Array element shape
	Fields map[string]Field // Object fields
	Alts   []*Tree          // Union alternatives, canonical order
	Name   string           // Ref target model name
}

// Field describes one object field.
//
// Optional means the field was absent in at least one sample that reached
// the enclosing object. Nullability of the value lives on Field.Type.
type Field struct {
	Type     *Tree
	Optional bool
}

// Nullable reports whether the field's value was ever observed as null.
func (f Field) Nullable() bool {
	return f.Type != nil && f.Type.Nullable
}

// NewUnknown returns a fresh Unknown tree.
func NewUnknown() *Tree {
	return &Tree{Kind: Unknown}
}

// NewScalar returns a scalar tree of the given kind.
// Panics if kind is not a scalar kind.
func NewScalar(kind Kind) *Tree {
	if !kind.IsScalar() {
		panic("typetree: NewScalar called with non-scalar kind " + kind.String())
	}
	return &Tree{Kind: kind}
}

// NewRef returns a reference to the named model.
func NewRef(name string) *Tree {
	return &Tree{Kind: Ref, Name: name}
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	out := &Tree{
		Kind:     t.Kind,
		Nullable: t.Nullable,
		Name:     t.Name,
		Elem:     t.Elem.Clone(),
	}
	if t.Fields != nil {
		out.Fields = make(map[string]Field, len(t.Fields))
		for name, f := range t.Fields {
			out.Fields[name] = Field{Type: f.Type.Clone(), Optional: f.Optional}
		}
	}
	if t.Alts != nil {
		out.Alts = make([]*Tree, len(t.Alts))
		for i, alt := range t.Alts {
			out.Alts[i] = alt.Clone()
		}
	}
	return out
}

// FieldNames returns the object's field names in sorted order.
// Returns nil for non-object trees.
func (t *Tree) FieldNames() []string {
	if t == nil || t.Kind != Object {
		return nil
	}
	names := make([]string, 0, len(t.Fields))
	for name := range t.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// withNullable returns the tree itself when the flag already matches,
// otherwise a shallow adjustment via clone.
func (t *Tree) withNullable(nullable bool) *Tree {
	if t == nil || t.Nullable == nullable {
		return t
	}
	out := t.Clone()
	out.Nullable = nullable
	return out
}
