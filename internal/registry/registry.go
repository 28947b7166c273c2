// Package registry assigns stable names to inferred object shapes and
// collapses structurally identical shapes into shared named models.
// Registries are per-invocation: independent runs never share state.
package registry

import (
	"strconv"

	"github.com/usestring/harmodel/pkg/typetree"
)

// Model is a registered object shape with a stable identifier.
type Model struct {
	Name    string
	Context string // context name that first produced this shape
	Tree    *typetree.Tree
}

// Registry deduplicates object shapes by structural fingerprint. Names are
// derived from context names with numeric suffixes on collision, in
// first-seen order, so a fixed input order yields fixed identifiers.
type Registry struct {
	models  []*Model
	byPrint map[string]*Model
	byName  map[string]*Model
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byPrint: make(map[string]*Model),
		byName:  make(map[string]*Model),
	}
}

// Register lifts every Object node inside the tree into a named model,
// innermost first, and returns the tree with objects replaced by Ref
// nodes. The returned tree contains only Scalar, Array, Union, Unknown,
// and Ref nodes. Non-object trees pass through with only their interior
// objects lifted.
func (r *Registry) Register(contextName string, t *typetree.Tree) *typetree.Tree {
	return r.lift(contextName, t)
}

func (r *Registry) lift(ctx string, t *typetree.Tree) *typetree.Tree {
	if t == nil {
		return nil
	}

	switch t.Kind {
	case typetree.Array:
		return &typetree.Tree{
			Kind:     typetree.Array,
			Nullable: t.Nullable,
			Elem:     r.lift(ctx+" item", t.Elem),
		}

	case typetree.Union:
		alts := make([]*typetree.Tree, len(t.Alts))
		for i, alt := range t.Alts {
			alts[i] = r.lift(ctx, alt)
		}
		return &typetree.Tree{Kind: typetree.Union, Nullable: t.Nullable, Alts: alts}

	case typetree.Object:
		fields := make(map[string]typetree.Field, len(t.Fields))
		for _, name := range t.FieldNames() {
			f := t.Fields[name]
			fields[name] = typetree.Field{
				Type:     r.lift(ctx+" "+name, f.Type),
				Optional: f.Optional,
			}
		}
		// Nullability belongs to the usage site, not the model itself.
		shape := &typetree.Tree{Kind: typetree.Object, Fields: fields}
		model := r.intern(ctx, shape)

		ref := typetree.NewRef(model.Name)
		ref.Nullable = t.Nullable
		return ref
	}

	return t
}

// intern returns the existing model for a structurally identical shape or
// registers a new one.
func (r *Registry) intern(ctx string, shape *typetree.Tree) *Model {
	print := shape.Fingerprint()
	if existing, ok := r.byPrint[print]; ok {
		return existing
	}

	model := &Model{
		Name:    r.uniqueName(Identifier(ctx)),
		Context: ctx,
		Tree:    shape,
	}
	r.models = append(r.models, model)
	r.byPrint[print] = model
	r.byName[model.Name] = model
	return model
}

func (r *Registry) uniqueName(base string) string {
	if base == "" {
		base = "Model"
	}
	if _, taken := r.byName[base]; !taken {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + strconv.Itoa(i)
		if _, taken := r.byName[candidate]; !taken {
			return candidate
		}
	}
}

// Models returns all registered models in registration order.
func (r *Registry) Models() []*Model {
	return r.models
}

// Lookup finds a model by identifier.
func (r *Registry) Lookup(name string) (*Model, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Resolve expands Ref nodes one level, for consumers that need the
// underlying shape.
func (r *Registry) Resolve(t *typetree.Tree) *typetree.Tree {
	if t == nil || t.Kind != typetree.Ref {
		return t
	}
	if m, ok := r.byName[t.Name]; ok {
		return m.Tree
	}
	return t
}
