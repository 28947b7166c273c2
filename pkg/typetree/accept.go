package typetree

import "math"

// Accepts reports whether a parsed JSON value conforms to the tree. Every
// sample folded into a tree is accepted by it; that is the soundness
// guarantee the merge rules maintain.
//
// Objects are open: keys not described by the tree do not cause rejection.
// Ref nodes accept anything; resolve them against a model registry first
// when a closed check is needed.
func (t *Tree) Accepts(v any) bool {
	if t == nil {
		return true
	}
	if v == nil {
		return t.Nullable || t.Kind == Unknown
	}

	switch t.Kind {
	case Unknown, Ref:
		return true

	case Bool:
		_, ok := v.(bool)
		return ok

	case Int:
		f, ok := v.(float64)
		return ok && math.Trunc(f) == f && !math.IsInf(f, 0)

	case Float:
		_, ok := v.(float64)
		return ok

	case String:
		_, ok := v.(string)
		return ok

	case Array:
		arr, ok := v.([]any)
		if !ok {
			return false
		}
		for _, item := range arr {
			if !t.Elem.Accepts(item) {
				return false
			}
		}
		return true

	case Object:
		obj, ok := v.(map[string]any)
		if !ok {
			return false
		}
		for name, field := range t.Fields {
			fv, present := obj[name]
			if !present {
				if !field.Optional {
					return false
				}
				continue
			}
			if !field.Type.Accepts(fv) {
				return false
			}
		}
		return true

	case Union:
		for _, alt := range t.Alts {
			if alt.Accepts(v) {
				return true
			}
		}
		return false
	}

	return false
}
