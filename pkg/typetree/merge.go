package typetree

import "sort"

// DefaultMaxUnionAlts bounds the number of union alternatives before the
// union collapses to Unknown. The pairwise collapse rules keep unions small
// in practice; the cap guards pathological inputs.
const DefaultMaxUnionAlts = 6

// MergeOptions tunes merge behavior.
type MergeOptions struct {
	// MaxUnionAlts caps union size; 0 means DefaultMaxUnionAlts.
	MaxUnionAlts int
}

func (o MergeOptions) limit() int {
	if o.MaxUnionAlts > 0 {
		return o.MaxUnionAlts
	}
	return DefaultMaxUnionAlts
}

// Merge computes the join of two shape observations: the most specific tree
// consistent with both. Merge is commutative and associative.
func Merge(a, b *Tree) *Tree {
	return MergeWith(MergeOptions{}, a, b)
}

// MergeWith is Merge with explicit options.
func MergeWith(opts MergeOptions, a, b *Tree) *Tree {
	return merge(opts.limit(), a, b)
}

func merge(limit int, a, b *Tree) *Tree {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	nullable := a.Nullable || b.Nullable

	// Unknown carries no shape information and never widens the other side.
	if a.Kind == Unknown {
		return b.withNullable(nullable)
	}
	if b.Kind == Unknown {
		return a.withNullable(nullable)
	}

	if a.Kind == Union || b.Kind == Union {
		return mergeUnion(limit, a, b, nullable)
	}

	switch {
	case a.Kind == b.Kind:
		switch a.Kind {
		case Bool, Int, Float, String:
			return &Tree{Kind: a.Kind, Nullable: nullable}
		case Array:
			return &Tree{Kind: Array, Nullable: nullable, Elem: merge(limit, a.Elem, b.Elem)}
		case Object:
			return mergeObjects(limit, a, b, nullable)
		case Ref:
			if a.Name == b.Name {
				return &Tree{Kind: Ref, Nullable: nullable, Name: a.Name}
			}
		}
	case numericPair(a.Kind, b.Kind):
		// int and float widen to float rather than a union.
		return &Tree{Kind: Float, Nullable: nullable}
	}

	return mergeUnion(limit, a, b, nullable)
}

func numericPair(a, b Kind) bool {
	return (a == Int && b == Float) || (a == Float && b == Int)
}

// mergeObjects unions the key sets. A key present on only one side becomes
// optional; a key on both sides stays optional if either side had it so.
func mergeObjects(limit int, a, b *Tree, nullable bool) *Tree {
	fields := make(map[string]Field, len(a.Fields)+len(b.Fields))
	for name, fa := range a.Fields {
		if fb, ok := b.Fields[name]; ok {
			// Optionality, once discovered, is never forgotten; OR keeps
			// the merge associative regardless of sample arrival order.
			fields[name] = Field{
				Type:     merge(limit, fa.Type, fb.Type),
				Optional: fa.Optional || fb.Optional,
			}
		} else {
			fields[name] = Field{Type: fa.Type, Optional: true}
		}
	}
	for name, fb := range b.Fields {
		if _, ok := a.Fields[name]; !ok {
			fields[name] = Field{Type: fb.Type, Optional: true}
		}
	}
	return &Tree{Kind: Object, Nullable: nullable, Fields: fields}
}

// mergeUnion flattens both operands into one alternative list, collapsing
// alternatives that merge cleanly (same kind, numeric pairs, same ref).
// Nullability is hoisted onto the union node.
func mergeUnion(limit int, a, b *Tree, nullable bool) *Tree {
	var alts []*Tree
	alts = addAlternatives(limit, alts, a, &nullable)
	alts = addAlternatives(limit, alts, b, &nullable)

	if len(alts) == 0 {
		return &Tree{Kind: Unknown, Nullable: nullable}
	}
	if len(alts) == 1 {
		return alts[0].withNullable(nullable)
	}
	if len(alts) > limit {
		// Past the cap the union degrades to "anything".
		return &Tree{Kind: Unknown, Nullable: nullable}
	}

	sortAlternatives(alts)
	return &Tree{Kind: Union, Nullable: nullable, Alts: alts}
}

func addAlternatives(limit int, alts []*Tree, t *Tree, nullable *bool) []*Tree {
	if t == nil {
		return alts
	}
	if t.Nullable {
		*nullable = true
	}
	if t.Kind == Unknown {
		return alts
	}
	if t.Kind == Union {
		for _, alt := range t.Alts {
			alts = addAlternatives(limit, alts, alt, nullable)
		}
		return alts
	}
	t = t.withNullable(false)
	for i, alt := range alts {
		if collapsible(alt, t) {
			alts[i] = merge(limit, alt, t).withNullable(false)
			return alts
		}
	}
	return append(alts, t)
}

// collapsible reports whether two union alternatives merge without
// producing a nested union.
func collapsible(a, b *Tree) bool {
	if a.Kind == b.Kind {
		if a.Kind == Ref {
			return a.Name == b.Name
		}
		return true
	}
	return numericPair(a.Kind, b.Kind)
}

func sortAlternatives(alts []*Tree) {
	sort.Slice(alts, func(i, j int) bool {
		if alts[i].Kind != alts[j].Kind {
			return alts[i].Kind < alts[j].Kind
		}
		return alts[i].Name < alts[j].Name
	})
}
