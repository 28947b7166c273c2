package typetree

import (
	"sort"
	"strings"
)

// Fingerprint returns a canonical textual form of the tree. Two trees are
// structurally equal iff their fingerprints match; field order never
// affects the result. Used as the dedup key for model registration.
func (t *Tree) Fingerprint() string {
	var sb strings.Builder
	writeFingerprint(&sb, t)
	return sb.String()
}

// Equal reports structural equality, including optional/nullable flags.
func Equal(a, b *Tree) bool {
	return a.Fingerprint() == b.Fingerprint()
}

func writeFingerprint(sb *strings.Builder, t *Tree) {
	if t == nil {
		sb.WriteByte('?')
		return
	}
	if t.Nullable {
		sb.WriteByte('~')
	}
	switch t.Kind {
	case Unknown:
		sb.WriteByte('?')
	case Bool, Int, Float, String:
		sb.WriteString(t.Kind.String())
	case Array:
		sb.WriteByte('[')
		writeFingerprint(sb, t.Elem)
		sb.WriteByte(']')
	case Object:
		sb.WriteByte('{')
		names := make([]string, 0, len(t.Fields))
		for name := range t.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			if i > 0 {
				sb.WriteByte(',')
			}
			f := t.Fields[name]
			sb.WriteString(name)
			if f.Optional {
				sb.WriteByte('?')
			}
			sb.WriteByte(':')
			writeFingerprint(sb, f.Type)
		}
		sb.WriteByte('}')
	case Union:
		sb.WriteByte('(')
		for i, alt := range t.Alts {
			if i > 0 {
				sb.WriteByte('|')
			}
			writeFingerprint(sb, alt)
		}
		sb.WriteByte(')')
	case Ref:
		sb.WriteByte('@')
		sb.WriteString(t.Name)
	}
}
