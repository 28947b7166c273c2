package consolidate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numericPattern = regexp.MustCompile(`^\d+$`)
	uuidPattern    = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	hexPattern     = regexp.MustCompile(`^[0-9a-f]+$`)
)

// classifySegment reports the identifier class of a path segment:
// "id" for numeric, "uuid" for UUIDs, "hex" for long bare hex strings,
// "" for ordinary literals.
func classifySegment(seg string, minHexLength int) string {
	if numericPattern.MatchString(seg) {
		return "id"
	}
	lower := strings.ToLower(seg)
	if uuidPattern.MatchString(lower) {
		return "uuid"
	}
	if minHexLength > 0 && len(seg) >= minHexLength && hexPattern.MatchString(lower) {
		return "hex"
	}
	return ""
}

// slot is one position of a path template under construction.
type slot struct {
	literal string // meaningful when param == ""
	param   string // placeholder name; non-empty marks a parameter slot
}

// group accumulates entries that share a method and path shape.
type group struct {
	method  string
	slots   []slot
	entries []int // entry sequence numbers, admission order
}

// newGroup seeds a group from one entry's path. Identifier-looking
// segments become parameters immediately when NormalizeIDs is on; a single
// observation of /users/42 is already /users/{id}.
func newGroup(method string, segments []string, opts Options) *group {
	g := &group{method: method, slots: make([]slot, len(segments))}
	for i, seg := range segments {
		if opts.NormalizeIDs {
			if class := classifySegment(seg, opts.MinHexLength); class != "" {
				g.slots[i] = slot{param: class}
				continue
			}
		}
		g.slots[i] = slot{literal: seg}
	}
	return g
}

// admit tests whether an entry's path fits this group and, if it does,
// applies any segment promotions and returns true.
//
// A literal slot accepts: the same literal; a differing value when both
// values look like identifiers (heuristic tie-break); or, with
// MergeVarying, a single differing value when the rest of the path
// supplies at least one matching literal anchor (variability signal).
func (g *group) admit(segments []string, opts Options) bool {
	if len(segments) != len(g.slots) {
		return false
	}

	var promote []int
	var varying []int
	anchors := 0

	for i, seg := range segments {
		s := g.slots[i]
		if s.param != "" {
			continue
		}
		if s.literal == seg {
			anchors++
			continue
		}
		if opts.NormalizeIDs &&
			classifySegment(s.literal, opts.MinHexLength) != "" &&
			classifySegment(seg, opts.MinHexLength) != "" {
			promote = append(promote, i)
			continue
		}
		if opts.MergeVarying {
			varying = append(varying, i)
			continue
		}
		return false
	}

	if len(varying) > 1 || (len(varying) == 1 && anchors == 0) {
		return false
	}

	for _, i := range promote {
		g.slots[i].param = classifySegment(g.slots[i].literal, opts.MinHexLength)
	}
	for _, i := range varying {
		g.slots[i].param = "param"
	}
	return true
}

// paramNames assigns a unique placeholder name per parameter slot: a
// second {id} in the same template becomes {id2}. Indexed by slot
// position; empty for literal slots.
func (g *group) paramNames() []string {
	names := make([]string, len(g.slots))
	counts := make(map[string]int)
	for i, s := range g.slots {
		if s.param == "" {
			continue
		}
		counts[s.param]++
		if counts[s.param] > 1 {
			names[i] = s.param + strconv.Itoa(counts[s.param])
		} else {
			names[i] = s.param
		}
	}
	return names
}

// template renders the group's path template, e.g. /users/{id}/posts.
func (g *group) template() string {
	if len(g.slots) == 0 {
		return "/"
	}
	names := g.paramNames()
	var sb strings.Builder
	for i, s := range g.slots {
		sb.WriteByte('/')
		if names[i] != "" {
			sb.WriteByte('{')
			sb.WriteString(names[i])
			sb.WriteByte('}')
		} else {
			sb.WriteString(s.literal)
		}
	}
	return sb.String()
}

// params lists the parameter slots in path order.
func (g *group) params() []PathParam {
	names := g.paramNames()
	var out []PathParam
	for i, name := range names {
		if name != "" {
			out = append(out, PathParam{Name: name, Position: i})
		}
	}
	return out
}

// contextWords returns the literal segments, used to derive model context
// names ("users item" style).
func (g *group) contextWords() []string {
	var words []string
	for _, s := range g.slots {
		if s.param == "" {
			words = append(words, s.literal)
		}
	}
	return words
}
