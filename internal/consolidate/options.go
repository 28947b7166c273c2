package consolidate

// Options tunes consolidation. The path-parameter heuristics are
// deliberately configurable: segment variability is the primary grouping
// signal, identifier-looking segments are a tie-break, and neither
// threshold is a hard requirement of the output contract.
type Options struct {
	// NormalizeIDs treats numeric/UUID/hex path segments as parameters
	// even before a second distinct value proves variability.
	NormalizeIDs bool

	// MinHexLength is the minimum length for a bare hex string to count
	// as an identifier segment.
	MinHexLength int

	// MergeVarying promotes a non-identifier segment to a parameter when
	// entries otherwise identical disagree on it. Requires at least one
	// matching literal anchor segment in the path, so single-segment
	// paths like /users and /orders never collapse into one endpoint.
	MergeVarying bool

	// MaxUnionAlts caps inferred union size (0 = typetree default).
	MaxUnionAlts int

	// ExamplesPerEndpoint bounds how many example entries each endpoint
	// keeps for documentation and replay.
	ExamplesPerEndpoint int

	// MaxBodyBytes skips schema sampling for bodies larger than this
	// (0 = no limit). Oversized bodies still count as examples.
	MaxBodyBytes int
}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		NormalizeIDs:        true,
		MinHexLength:        8,
		MergeVarying:        true,
		ExamplesPerEndpoint: 3,
		MaxBodyBytes:        2_000_000,
	}
}

func (o Options) examples() int {
	if o.ExamplesPerEndpoint <= 0 {
		return 3
	}
	return o.ExamplesPerEndpoint
}
