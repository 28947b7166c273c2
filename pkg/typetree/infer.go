package typetree

import (
	"encoding/json"
	"math"
)

// FromSamples folds a sample sequence into a single tree. An empty
// sequence yields Unknown. A single sample yields its exact shape with
// every object field required: optionality is only discovered by
// disagreement across two or more samples.
func FromSamples(samples []any) *Tree {
	return FromSamplesWith(MergeOptions{}, samples)
}

// FromSamplesWith is FromSamples with explicit merge options.
func FromSamplesWith(opts MergeOptions, samples []any) *Tree {
	if len(samples) == 0 {
		return NewUnknown()
	}
	out := FromValue(samples[0])
	for _, s := range samples[1:] {
		out = MergeWith(opts, out, FromValue(s))
	}
	return out
}

// FromJSON parses raw JSON and infers its shape.
func FromJSON(data []byte) (*Tree, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return FromValue(v), nil
}

// FromValue infers the shape of one parsed JSON value (the result of
// unmarshalling into any).
func FromValue(v any) *Tree {
	if v == nil {
		// Null alone carries no shape information.
		return &Tree{Kind: Unknown, Nullable: true}
	}

	switch val := v.(type) {
	case bool:
		return &Tree{Kind: Bool}

	case float64:
		// encoding/json unmarshals every number as float64; whole values
		// are reported as int until a fractional sample widens them.
		if math.Trunc(val) == val && !math.IsInf(val, 0) {
			return &Tree{Kind: Int}
		}
		return &Tree{Kind: Float}

	case json.Number:
		if _, err := val.Int64(); err == nil {
			return &Tree{Kind: Int}
		}
		return &Tree{Kind: Float}

	case string:
		return &Tree{Kind: String}

	case []any:
		elem := NewUnknown()
		for _, item := range val {
			elem = Merge(elem, FromValue(item))
		}
		return &Tree{Kind: Array, Elem: elem}

	case map[string]any:
		fields := make(map[string]Field, len(val))
		for name, fv := range val {
			fields[name] = Field{Type: FromValue(fv)}
		}
		return &Tree{Kind: Object, Fields: fields}

	default:
		return NewUnknown()
	}
}
