package typetree

import (
	"encoding/json"
	"testing"
)

func mustParse(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad test sample %q: %v", s, err)
	}
	return v
}

func inferAll(t *testing.T, samples ...string) *Tree {
	t.Helper()
	vals := make([]any, 0, len(samples))
	for _, s := range samples {
		vals = append(vals, mustParse(t, s))
	}
	return FromSamples(vals)
}

func TestFromValue_Scalars(t *testing.T) {
	tests := []struct {
		json string
		kind Kind
	}{
		{`true`, Bool},
		{`false`, Bool},
		{`0`, Int},
		{`-3`, Int},
		{`1.0`, Int}, // whole number
		{`1.5`, Float},
		{`"hi"`, String},
	}
	for _, tt := range tests {
		t.Run(tt.json, func(t *testing.T) {
			tree := FromValue(mustParse(t, tt.json))
			if tree.Kind != tt.kind {
				t.Errorf("FromValue(%s) kind = %s, want %s", tt.json, tree.Kind, tt.kind)
			}
		})
	}
}

func TestFromValue_NullIsUnknownNullable(t *testing.T) {
	tree := FromValue(nil)
	if tree.Kind != Unknown || !tree.Nullable {
		t.Errorf("null sample: got kind=%s nullable=%v, want unknown nullable", tree.Kind, tree.Nullable)
	}
}

func TestMerge_NumericWidening(t *testing.T) {
	tree := inferAll(t, `{"x":1}`, `{"x":1.5}`)
	x := tree.Fields["x"]
	if x.Type.Kind != Float {
		t.Errorf("field x kind = %s, want float", x.Type.Kind)
	}
	if x.Optional || x.Nullable() {
		t.Errorf("field x optional=%v nullable=%v, want required non-nullable", x.Optional, x.Nullable())
	}
}

func TestMerge_NullWidening(t *testing.T) {
	tree := inferAll(t, `{"a":1}`, `{"a":null}`)
	a := tree.Fields["a"]
	if a.Type.Kind != Int {
		t.Errorf("field a kind = %s, want int", a.Type.Kind)
	}
	if !a.Nullable() {
		t.Error("field a should be nullable")
	}
	if a.Optional {
		t.Error("field a should stay required: it was present in every sample")
	}
}

func TestMerge_OptionalityDiscovery(t *testing.T) {
	tree := inferAll(t, `{"a":1}`, `{"a":1,"b":2}`)
	if tree.Fields["a"].Optional {
		t.Error("field a present in all samples must stay required")
	}
	if !tree.Fields["b"].Optional {
		t.Error("field b missing from one sample must become optional")
	}
}

func TestMerge_SingleSampleAllRequired(t *testing.T) {
	tree := inferAll(t, `{"a":1,"b":"x"}`)
	for name, f := range tree.Fields {
		if f.Optional {
			t.Errorf("field %s optional after a single sample", name)
		}
	}
}

func TestMerge_EmptySampleSequence(t *testing.T) {
	tree := FromSamples(nil)
	if tree.Kind != Unknown {
		t.Errorf("empty sequence kind = %s, want unknown", tree.Kind)
	}
}

func TestMerge_EmptyArrayDoesNotWiden(t *testing.T) {
	tree := inferAll(t, `{"items":[]}`, `{"items":[1,2]}`)
	items := tree.Fields["items"]
	if items.Type.Kind != Array {
		t.Fatalf("items kind = %s, want array", items.Type.Kind)
	}
	if items.Type.Elem.Kind != Int {
		t.Errorf("items element kind = %s, want int", items.Type.Elem.Kind)
	}
}

func TestMerge_IncompatibleShapesProduceUnion(t *testing.T) {
	tree := inferAll(t, `{"v":"s"}`, `{"v":{"n":1}}`)
	v := tree.Fields["v"].Type
	if v.Kind != Union {
		t.Fatalf("field v kind = %s, want union", v.Kind)
	}
	if len(v.Alts) != 2 {
		t.Fatalf("union size = %d, want 2", len(v.Alts))
	}
}

func TestMerge_UnionOfUnionsFlattens(t *testing.T) {
	a := inferAll(t, `"s"`, `true`)
	b := inferAll(t, `1`, `{"k":1}`)
	merged := Merge(a, b)
	if merged.Kind != Union {
		t.Fatalf("kind = %s, want union", merged.Kind)
	}
	for _, alt := range merged.Alts {
		if alt.Kind == Union {
			t.Error("nested union survived flattening")
		}
	}
	if len(merged.Alts) != 4 {
		t.Errorf("union size = %d, want 4", len(merged.Alts))
	}
}

func TestMerge_UnionCapCollapsesToUnknown(t *testing.T) {
	opts := MergeOptions{MaxUnionAlts: 2}
	out := MergeWith(opts, FromValue(mustParse(t, `"s"`)), FromValue(mustParse(t, `true`)))
	out = MergeWith(opts, out, FromValue(mustParse(t, `[1]`)))
	if out.Kind != Unknown {
		t.Errorf("kind = %s, want unknown after exceeding the union cap", out.Kind)
	}
}

func TestMerge_CommutativeAssociative(t *testing.T) {
	samples := []string{
		`{"a":1,"b":"x"}`,
		`{"a":1.5,"c":[1,2]}`,
		`{"a":null,"b":"y","c":[]}`,
		`{"b":"z","d":{"e":true}}`,
		`"just a string"`,
	}
	trees := make([]*Tree, len(samples))
	for i, s := range samples {
		trees[i] = FromValue(mustParse(t, s))
	}

	ab := Merge(trees[0], trees[1])
	ba := Merge(trees[1], trees[0])
	if !Equal(ab, ba) {
		t.Errorf("merge not commutative:\n ab=%s\n ba=%s", ab.Fingerprint(), ba.Fingerprint())
	}

	// Fold left vs fold right vs shuffled pairings over all samples.
	left := trees[0]
	for _, tr := range trees[1:] {
		left = Merge(left, tr)
	}
	right := trees[len(trees)-1]
	for i := len(trees) - 2; i >= 0; i-- {
		right = Merge(trees[i], right)
	}
	mixed := Merge(Merge(trees[2], trees[0]), Merge(trees[4], Merge(trees[3], trees[1])))

	if !Equal(left, right) {
		t.Errorf("merge not associative:\n left=%s\n right=%s", left.Fingerprint(), right.Fingerprint())
	}
	if !Equal(left, mixed) {
		t.Errorf("merge order-dependent:\n left=%s\n mixed=%s", left.Fingerprint(), mixed.Fingerprint())
	}
}

func TestSoundness_TreeAcceptsItsSamples(t *testing.T) {
	samples := []string{
		`{"id":1,"name":"a","tags":["x"]}`,
		`{"id":2,"name":null}`,
		`{"id":3.5,"name":"c","extra":{"deep":[true,false]}}`,
		`[]`,
		`[{"id":1}]`,
	}
	vals := make([]any, 0, len(samples))
	for _, s := range samples {
		vals = append(vals, mustParse(t, s))
	}
	tree := FromSamples(vals)
	for i, v := range vals {
		if !tree.Accepts(v) {
			t.Errorf("inferred tree rejects its own sample %d (%s)", i, samples[i])
		}
	}
}

func TestAccepts_RejectsForeignShapes(t *testing.T) {
	tree := inferAll(t, `{"id":1}`)
	if tree.Accepts(mustParse(t, `{"id":"not a number"}`)) {
		t.Error("string accepted for int field")
	}
	if tree.Accepts(mustParse(t, `{}`)) {
		t.Error("missing required field accepted")
	}
	if tree.Accepts(nil) {
		t.Error("null accepted for non-nullable object")
	}
}

func TestFingerprint_FieldOrderIrrelevant(t *testing.T) {
	a := inferAll(t, `{"x":1,"y":"s"}`)
	b := inferAll(t, `{"y":"s","x":1}`)
	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("field order changed fingerprint: %s vs %s", a.Fingerprint(), b.Fingerprint())
	}
}
