package docstore

import "testing"

func TestEqual_NumbersCompareByValue(t *testing.T) {
	if !Equal(0, 0.0) {
		t.Fatalf("0 and 0.0 must be equal")
	}
	if !Equal(float64(12.5), 12.5) {
		t.Fatalf("same floats must be equal")
	}
	if Equal("1", 1) {
		t.Fatalf("string and number must differ")
	}
}

func TestMatches(t *testing.T) {
	data := map[string]any{"username": "ana", "progress": float64(0)}

	if !Matches(data, nil) {
		t.Fatalf("no filters must match everything")
	}
	if !Matches(data, []Filter{{Field: "username", Value: "ana"}, {Field: "progress", Value: 0}}) {
		t.Fatalf("expected match")
	}
	if Matches(data, []Filter{{Field: "username", Value: "bob"}}) {
		t.Fatalf("expected mismatch on value")
	}
	if Matches(data, []Filter{{Field: "missing", Value: nil}}) {
		t.Fatalf("missing field must not match")
	}
}

func TestSatisfies_MissingFieldEqualsNil(t *testing.T) {
	if !Satisfies(map[string]any{}, []Precondition{{Field: "x", Equals: nil}}) {
		t.Fatalf("missing field should satisfy nil precondition")
	}
	if Satisfies(map[string]any{"x": 1.0}, []Precondition{{Field: "x", Equals: 2}}) {
		t.Fatalf("expected precondition failure")
	}
}

func TestEncodeDecode(t *testing.T) {
	type doc struct {
		Name     string  `json:"name"`
		Progress float64 `json:"progress"`
	}

	m, err := Encode(doc{Name: "x", Progress: 12.5})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if m["name"] != "x" || m["progress"] != 12.5 {
		t.Fatalf("unexpected map: %#v", m)
	}

	var out doc
	if err := Decode(Document{ID: "1", Data: m}, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Name != "x" || out.Progress != 12.5 {
		t.Fatalf("unexpected struct: %#v", out)
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	base := map[string]any{"a": 1.0}
	out := Merge(base, map[string]any{"b": 2.0})
	if _, ok := base["b"]; ok {
		t.Fatalf("Merge mutated input")
	}
	if out["a"] != 1.0 || out["b"] != 2.0 {
		t.Fatalf("unexpected merge: %#v", out)
	}
}
