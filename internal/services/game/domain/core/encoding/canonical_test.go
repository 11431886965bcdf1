package encoding

import "testing"

func TestCanonicalJSONSortsKeys(t *testing.T) {
	got, err := CanonicalJSON(map[string]any{"b": 1, "a": map[string]any{"z": true, "y": "<x>"}})
	if err != nil {
		t.Fatalf("canonical json: %v", err)
	}
	want := `{"a":{"y":"<x>","z":true},"b":1}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestContentHashIgnoresFieldOrder(t *testing.T) {
	type left struct {
		A string `json:"a"`
		B uint64 `json:"b"`
	}
	type right struct {
		B uint64 `json:"b"`
		A string `json:"a"`
	}
	first, err := ContentHash(left{A: "x", B: 18446744073709551615})
	if err != nil {
		t.Fatalf("hash left: %v", err)
	}
	second, err := ContentHash(right{B: 18446744073709551615, A: "x"})
	if err != nil {
		t.Fatalf("hash right: %v", err)
	}
	if first != second {
		t.Fatalf("expected equal hashes, got %s and %s", first, second)
	}
	if len(first) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(first))
	}
}

func TestContentHashDiffersOnContent(t *testing.T) {
	first, _ := ContentHash(map[string]string{"a": "1"})
	second, _ := ContentHash(map[string]string{"a": "2"})
	if first == second {
		t.Fatal("expected different hashes")
	}
}
