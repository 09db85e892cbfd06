package message

import "testing"

func TestBodyEmptyNotInverted(t *testing.T) {
	cases := []struct {
		name string
		b    *Body
		want bool
	}{
		{"nil body", nil, true},
		{"none", &Body{Kind: KindNone}, true},
		{"empty form", &Body{Kind: KindForm, Fields: map[string]string{}}, true},
		{"non-empty form", &Body{Kind: KindForm, Fields: map[string]string{"a": "1"}}, false},
		{"nil json", &Body{Kind: KindJSON, JSON: nil}, true},
		{"json zero value", &Body{Kind: KindJSON, JSON: float64(0)}, false},
		{"empty raw", &Body{Kind: KindRaw, Raw: nil}, true},
		{"non-empty raw", &Body{Kind: KindRaw, Raw: []byte("x")}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.b.Empty(); got != c.want {
				t.Fatalf("Empty() = %v; want %v", got, c.want)
			}
		})
	}
}

func TestBodyKeyValuesForm(t *testing.T) {
	b := &Body{Kind: KindForm, Fields: map[string]string{"a": "1", "b": "2"}}
	kv := b.KeyValues()
	if kv["a"] != "1" || kv["b"] != "2" {
		t.Fatalf("KeyValues() = %v", kv)
	}
}

func TestBodyKeyValuesJSONObject(t *testing.T) {
	b := &Body{Kind: KindJSON, JSON: map[string]any{"a": "x", "n": float64(3)}}
	kv := b.KeyValues()
	if kv["a"] != "x" {
		t.Fatalf("KeyValues()[a] = %q; want x", kv["a"])
	}
	if kv["n"] != "3" {
		t.Fatalf("KeyValues()[n] = %q; want 3", kv["n"])
	}
}

func TestBodyKeyValuesJSONArrayBindsNothing(t *testing.T) {
	b := &Body{Kind: KindJSON, JSON: []any{"x", "y"}}
	if kv := b.KeyValues(); kv != nil {
		t.Fatalf("KeyValues() = %v; want nil", kv)
	}
}
