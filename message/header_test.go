package message

import "testing"

func TestHeaderSetGetCaseInsensitive(t *testing.T) {
	h := NewHeader()
	h.Set("Content-Type", "text/html")
	if v, ok := h.Get("content-type"); !ok || v != "text/html" {
		t.Fatalf("Get(content-type) = %q, %v; want text/html, true", v, ok)
	}
}

func TestHeaderSetPreservesPositionOnOverwrite(t *testing.T) {
	h := NewHeader()
	h.Set("A", "1")
	h.Set("B", "2")
	h.Set("a", "3")

	var got []string
	h.Range(func(name, value string) { got = append(got, name+"="+value) })
	want := []string{"A=3", "B=2"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Range() = %v; want %v", got, want)
	}
}

func TestHeaderInsertionOrderPreserved(t *testing.T) {
	h := NewHeader()
	names := []string{"Z", "A", "M", "B"}
	for _, n := range names {
		h.Set(n, n)
	}
	var got []string
	h.Range(func(name, _ string) { got = append(got, name) })
	for i, n := range names {
		if got[i] != n {
			t.Fatalf("Range()[%d] = %q; want %q", i, got[i], n)
		}
	}
}

func TestHeaderDel(t *testing.T) {
	h := NewHeader()
	h.Set("A", "1")
	h.Set("B", "2")
	h.Del("a")
	if _, ok := h.Get("A"); ok {
		t.Fatalf("Get(A) ok after Del")
	}
	if v, ok := h.Get("B"); !ok || v != "2" {
		t.Fatalf("Get(B) = %q, %v; want 2, true", v, ok)
	}
}
