package hpack

import (
	"bytes"
	"testing"
)

func encodeDecode(t *testing.T, in []HeaderField) []HeaderField {
	t.Helper()
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, f := range in {
		enc.WriteField(f)
	}

	var out []HeaderField
	dec := NewDecoder(4096, func(f HeaderField) { out = append(out, f) })
	if _, err := dec.Write(buf.Bytes()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := dec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return out
}

func TestRoundtripStaticOnly(t *testing.T) {
	in := []HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":scheme", Value: "https"},
		{Name: ":path", Value: "/"},
	}
	out := encodeDecode(t, in)
	assertFieldsEqual(t, in, out)
}

func TestRoundtripLiteralFields(t *testing.T) {
	in := []HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: "x-custom-header", Value: "some-value"},
		{Name: "x-custom-header-2", Value: "another value with spaces"},
	}
	out := encodeDecode(t, in)
	assertFieldsEqual(t, in, out)
}

func TestRoundtripRepeatedFieldUsesDynamicTable(t *testing.T) {
	in := []HeaderField{
		{Name: "x-repeat", Value: "same-value"},
		{Name: "x-repeat", Value: "same-value"},
	}
	out := encodeDecode(t, in)
	assertFieldsEqual(t, in, out)
}

func TestHuffmanRoundtripASCII(t *testing.T) {
	var buf bytes.Buffer
	original := "www.example.com"
	buf.Write(huffmanAppend(nil, original))

	var decoded bytes.Buffer
	if err := huffmanDecode(&decoded, buf.Bytes()); err != nil {
		t.Fatalf("huffmanDecode: %v", err)
	}
	if decoded.String() != original {
		t.Fatalf("huffmanDecode() = %q; want %q", decoded.String(), original)
	}
}

func TestDynamicTableEviction(t *testing.T) {
	var dt dynamicTable
	dt.setMaxSize(64)
	dt.add(HeaderField{Name: "a", Value: "1"}) // size 2+32=34
	dt.add(HeaderField{Name: "b", Value: "2"}) // size 34, total 68 > 64: evicts "a"

	if dt.len() != 1 {
		t.Fatalf("len() = %d; want 1", dt.len())
	}
	f, ok := dt.at(1)
	if !ok || f.Name != "b" {
		t.Fatalf("at(1) = %v, %v; want b", f, ok)
	}
}

func assertFieldsEqual(t *testing.T, want, got []HeaderField) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("len(got) = %d; want %d (got=%v)", len(got), len(want), got)
	}
	for i := range want {
		if want[i].Name != got[i].Name || want[i].Value != got[i].Value {
			t.Fatalf("field %d = %+v; want %+v", i, got[i], want[i])
		}
	}
}
