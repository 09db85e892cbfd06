// Package hpack implements RFC 7541 header compression for HTTP/2 (C3):
// the 61-entry static table, a dynamic table sized by the peer's
// SETTINGS_HEADER_TABLE_SIZE, Huffman coding, and the indexed/literal
// representations. Decoder and Encoder each own an independent dynamic
// table, as spec.md §4.3 requires.
//
// The call shape (NewEncoder/NewDecoder, HeaderField, WriteField, an
// emit callback, Write/Close on the decoder) is grounded on how the
// teacher (baranov1ch-http2/server.go) drives github.com/bradfitz/http2/hpack;
// this package is a from-scratch implementation of that contract because
// HPACK is core deliverable C3, not an external collaborator (see
// DESIGN.md).
package hpack

import "errors"

// HeaderField is a decoded or to-be-encoded header field.
type HeaderField struct {
	Name      string
	Value     string
	Sensitive bool // never indexed, regardless of table state
}

// Size is the RFC 7541 §4.1 entry size: name+value length plus 32 bytes of
// estimated overhead.
func (f HeaderField) Size() uint32 {
	return uint32(len(f.Name)+len(f.Value)) + 32
}

func (f HeaderField) String() string {
	return f.Name + ": " + f.Value
}

var (
	// ErrInvalidHuffman is returned when a Huffman-coded string doesn't
	// terminate with EOS padding bits as required.
	ErrInvalidHuffman = errors.New("hpack: invalid Huffman-coded string")
	// ErrStringLength is returned when a string literal's declared length
	// exceeds the remaining input.
	ErrStringLength = errors.New("hpack: string literal length exceeds input")
	// ErrIndexOutOfRange is returned when an indexed representation
	// references an index outside the static+dynamic table.
	ErrIndexOutOfRange = errors.New("hpack: index out of range")
	// ErrInvalidIndexing is returned for a malformed indexing
	// representation byte.
	ErrInvalidIndexing = errors.New("hpack: invalid indexing byte")
)
