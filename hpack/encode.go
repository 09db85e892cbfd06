package hpack

import "bytes"

// Encoder serializes HeaderFields into HPACK-encoded header blocks, with
// its own dynamic table independent of any Decoder's (spec.md §4.3).
type Encoder struct {
	dyn          dynamicTable
	buf          *bytes.Buffer
	minSizeSeen  uint32 // smallest SetMaxDynamicTableSize value since last block, for the required size-update sequencing
	sizeDirty    bool
	huffman      bool // enable Huffman coding for literal strings; on by default
}

// NewEncoder returns an Encoder that writes encoded header blocks to buf.
// The dynamic table starts at RFC 7541's default 4096-byte maximum.
func NewEncoder(buf *bytes.Buffer) *Encoder {
	e := &Encoder{buf: buf, huffman: true}
	e.dyn.setMaxSize(4096)
	e.minSizeSeen = 4096
	return e
}

// SetMaxDynamicTableSize adjusts the table size this encoder is willing to
// use, emitting a dynamic-table-size-update on the next WriteField call
// (it must precede the header block it affects, per spec.md §4.3).
func (e *Encoder) SetMaxDynamicTableSize(v uint32) {
	e.dyn.setMaxSize(v)
	if !e.sizeDirty || v < e.minSizeSeen {
		e.minSizeSeen = v
	}
	e.sizeDirty = true
}

// SetHuffman enables or disables Huffman coding of literal strings.
func (e *Encoder) SetHuffman(v bool) { e.huffman = v }

// WriteField appends f's HPACK representation to the encoder's buffer,
// choosing the most compact form: a fully-indexed reference if f matches
// a static or dynamic entry exactly, a literal with incremental indexing
// naming an indexed header name, or a literal with a literal name.
func (e *Encoder) WriteField(f HeaderField) {
	e.maybeWriteSizeUpdate()

	if idx, ok := staticTableByNameValue[f]; ok {
		e.writeIndexed(idx)
		return
	}
	if idx := e.dynIndexOf(f); idx != 0 {
		e.writeIndexed(idx)
		return
	}

	nameIdx, hasName := e.nameIndex(f.Name)
	if f.Sensitive {
		e.writeLiteral(0x10, nameIdx, hasName, f)
		return
	}
	// literal with incremental indexing: adds f to this encoder's dynamic
	// table so later repeats of the same field can be fully indexed.
	e.writeLiteral(0x40, nameIdx, hasName, f)
	e.dyn.add(f)
}

func (e *Encoder) maybeWriteSizeUpdate() {
	if !e.sizeDirty {
		return
	}
	writeInt(e.buf, 0x20, 5, uint64(e.minSizeSeen))
	if e.minSizeSeen < e.dyn.max {
		writeInt(e.buf, 0x20, 5, uint64(e.dyn.max))
	}
	e.sizeDirty = false
	e.minSizeSeen = e.dyn.max
}

// dynIndexOf returns the 1-based combined index (staticTableSize+dynIdx)
// for an exact name+value match in the dynamic table, or 0 if absent.
func (e *Encoder) dynIndexOf(f HeaderField) int {
	for i := 1; i <= e.dyn.len(); i++ {
		ent, _ := e.dyn.at(i)
		if ent == f {
			return staticTableSize + i
		}
	}
	return 0
}

// nameIndex returns a 1-based combined index for any entry (static or
// dynamic) whose name matches, preferring the static table.
func (e *Encoder) nameIndex(name string) (int, bool) {
	if idx, ok := staticTableByName[name]; ok {
		return idx, true
	}
	for i := 1; i <= e.dyn.len(); i++ {
		ent, _ := e.dyn.at(i)
		if ent.Name == name {
			return staticTableSize + i, true
		}
	}
	return 0, false
}

func (e *Encoder) writeIndexed(idx int) {
	writeInt(e.buf, 0x80, 7, uint64(idx))
}

// writeLiteral writes a literal representation. prefixByte is the
// indexing-mode high bits (0x40 incremental, 0x10 never-indexed, 0x00
// without indexing); nameIdx/hasName indicate whether the name is itself
// indexed.
func (e *Encoder) writeLiteral(prefixByte byte, nameIdx int, hasName bool, f HeaderField) {
	nbits := 4
	if prefixByte == 0x40 {
		nbits = 6
	}
	if hasName {
		writeInt(e.buf, prefixByte, nbits, uint64(nameIdx))
	} else {
		writeInt(e.buf, prefixByte, nbits, 0)
		e.writeString(f.Name)
	}
	e.writeString(f.Value)
}

func (e *Encoder) writeString(s string) {
	if e.huffman {
		n := huffmanEncodedLen(s)
		if n < len(s) {
			writeInt(e.buf, 0x80, 7, uint64(n))
			e.buf.Write(huffmanAppend(nil, s))
			return
		}
	}
	writeInt(e.buf, 0x00, 7, uint64(len(s)))
	e.buf.WriteString(s)
}

// writeInt encodes v as an RFC 7541 §5.1 integer with the given prefix
// bit-width, ORing in prefixByte's high bits (the representation's flag
// bits above the prefix).
func writeInt(buf *bytes.Buffer, prefixByte byte, nbits int, v uint64) {
	max := uint64(1<<uint(nbits)) - 1
	if v < max {
		buf.WriteByte(prefixByte | byte(v))
		return
	}
	buf.WriteByte(prefixByte | byte(max))
	v -= max
	for v >= 128 {
		buf.WriteByte(byte(v%128) + 128)
		v /= 128
	}
	buf.WriteByte(byte(v))
}
