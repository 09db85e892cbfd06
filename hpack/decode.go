package hpack

import (
	"bytes"
)

// emitFunc is called for each field as it's decoded, mirroring the
// callback the teacher wires as sc.onNewHeaderField (server.go:89-90,
// 199-247).
type emitFunc func(f HeaderField)

// Decoder parses HPACK-encoded header blocks fed to it via Write, calling
// emit for each decoded field. Decoder owns its own dynamic table,
// independent of any Encoder's (spec.md §4.3).
type Decoder struct {
	dyn  dynamicTable
	emit emitFunc
	buf  bytes.Buffer // accumulates bytes across Write calls until Close
	// maxDynamicTableSizeLimit is the upper bound this decoder will honor
	// from a peer's dynamic-table-size-update; it's set to the value this
	// side advertised via SETTINGS_HEADER_TABLE_SIZE.
	maxDynamicTableSizeLimit uint32
}

// NewDecoder returns a Decoder whose dynamic table starts at maxSize and
// calls emit for every field it decodes.
func NewDecoder(maxSize uint32, emit emitFunc) *Decoder {
	d := &Decoder{emit: emit, maxDynamicTableSizeLimit: maxSize}
	d.dyn.setMaxSize(maxSize)
	return d
}

// SetMaxDynamicTableSize lets the owner (the HTTP/2 connection) re-bound
// the table when SETTINGS_HEADER_TABLE_SIZE changes locally.
func (d *Decoder) SetMaxDynamicTableSize(v uint32) {
	d.maxDynamicTableSizeLimit = v
	if d.dyn.max > v {
		d.dyn.setMaxSize(v)
	}
}

// Write buffers p for decoding; call Close once a complete header block
// (across HEADERS + any CONTINUATION frames) has been written.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf.Write(p)
	return len(p), nil
}

// Close decodes everything buffered since the last Close and resets the
// internal buffer.
func (d *Decoder) Close() error {
	err := d.decode(d.buf.Bytes())
	d.buf.Reset()
	return err
}

func (d *Decoder) decode(p []byte) error {
	for len(p) > 0 {
		b := p[0]
		var err error
		switch {
		case b&0x80 != 0: // indexed header field
			var idx uint64
			idx, p, err = readInt(p, 7)
			if err != nil {
				return err
			}
			f, err := d.at(int(idx))
			if err != nil {
				return err
			}
			d.emit(f)
		case b&0xc0 == 0x40: // literal with incremental indexing
			f, rest, err := d.readLiteral(p, 6)
			if err != nil {
				return err
			}
			d.dyn.add(f)
			d.emit(f)
			p = rest
		case b&0xf0 == 0x00: // literal without indexing
			f, rest, err := d.readLiteral(p, 4)
			if err != nil {
				return err
			}
			d.emit(f)
			p = rest
		case b&0xf0 == 0x10: // literal never indexed
			f, rest, err := d.readLiteral(p, 4)
			if err != nil {
				return err
			}
			f.Sensitive = true
			d.emit(f)
			p = rest
		case b&0xe0 == 0x20: // dynamic table size update
			var v uint64
			v, p, err = readInt(p, 5)
			if err != nil {
				return err
			}
			if uint32(v) > d.maxDynamicTableSizeLimit {
				return ErrInvalidIndexing
			}
			d.dyn.setMaxSize(uint32(v))
		default:
			return ErrInvalidIndexing
		}
	}
	return nil
}

// readLiteral parses a literal representation whose first byte's flag
// bits precede an nbits-wide prefix integer for the name reference (0
// means a literal name follows).
func (d *Decoder) readLiteral(p []byte, nbits int) (HeaderField, []byte, error) {
	nameIdx, rest, err := readInt(p, nbits)
	if err != nil {
		return HeaderField{}, nil, err
	}
	var name string
	if nameIdx == 0 {
		name, rest, err = readString(rest)
		if err != nil {
			return HeaderField{}, nil, err
		}
	} else {
		f, err := d.at(int(nameIdx))
		if err != nil {
			return HeaderField{}, nil, err
		}
		name = f.Name
	}
	value, rest, err := readString(rest)
	if err != nil {
		return HeaderField{}, nil, err
	}
	return HeaderField{Name: name, Value: value}, rest, nil
}

// at resolves a 1-based combined index into the static table (1..61) or
// this decoder's dynamic table (62..).
func (d *Decoder) at(idx int) (HeaderField, error) {
	if idx >= 1 && idx <= staticTableSize {
		return staticTable[idx-1], nil
	}
	if f, ok := d.dyn.at(idx - staticTableSize); ok {
		return f, nil
	}
	return HeaderField{}, ErrIndexOutOfRange
}

// readInt decodes an RFC 7541 §5.1 integer with an nbits-wide prefix from
// the first byte of p, returning the value and the remaining bytes.
func readInt(p []byte, nbits int) (uint64, []byte, error) {
	if len(p) == 0 {
		return 0, nil, ErrStringLength
	}
	max := uint64(1<<uint(nbits)) - 1
	v := uint64(p[0]) & max
	p = p[1:]
	if v < max {
		return v, p, nil
	}
	var m uint
	for {
		if len(p) == 0 {
			return 0, nil, ErrStringLength
		}
		b := p[0]
		p = p[1:]
		v += uint64(b&0x7f) << m
		m += 7
		if b&0x80 == 0 {
			break
		}
	}
	return v, p, nil
}

// readString decodes an RFC 7541 §5.2 string literal (a 1-bit Huffman
// flag, a 7-bit-prefixed length, then that many bytes, Huffman-coded or
// raw) from the front of p.
func readString(p []byte) (string, []byte, error) {
	if len(p) == 0 {
		return "", nil, ErrStringLength
	}
	huff := p[0]&0x80 != 0
	length, rest, err := readInt(p, 7)
	if err != nil {
		return "", nil, err
	}
	if uint64(len(rest)) < length {
		return "", nil, ErrStringLength
	}
	raw := rest[:length]
	rest = rest[length:]
	if !huff {
		return string(raw), rest, nil
	}
	var buf bytes.Buffer
	if err := huffmanDecode(&buf, raw); err != nil {
		return "", nil, err
	}
	return buf.String(), rest, nil
}
