// Package frame implements C4: parsing and serialization of the ten
// HTTP/2 frame types spec.md §4.4 enumerates. Every frame shares the
// 9-byte header (24-bit length, 8-bit type, 8-bit flags, 31-bit stream
// id); this package decodes that header once and hands the payload to a
// per-type constructor, mirroring the teacher's Frame/Framer split
// (baranov1ch-http2/server.go references NewFramer/ReadFrame/WriteX
// throughout, though the Framer type itself lived in a sibling file this
// module reconstructs from spec.md §4.4 and
// original_source/server/frame.py's FrameBase/load/save pair).
package frame

import "fmt"

// Type is the one-byte frame type field.
type Type uint8

const (
	TypeData         Type = 0x0
	TypeHeaders      Type = 0x1
	TypePriority     Type = 0x2
	TypeRSTStream    Type = 0x3
	TypeSettings     Type = 0x4
	TypePushPromise  Type = 0x5
	TypePing         Type = 0x6
	TypeGoAway       Type = 0x7
	TypeWindowUpdate Type = 0x8
	TypeContinuation Type = 0x9
)

func (t Type) String() string {
	switch t {
	case TypeData:
		return "DATA"
	case TypeHeaders:
		return "HEADERS"
	case TypePriority:
		return "PRIORITY"
	case TypeRSTStream:
		return "RST_STREAM"
	case TypeSettings:
		return "SETTINGS"
	case TypePushPromise:
		return "PUSH_PROMISE"
	case TypePing:
		return "PING"
	case TypeGoAway:
		return "GOAWAY"
	case TypeWindowUpdate:
		return "WINDOW_UPDATE"
	case TypeContinuation:
		return "CONTINUATION"
	default:
		return fmt.Sprintf("UNKNOWN(%#x)", uint8(t))
	}
}

// Flags is the one-byte flags field; meaning is type-dependent.
type Flags uint8

const (
	FlagEndStream  Flags = 0x1 // DATA, HEADERS
	FlagAck        Flags = 0x1 // SETTINGS, PING
	FlagEndHeaders Flags = 0x4 // HEADERS, CONTINUATION
	FlagPadded     Flags = 0x8 // DATA, HEADERS
	FlagPriority   Flags = 0x20 // HEADERS
)

// Has reports whether all bits in want are set.
func (f Flags) Has(want Flags) bool { return f&want == want }

// maxFrameLength is the largest payload length the 24-bit length field can
// express (RFC 7540 §4.2's upper bound on SETTINGS_MAX_FRAME_SIZE).
const maxFrameLength = 1<<24 - 1

// MaxPayloadSize is the default/minimum SETTINGS_MAX_FRAME_SIZE this
// server accepts and advertises before any negotiation.
const MaxPayloadSize = 1 << 14

// Header is the 9-byte frame header common to every frame.
type Header struct {
	Length   uint32 // 24 bits
	Type     Type
	Flags    Flags
	StreamID uint32 // 31 bits; high bit is reserved and always read as 0
}

// Frame is any parsed HTTP/2 frame.
type Frame interface {
	Header() Header
}

type frameHeader struct{ h Header }

func (f frameHeader) Header() Header { return f.h }

// ClientPreface is the 24-byte string a client must send before any
// frame, per spec.md §4.5.
const ClientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"
