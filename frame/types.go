package frame

// DataFrame carries a stream's body bytes (spec.md §4.4 DATA).
type DataFrame struct {
	frameHeader
	data []byte // padding already stripped
}

// Data returns the frame's payload, with any padding removed.
func (f *DataFrame) Data() []byte { return f.data }

// PriorityParam is the stored-but-unenforced priority payload spec.md
// §4.4 describes for both PRIORITY frames and the PRIORITY flag on
// HEADERS.
type PriorityParam struct {
	StreamDep uint32
	Exclusive bool
	Weight    uint8
}

// PriorityFrame is a standalone PRIORITY frame (spec.md §4.4).
type PriorityFrame struct {
	frameHeader
	PriorityParam
}

// RSTStreamFrame resets a stream immediately (spec.md §4.4 RST_STREAM).
type RSTStreamFrame struct {
	frameHeader
	ErrCode ErrCode
}

// PushPromiseFrame is parsed for protocol conformance only: this server
// never emits one and rejects any it receives (spec.md §4.4).
type PushPromiseFrame struct {
	frameHeader
	PromisedID          uint32
	HeaderBlockFragment []byte
	headersEnded        bool
}

// PingFrame carries 8 bytes of opaque data to be echoed back (spec.md
// §4.4 PING).
type PingFrame struct {
	frameHeader
	Data [8]byte
}

// IsAck reports whether this PING is an acknowledgement.
func (f *PingFrame) IsAck() bool { return f.h.Flags.Has(FlagAck) }

// GoAwayFrame signals connection shutdown (spec.md §4.4 GOAWAY).
type GoAwayFrame struct {
	frameHeader
	LastStreamID uint32
	ErrCode      ErrCode
	DebugData    []byte
}

// WindowUpdateFrame increments a flow-control window (spec.md §4.4
// WINDOW_UPDATE).
type WindowUpdateFrame struct {
	frameHeader
	Increment uint32
}

// HeadersFrameParam describes a HEADERS frame to write (teacher's
// HeadersFrameParam usage at server.go:747-752).
type HeadersFrameParam struct {
	StreamID            uint32
	BlockFragment       []byte
	EndStream           bool
	EndHeaders          bool
	Priority            *PriorityParam
	PadLength           uint8
}

// HeadersFrame carries (possibly partial) HPACK-coded header data
// (spec.md §4.4 HEADERS).
type HeadersFrame struct {
	frameHeader
	Priority            *PriorityParam
	headerBlockFragment []byte
	headersEnded        bool
}

// HeaderBlockFragment returns this frame's portion of the HPACK block.
func (f *HeadersFrame) HeaderBlockFragment() []byte { return f.headerBlockFragment }

// HeadersEnded reports whether END_HEADERS was set, i.e. no
// CONTINUATION frames follow.
func (f *HeadersFrame) HeadersEnded() bool { return f.headersEnded }

// ContinuationFrame carries the remainder of a HEADERS (or
// PUSH_PROMISE) block that didn't fit in one frame (spec.md §4.4
// CONTINUATION).
type ContinuationFrame struct {
	frameHeader
	headerBlockFragment []byte
	headersEnded        bool
}

// HeaderBlockFragment returns this frame's portion of the HPACK block.
func (f *ContinuationFrame) HeaderBlockFragment() []byte { return f.headerBlockFragment }

// HeadersEnded reports whether END_HEADERS was set on this frame.
func (f *ContinuationFrame) HeadersEnded() bool { return f.headersEnded }

// UnknownFrame is any frame type outside spec.md §4.4's ten; per the
// spec it MUST be ignored, not rejected.
type UnknownFrame struct {
	frameHeader
	payload []byte
}

// Payload returns the raw, unparsed frame payload.
func (f *UnknownFrame) Payload() []byte { return f.payload }
