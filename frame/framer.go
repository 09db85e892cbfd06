package frame

import (
	"encoding/binary"
	"io"
)

// Framer reads and writes HTTP/2 frames on a single connection. It is the
// Go analogue of the teacher's *Framer field (server.go: sc.framer), with
// Read and Write split so callers can wrap either side in their own
// buffering.
type Framer struct {
	r io.Reader
	w io.Writer

	maxReadFrameSize uint32 // enforced against the declared length

	headerBuf [9]byte
}

// NewFramer returns a Framer reading from r and writing to w.
func NewFramer(r io.Reader, w io.Writer) *Framer {
	return &Framer{r: r, w: w, maxReadFrameSize: maxFrameLength}
}

// SetMaxReadFrameSize bounds the payload length this Framer will accept
// before raising FRAME_SIZE_ERROR, matching the locally advertised
// SETTINGS_MAX_FRAME_SIZE.
func (fr *Framer) SetMaxReadFrameSize(v uint32) {
	if v > maxFrameLength {
		v = maxFrameLength
	}
	fr.maxReadFrameSize = v
}

// ReadFrame reads and decodes the next frame.
func (fr *Framer) ReadFrame() (Frame, error) {
	if _, err := io.ReadFull(fr.r, fr.headerBuf[:]); err != nil {
		return nil, err
	}
	h := Header{
		Length:   uint32(fr.headerBuf[0])<<16 | uint32(fr.headerBuf[1])<<8 | uint32(fr.headerBuf[2]),
		Type:     Type(fr.headerBuf[3]),
		Flags:    Flags(fr.headerBuf[4]),
		StreamID: binary.BigEndian.Uint32(fr.headerBuf[5:9]) & 0x7fffffff,
	}
	if h.Length > fr.maxReadFrameSize {
		return nil, FrameSizeError{Type: h.Type, Got: h.Length}
	}
	payload := make([]byte, h.Length)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		return nil, err
	}
	return parsePayload(h, payload)
}

func parsePayload(h Header, p []byte) (Frame, error) {
	switch h.Type {
	case TypeData:
		return parseDataFrame(h, p)
	case TypeHeaders:
		return parseHeadersFrame(h, p)
	case TypePriority:
		return parsePriorityFrame(h, p)
	case TypeRSTStream:
		return parseRSTStreamFrame(h, p)
	case TypeSettings:
		return parseSettingsFrame(h, p)
	case TypePushPromise:
		return parsePushPromiseFrame(h, p)
	case TypePing:
		return parsePingFrame(h, p)
	case TypeGoAway:
		return parseGoAwayFrame(h, p)
	case TypeWindowUpdate:
		return parseWindowUpdateFrame(h, p)
	case TypeContinuation:
		return parseContinuationFrame(h, p)
	default:
		// "Unknown types MUST be ignored" (spec.md §4.4): parsed into an
		// UnknownFrame rather than rejected, so the connection survives.
		return &UnknownFrame{frameHeader{h}, p}, nil
	}
}

func readPadded(h Header, p []byte, padFlag Flags) (data []byte, err error) {
	if h.Flags.Has(padFlag) {
		if len(p) < 1 {
			return nil, FrameSizeError{h.Type, h.Length}
		}
		padLen := int(p[0])
		p = p[1:]
		if padLen > len(p) {
			return nil, FrameSizeError{h.Type, h.Length}
		}
		return p[:len(p)-padLen], nil
	}
	return p, nil
}

func parseDataFrame(h Header, p []byte) (*DataFrame, error) {
	data, err := readPadded(h, p, FlagPadded)
	if err != nil {
		return nil, err
	}
	return &DataFrame{frameHeader{h}, data}, nil
}

func parseHeadersFrame(h Header, p []byte) (*HeadersFrame, error) {
	rest, err := readPadded(h, p, FlagPadded)
	if err != nil {
		return nil, err
	}
	f := &HeadersFrame{frameHeader: frameHeader{h}, headersEnded: h.Flags.Has(FlagEndHeaders)}
	if h.Flags.Has(FlagPriority) {
		if len(rest) < 5 {
			return nil, FrameSizeError{h.Type, h.Length}
		}
		dep := binary.BigEndian.Uint32(rest[:4])
		f.Priority = &PriorityParam{
			StreamDep: dep & 0x7fffffff,
			Exclusive: dep&0x80000000 != 0,
			Weight:    rest[4],
		}
		rest = rest[5:]
	}
	f.headerBlockFragment = rest
	return f, nil
}

func parsePriorityFrame(h Header, p []byte) (*PriorityFrame, error) {
	if len(p) != 5 {
		return nil, FrameSizeError{h.Type, h.Length}
	}
	dep := binary.BigEndian.Uint32(p[:4])
	return &PriorityFrame{frameHeader{h}, PriorityParam{
		StreamDep: dep & 0x7fffffff,
		Exclusive: dep&0x80000000 != 0,
		Weight:    p[4],
	}}, nil
}

func parseRSTStreamFrame(h Header, p []byte) (*RSTStreamFrame, error) {
	if len(p) != 4 {
		return nil, FrameSizeError{h.Type, h.Length}
	}
	return &RSTStreamFrame{frameHeader{h}, ErrCode(binary.BigEndian.Uint32(p))}, nil
}

func parseSettingsFrame(h Header, p []byte) (*SettingsFrame, error) {
	if h.Flags.Has(FlagAck) {
		if len(p) != 0 {
			return nil, FrameSizeError{h.Type, h.Length}
		}
		return &SettingsFrame{frameHeader: frameHeader{h}}, nil
	}
	if len(p)%6 != 0 {
		return nil, FrameSizeError{h.Type, h.Length}
	}
	f := &SettingsFrame{frameHeader: frameHeader{h}}
	for i := 0; i+6 <= len(p); i += 6 {
		f.settings = append(f.settings, Setting{
			ID:  SettingID(binary.BigEndian.Uint16(p[i : i+2])),
			Val: binary.BigEndian.Uint32(p[i+2 : i+6]),
		})
	}
	return f, nil
}

func parsePushPromiseFrame(h Header, p []byte) (*PushPromiseFrame, error) {
	rest, err := readPadded(h, p, FlagPadded)
	if err != nil {
		return nil, err
	}
	if len(rest) < 4 {
		return nil, FrameSizeError{h.Type, h.Length}
	}
	return &PushPromiseFrame{
		frameHeader:         frameHeader{h},
		PromisedID:          binary.BigEndian.Uint32(rest[:4]) & 0x7fffffff,
		HeaderBlockFragment: rest[4:],
		headersEnded:        h.Flags.Has(FlagEndHeaders),
	}, nil
}

func parsePingFrame(h Header, p []byte) (*PingFrame, error) {
	if len(p) != 8 {
		return nil, FrameSizeError{h.Type, h.Length}
	}
	f := &PingFrame{frameHeader: frameHeader{h}}
	copy(f.Data[:], p)
	return f, nil
}

func parseGoAwayFrame(h Header, p []byte) (*GoAwayFrame, error) {
	if len(p) < 8 {
		return nil, FrameSizeError{h.Type, h.Length}
	}
	return &GoAwayFrame{
		frameHeader:  frameHeader{h},
		LastStreamID: binary.BigEndian.Uint32(p[:4]) & 0x7fffffff,
		ErrCode:      ErrCode(binary.BigEndian.Uint32(p[4:8])),
		DebugData:    p[8:],
	}, nil
}

func parseWindowUpdateFrame(h Header, p []byte) (*WindowUpdateFrame, error) {
	if len(p) != 4 {
		return nil, FrameSizeError{h.Type, h.Length}
	}
	return &WindowUpdateFrame{frameHeader{h}, binary.BigEndian.Uint32(p) & 0x7fffffff}, nil
}

func parseContinuationFrame(h Header, p []byte) (*ContinuationFrame, error) {
	return &ContinuationFrame{
		frameHeader:         frameHeader{h},
		headerBlockFragment: p,
		headersEnded:        h.Flags.Has(FlagEndHeaders),
	}, nil
}

// --- writers ---

func (fr *Framer) writeRaw(h Header, payload []byte) error {
	var hdr [9]byte
	hdr[0] = byte(h.Length >> 16)
	hdr[1] = byte(h.Length >> 8)
	hdr[2] = byte(h.Length)
	hdr[3] = byte(h.Type)
	hdr[4] = byte(h.Flags)
	binary.BigEndian.PutUint32(hdr[5:9], h.StreamID&0x7fffffff)
	if _, err := fr.w.Write(hdr[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := fr.w.Write(payload)
	return err
}

// WriteSettings writes a non-ACK SETTINGS frame on stream 0.
func (fr *Framer) WriteSettings(settings ...Setting) error {
	payload := make([]byte, 0, len(settings)*6)
	for _, s := range settings {
		var b [6]byte
		binary.BigEndian.PutUint16(b[0:2], uint16(s.ID))
		binary.BigEndian.PutUint32(b[2:6], s.Val)
		payload = append(payload, b[:]...)
	}
	return fr.writeRaw(Header{Length: uint32(len(payload)), Type: TypeSettings}, payload)
}

// WriteSettingsAck writes an empty, ACK-flagged SETTINGS frame.
func (fr *Framer) WriteSettingsAck() error {
	return fr.writeRaw(Header{Type: TypeSettings, Flags: FlagAck}, nil)
}

// WritePing writes a PING frame, setting the ACK flag when ack is true.
func (fr *Framer) WritePing(ack bool, data [8]byte) error {
	var flags Flags
	if ack {
		flags = FlagAck
	}
	return fr.writeRaw(Header{Length: 8, Type: TypePing, Flags: flags}, data[:])
}

// WriteGoAway writes a GOAWAY frame on stream 0.
func (fr *Framer) WriteGoAway(lastStreamID uint32, code ErrCode, debugData []byte) error {
	payload := make([]byte, 8+len(debugData))
	binary.BigEndian.PutUint32(payload[0:4], lastStreamID&0x7fffffff)
	binary.BigEndian.PutUint32(payload[4:8], uint32(code))
	copy(payload[8:], debugData)
	return fr.writeRaw(Header{Length: uint32(len(payload)), Type: TypeGoAway}, payload)
}

// WriteRSTStream writes an RST_STREAM frame for streamID.
func (fr *Framer) WriteRSTStream(streamID uint32, code ErrCode) error {
	var payload [4]byte
	binary.BigEndian.PutUint32(payload[:], uint32(code))
	return fr.writeRaw(Header{Length: 4, Type: TypeRSTStream, StreamID: streamID}, payload[:])
}

// WriteWindowUpdate writes a WINDOW_UPDATE frame for streamID (0 for the
// connection window).
func (fr *Framer) WriteWindowUpdate(streamID uint32, increment uint32) error {
	var payload [4]byte
	binary.BigEndian.PutUint32(payload[:], increment&0x7fffffff)
	return fr.writeRaw(Header{Length: 4, Type: TypeWindowUpdate, StreamID: streamID}, payload[:])
}

// WriteHeaders writes a single HEADERS frame. Splitting an
// over-sized block across CONTINUATION frames is the caller's job (h2.Conn
// does this so it can interleave the connection's single write queue);
// WriteHeaders and WriteContinuation are the two primitives it composes.
func (fr *Framer) WriteHeaders(p HeadersFrameParam) error {
	var flags Flags
	if p.EndStream {
		flags |= FlagEndStream
	}
	if p.EndHeaders {
		flags |= FlagEndHeaders
	}
	payload := make([]byte, 0, len(p.BlockFragment)+5)
	if p.Priority != nil {
		flags |= FlagPriority
		var dep [4]byte
		v := p.Priority.StreamDep & 0x7fffffff
		if p.Priority.Exclusive {
			v |= 0x80000000
		}
		binary.BigEndian.PutUint32(dep[:], v)
		payload = append(payload, dep[:]...)
		payload = append(payload, p.Priority.Weight)
	}
	payload = append(payload, p.BlockFragment...)
	return fr.writeRaw(Header{Length: uint32(len(payload)), Type: TypeHeaders, Flags: flags, StreamID: p.StreamID}, payload)
}

// WriteContinuation writes a CONTINUATION frame carrying the next chunk of
// a header block.
func (fr *Framer) WriteContinuation(streamID uint32, endHeaders bool, blockFragment []byte) error {
	var flags Flags
	if endHeaders {
		flags |= FlagEndHeaders
	}
	return fr.writeRaw(Header{Length: uint32(len(blockFragment)), Type: TypeContinuation, Flags: flags, StreamID: streamID}, blockFragment)
}

// WriteData writes a DATA frame.
func (fr *Framer) WriteData(streamID uint32, endStream bool, data []byte) error {
	var flags Flags
	if endStream {
		flags |= FlagEndStream
	}
	return fr.writeRaw(Header{Length: uint32(len(data)), Type: TypeData, Flags: flags, StreamID: streamID}, data)
}
