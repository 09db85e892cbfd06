package h2

import (
	"strconv"
	"strings"

	"github.com/gopherhttp/httpd/frame"
	"github.com/gopherhttp/httpd/hpack"
	"github.com/gopherhttp/httpd/message"
)

// writeResponse HPACK-encodes and frames a dispatched response onto its
// stream: one HEADERS frame (split across CONTINUATION if the encoded
// block exceeds the peer's MAX_FRAME_SIZE), then zero or more DATA
// frames bounded by flow control, the last carrying END_STREAM (spec.md
// §4.5's "Request delivery").
func (sc *Conn) writeResponse(sr streamResponse) error {
	sc.serveG.check()
	st, ok := sc.streams[sr.streamID]
	if !ok {
		return nil // stream was reset or the connection is going away
	}
	resp := sr.resp

	body, contentType := message.SerializeBody(resp.Body)
	if _, has := resp.Header.Get("Content-Type"); !has && contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))

	sc.headerWriteBuf.Reset()
	sc.hpackEncoder.WriteField(hpack.HeaderField{Name: ":status", Value: strconv.Itoa(resp.Status)})
	resp.Header.Range(func(name, value string) {
		sc.hpackEncoder.WriteField(hpack.HeaderField{Name: strings.ToLower(name), Value: value})
	})
	for _, line := range resp.Cookies.SetCookieLines() {
		sc.hpackEncoder.WriteField(hpack.HeaderField{Name: "set-cookie", Value: line})
	}
	block := append([]byte(nil), sc.headerWriteBuf.Bytes()...)

	endOnHeaders := len(body) == 0
	if err := sc.writeHeaderBlock(st.id, block, endOnHeaders); err != nil {
		return err
	}
	if endOnHeaders {
		sc.closeStream(st)
		return nil
	}

	st.pendingBody = body
	st.pendingDone = true
	return sc.flushPending(st)
}

func (sc *Conn) writeHeaderBlock(streamID uint32, block []byte, endStream bool) error {
	max := int(sc.maxWriteFrameSize)
	if max <= 0 {
		max = frame.MaxPayloadSize
	}
	first := block
	endHeaders := true
	if len(block) > max {
		first = block[:max]
		endHeaders = false
	}
	if err := sc.framer.WriteHeaders(frame.HeadersFrameParam{
		StreamID:      streamID,
		BlockFragment: first,
		EndStream:     endStream,
		EndHeaders:    endHeaders,
	}); err != nil {
		return err
	}
	rest := block[len(first):]
	for len(rest) > 0 {
		chunk := rest
		last := true
		if len(chunk) > max {
			chunk = rest[:max]
			last = false
		}
		if err := sc.framer.WriteContinuation(streamID, last, chunk); err != nil {
			return err
		}
		rest = rest[len(chunk):]
	}
	return nil
}

// flushPending drains as much of a stream's queued response body as
// current connection and stream send windows allow, stopping (without
// error) once the window is exhausted; a later WINDOW_UPDATE resumes it.
func (sc *Conn) flushPending(st *stream) error {
	sc.serveG.check()
	for len(st.pendingBody) > 0 {
		budget := sc.connSendFlow.available()
		if sb := st.sendFlow.available(); sb < budget {
			budget = sb
		}
		if budget <= 0 {
			return nil
		}
		n := len(st.pendingBody)
		if int32(n) > budget {
			n = int(budget)
		}
		if n > int(sc.maxWriteFrameSize) {
			n = int(sc.maxWriteFrameSize)
		}
		chunk := st.pendingBody[:n]
		last := n == len(st.pendingBody)
		endStream := last && st.pendingDone
		if err := sc.framer.WriteData(st.id, endStream, chunk); err != nil {
			return err
		}
		sc.connSendFlow.take(int32(n))
		st.sendFlow.take(int32(n))
		st.pendingBody = st.pendingBody[n:]
		if endStream {
			sc.closeStream(st)
			return nil
		}
	}
	return nil
}

// flushAllPending retries every stream with body bytes still queued,
// called after a connection-level WINDOW_UPDATE.
func (sc *Conn) flushAllPending() error {
	sc.serveG.check()
	for _, st := range sc.streams {
		if len(st.pendingBody) > 0 {
			if err := sc.flushPending(st); err != nil {
				return err
			}
		}
	}
	return nil
}

func (sc *Conn) closeStream(st *stream) {
	st.state = stateClosed
	delete(sc.streams, st.id)
}
