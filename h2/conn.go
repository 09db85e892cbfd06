// Package h2 implements C5, the per-connection HTTP/2 state machine:
// preface and SETTINGS handshake, the single-threaded frame-processing
// loop, per-stream flow control, and request delivery into the shared
// dispatcher (C6). It is grounded on the teacher's serverConn/serve()
// pair (baranov1ch-http2/server.go), generalized from net/http's
// Handler/ResponseWriter onto this module's message.Request/Response and
// dispatch.Dispatcher, and completed where the teacher left
// TODO-stubbed: response DATA framing, receive-side flow-control window
// replenishment, and GOAWAY-driven shutdown.
package h2

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gopherhttp/httpd/dispatch"
	"github.com/gopherhttp/httpd/frame"
	"github.com/gopherhttp/httpd/hpack"
	"github.com/gopherhttp/httpd/message"
)

// Logger is the core's injected logging dependency (spec.md §9: "inject
// both [logger and route table] as explicit dependencies on construction;
// the core holds no process-wide state"). The logging package implements
// this on top of zap.
type Logger interface {
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// VerboseLogs mirrors the teacher's package-level flag gating vlogf
// (server.go's sc.vlogf): when false, only Errorf-worthy conditions are
// logged.
var VerboseLogs = false

const (
	defaultInitialWindow   = 65535
	defaultMaxFrameSize    = frame.MaxPayloadSize
	windowReplenishDivisor = 2 // replenish once granted window drops below half

	// defaultIdleTimeout is spec.md §5's "implementation-defined, default
	// 30s" receive-side idle watchdog: a connection that produces no
	// frames for this long is closed.
	defaultIdleTimeout = 30 * time.Second
)

// frameAndProcessed pairs a frame with the channel its reader blocks on
// until the serve loop is done looking at it — the teacher's exact
// device (server.go's frameAndProcessed) for letting ReadFrame's
// single-buffer reuse coexist with a separate reader goroutine.
type frameAndProcessed struct {
	f         frame.Frame
	processed chan struct{}
}

// streamResponse is what a handler goroutine delivers back to the serve
// loop once dispatch.Dispatcher.Dispatch returns.
type streamResponse struct {
	streamID uint32
	resp     *message.Response
}

// Conn is one HTTP/2 connection's complete state, owned by its own
// serve loop goroutine (spec.md §5's single-threaded-per-connection
// model).
type Conn struct {
	c          net.Conn
	framer     *frame.Framer
	dispatcher *dispatch.Dispatcher
	log        Logger

	hpackEncoder   *hpack.Encoder
	hpackDecoder   *hpack.Decoder
	headerWriteBuf bytes.Buffer

	serveG goroutineLock

	streams     map[uint32]*stream
	maxStreamID uint32
	curHeaderID uint32 // stream awaiting END_HEADERS; 0 if none

	initialWindowSize int32 // peer's last-advertised SETTINGS_INITIAL_WINDOW_SIZE; bounds new streams' send flow
	connSendFlow      *flow // connection-wide send budget to the peer
	connRecvWindow    int32 // connection-wide receive budget granted to the peer

	maxWriteFrameSize uint32 // peer's SETTINGS_MAX_FRAME_SIZE

	sentGoAway     bool
	peerGoAway     bool
	peerLastStream uint32

	readFrameCh    chan frameAndProcessed
	readFrameErrCh chan error
	responseCh     chan streamResponse
	doneServing    chan struct{}
	shutdownCh     chan struct{}
	idleTimeout    time.Duration
}

// NewConn wraps an already-accepted, ALPN-negotiated-to-h2 net.Conn.
// Callers run Serve on it (typically on its own goroutine — see the
// server package's accept loop).
func NewConn(c net.Conn, d *dispatch.Dispatcher, log Logger) *Conn {
	sc := &Conn{
		c:                 c,
		framer:            frame.NewFramer(c, c),
		dispatcher:        d,
		log:               log,
		streams:           make(map[uint32]*stream),
		initialWindowSize: defaultInitialWindow,
		connSendFlow:      newFlow(defaultInitialWindow),
		connRecvWindow:    defaultInitialWindow,
		maxWriteFrameSize: defaultMaxFrameSize,
		readFrameCh:       make(chan frameAndProcessed),
		readFrameErrCh:    make(chan error, 1),
		responseCh:        make(chan streamResponse, 8),
		doneServing:       make(chan struct{}),
		shutdownCh:        make(chan struct{}),
		idleTimeout:       defaultIdleTimeout,
		serveG:            newGoroutineLock(),
	}
	sc.hpackEncoder = hpack.NewEncoder(&sc.headerWriteBuf)
	sc.hpackDecoder = hpack.NewDecoder(4096, sc.onNewHeaderField)
	return sc
}

func (sc *Conn) vlogf(format string, args ...any) {
	if VerboseLogs && sc.log != nil {
		sc.log.Debugf(format, args...)
	}
}

func (sc *Conn) logf(format string, args ...any) {
	if sc.log != nil {
		sc.log.Errorf(format, args...)
	}
}

// onNewHeaderField is the hpack.Decoder's emit callback; it demultiplexes
// pseudo-headers, Cookie, and regular fields onto the stream currently
// being decoded — the Go analogue of the teacher's sc.onNewHeaderField.
func (sc *Conn) onNewHeaderField(f hpack.HeaderField) {
	sc.serveG.check()
	st := sc.streams[sc.curHeaderID]
	if st == nil {
		return
	}
	switch {
	case strings.HasPrefix(f.Name, ":"):
		if st.sawRegularHeader {
			st.invalidHeader = true
			return
		}
		var dst *string
		switch f.Name {
		case ":method":
			dst = &st.method
		case ":path":
			dst = &st.path
		case ":scheme":
			dst = &st.scheme
		case ":authority":
			dst = &st.authority
		default:
			st.invalidHeader = true
			return
		}
		if *dst != "" {
			st.invalidHeader = true
			return
		}
		*dst = f.Value
	case f.Name == "cookie":
		st.sawRegularHeader = true
		st.header["cookie"] = append(st.header["cookie"], f.Value)
	default:
		st.sawRegularHeader = true
		st.header[f.Name] = append(st.header[f.Name], f.Value)
	}
}

// Serve runs the preface/SETTINGS handshake and then the frame
// processing loop until the connection ends. It always closes c before
// returning.
func (sc *Conn) Serve() error {
	sc.serveG.check()
	defer sc.c.Close()
	defer close(sc.doneServing)

	if err := sc.readPreface(); err != nil {
		sc.logf("h2: %v", err)
		return err
	}
	if err := sc.handshakeSettings(); err != nil {
		sc.logf("h2: settings handshake failed: %v", err)
		return err
	}

	go sc.readFrames()

	idleTimeout := sc.idleTimeout
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}
	idleTimer := time.NewTimer(idleTimeout)
	defer idleTimer.Stop()

	for {
		select {
		case <-idleTimer.C:
			sc.vlogf("h2: closing idle connection after %v with no frames", idleTimeout)
			return nil
		case <-sc.shutdownCh:
			if !sc.sentGoAway {
				if err := sc.goAway(frame.ErrCodeNo); err != nil {
					return err
				}
			}
			if sc.shouldClose() {
				return nil
			}
		case sr := <-sc.responseCh:
			if err := sc.writeResponse(sr); err != nil {
				sc.logf("h2: writing response on stream %d: %v", sr.streamID, err)
				return err
			}
			if sc.shouldClose() {
				return nil
			}
		case fp, ok := <-sc.readFrameCh:
			if !ok {
				err := <-sc.readFrameErrCh
				if err != io.EOF {
					sc.vlogf("h2: client stopped sending frames: %v", err)
				}
				return err
			}
			if !idleTimer.Stop() {
				select {
				case <-idleTimer.C:
				default:
				}
			}
			idleTimer.Reset(idleTimeout)

			err := sc.processFrame(fp.f)
			fp.processed <- struct{}{}
			switch ev := err.(type) {
			case nil:
			case frame.StreamError:
				if werr := sc.framer.WriteRSTStream(ev.StreamID, ev.Code); werr != nil {
					return werr
				}
				if st, ok := sc.streams[ev.StreamID]; ok {
					st.state = stateClosed
				}
			case frame.ConnectionError:
				sc.goAway(frame.ErrCode(ev))
				return ev
			default:
				sc.logf("h2: disconnecting due to error: %v", err)
				return err
			}
			if sc.shouldClose() {
				return nil
			}
		}
	}
}

// Shutdown asks the serve loop to send GOAWAY and waits for in-flight
// streams to finish, up to ctx's deadline, force-closing the connection
// afterward either way (spec.md §5: "Graceful shutdown emits GOAWAY,
// waits for in-flight streams up to a deadline, then force-closes").
// The actual GOAWAY write and sentGoAway mutation happen on the serve
// loop goroutine via shutdownCh, preserving the single-writer invariant
// serveG.check() enforces elsewhere.
func (sc *Conn) Shutdown(ctx context.Context) error {
	select {
	case sc.shutdownCh <- struct{}{}:
	case <-sc.doneServing:
		return nil
	}

	select {
	case <-sc.doneServing:
		return nil
	case <-ctx.Done():
		sc.c.Close()
		<-sc.doneServing
		return ctx.Err()
	}
}

func (sc *Conn) shouldClose() bool {
	return (sc.peerGoAway || sc.sentGoAway) && len(sc.streams) == 0
}

func (sc *Conn) readPreface() error {
	buf := make([]byte, len(frame.ClientPreface))
	if _, err := io.ReadFull(sc.c, buf); err != nil {
		return err
	}
	if string(buf) != frame.ClientPreface {
		return frame.ConnectionError(frame.ErrCodeProtocol)
	}
	return nil
}

func (sc *Conn) handshakeSettings() error {
	f, err := sc.framer.ReadFrame()
	if err != nil {
		return err
	}
	sf, ok := f.(*frame.SettingsFrame)
	if !ok {
		return frame.ConnectionError(frame.ErrCodeProtocol)
	}
	if err := sf.ForeachSetting(sc.processSetting); err != nil {
		return err
	}
	if err := sc.framer.WriteSettings(frame.DefaultSettings()...); err != nil {
		return err
	}
	return sc.framer.WriteSettingsAck()
}

// readFrames runs on its own goroutine, feeding decoded frames to the
// serve loop one at a time (teacher's exact readFrames/processed
// handshake).
func (sc *Conn) readFrames() {
	processed := make(chan struct{}, 1)
	for {
		f, err := sc.framer.ReadFrame()
		if err != nil {
			close(sc.readFrameCh)
			sc.readFrameErrCh <- err
			return
		}
		sc.readFrameCh <- frameAndProcessed{f, processed}
		<-processed
	}
}

func (sc *Conn) goAway(code frame.ErrCode) error {
	sc.sentGoAway = true
	return sc.framer.WriteGoAway(sc.maxStreamID, code, nil)
}

func (sc *Conn) curHeaderStreamID() uint32 { return sc.curHeaderID }

func (sc *Conn) processFrame(f frame.Frame) error {
	sc.serveG.check()

	if s := sc.curHeaderStreamID(); s != 0 {
		cf, ok := f.(*frame.ContinuationFrame)
		if !ok || cf.Header().StreamID != s {
			return frame.ConnectionError(frame.ErrCodeProtocol)
		}
	}

	switch fr := f.(type) {
	case *frame.SettingsFrame:
		return sc.processSettings(fr)
	case *frame.HeadersFrame:
		return sc.processHeaders(fr)
	case *frame.ContinuationFrame:
		return sc.processContinuation(fr)
	case *frame.WindowUpdateFrame:
		return sc.processWindowUpdate(fr)
	case *frame.PingFrame:
		return sc.processPing(fr)
	case *frame.DataFrame:
		return sc.processData(fr)
	case *frame.RSTStreamFrame:
		return sc.processRSTStream(fr)
	case *frame.GoAwayFrame:
		return sc.processGoAway(fr)
	case *frame.PriorityFrame:
		return nil // stored-but-unenforced: nothing to store without a priority tree
	case *frame.PushPromiseFrame:
		// Clients never legitimately send PUSH_PROMISE.
		return frame.ConnectionError(frame.ErrCodeProtocol)
	case *frame.UnknownFrame:
		return nil
	default:
		return nil
	}
}

func (sc *Conn) processPing(f *frame.PingFrame) error {
	sc.serveG.check()
	if f.IsAck() {
		return nil
	}
	if f.Header().StreamID != 0 {
		return frame.ConnectionError(frame.ErrCodeProtocol)
	}
	return sc.framer.WritePing(true, f.Data)
}

func (sc *Conn) processRSTStream(f *frame.RSTStreamFrame) error {
	sc.serveG.check()
	if st, ok := sc.streams[f.Header().StreamID]; ok {
		st.state = stateClosed
		delete(sc.streams, f.Header().StreamID)
	}
	return nil
}

func (sc *Conn) processGoAway(f *frame.GoAwayFrame) error {
	sc.serveG.check()
	sc.peerGoAway = true
	sc.peerLastStream = f.LastStreamID
	return nil
}

func (sc *Conn) processWindowUpdate(f *frame.WindowUpdateFrame) error {
	sc.serveG.check()
	if f.Increment == 0 {
		return frame.ConnectionError(frame.ErrCodeProtocol)
	}
	if f.Header().StreamID == 0 {
		if !sc.connSendFlow.add(int32(f.Increment)) {
			return frame.ConnectionError(frame.ErrCodeFlowControl)
		}
		return sc.flushAllPending()
	}
	st := sc.streams[f.Header().StreamID]
	if st == nil {
		return nil // permitted on a stream that's since half/fully closed
	}
	if !st.sendFlow.add(int32(f.Increment)) {
		return frame.StreamError{StreamID: st.id, Code: frame.ErrCodeFlowControl}
	}
	return sc.flushPending(st)
}

func (sc *Conn) processSettings(f *frame.SettingsFrame) error {
	sc.serveG.check()
	if f.IsAck() {
		return nil
	}
	if err := f.ForeachSetting(sc.processSetting); err != nil {
		return err
	}
	return sc.framer.WriteSettingsAck()
}

func (sc *Conn) processSetting(s frame.Setting) error {
	sc.serveG.check()
	switch s.ID {
	case frame.SettingInitialWindowSize:
		return sc.processSettingInitialWindowSize(s.Val)
	case frame.SettingMaxFrameSize:
		sc.maxWriteFrameSize = s.Val
	case frame.SettingHeaderTableSize:
		sc.hpackEncoder.SetMaxDynamicTableSize(s.Val)
	}
	return nil
}

func (sc *Conn) processSettingInitialWindowSize(val uint32) error {
	sc.serveG.check()
	if val > 1<<31-1 {
		return frame.ConnectionError(frame.ErrCodeFlowControl)
	}
	old := sc.initialWindowSize
	sc.initialWindowSize = int32(val)
	growth := sc.initialWindowSize - old
	for _, st := range sc.streams {
		if !st.sendFlow.add(growth) {
			return frame.ConnectionError(frame.ErrCodeFlowControl)
		}
	}
	return nil
}

func (sc *Conn) processData(f *frame.DataFrame) error {
	sc.serveG.check()
	id := f.Header().StreamID
	st, ok := sc.streams[id]
	if !ok || (st.state != stateOpen && st.state != stateHalfClosedLocal) {
		return frame.StreamError{StreamID: id, Code: frame.ErrCodeStreamClosed}
	}

	n := int64(f.Header().Length)
	st.recvWin -= int32(n)
	sc.connRecvWindow -= int32(n)

	data := f.Data()
	if st.declaredLen != -1 && st.bodyBytes+int64(len(data)) > st.declaredLen {
		return frame.StreamError{StreamID: id, Code: frame.ErrCodeStreamClosed}
	}
	st.body.Write(data)
	st.bodyBytes += int64(len(data))

	if err := sc.maybeReplenish(st); err != nil {
		return err
	}

	if f.Header().Flags.Has(frame.FlagEndStream) {
		if st.declaredLen != -1 && st.declaredLen != st.bodyBytes {
			return frame.StreamError{StreamID: id, Code: frame.ErrCodeProtocol}
		}
		st.state = stateHalfClosedRemote
		sc.deliverRequest(st)
	}
	return nil
}

// maybeReplenish emits WINDOW_UPDATE frames once the connection's or a
// stream's granted receive window drops below half its initial value,
// refilling it back to that initial value (spec.md §4.4's "when the
// window falls below a threshold, emit WINDOW_UPDATE").
func (sc *Conn) maybeReplenish(st *stream) error {
	if st.recvWin < defaultInitialWindow/windowReplenishDivisor {
		inc := uint32(defaultInitialWindow - st.recvWin)
		st.recvWin = defaultInitialWindow
		if err := sc.framer.WriteWindowUpdate(st.id, inc); err != nil {
			return err
		}
	}
	if sc.connRecvWindow < defaultInitialWindow/windowReplenishDivisor {
		inc := uint32(defaultInitialWindow - sc.connRecvWindow)
		sc.connRecvWindow = defaultInitialWindow
		if err := sc.framer.WriteWindowUpdate(0, inc); err != nil {
			return err
		}
	}
	return nil
}

func (sc *Conn) processHeaders(f *frame.HeadersFrame) error {
	sc.serveG.check()
	id := f.Header().StreamID
	if sc.sentGoAway || sc.peerGoAway {
		return nil
	}
	if id%2 != 1 || id <= sc.maxStreamID {
		return frame.ConnectionError(frame.ErrCodeProtocol)
	}
	sc.maxStreamID = id

	st := newStream(id, sc.initialWindowSize, defaultInitialWindow)
	if f.Header().Flags.Has(frame.FlagEndStream) {
		st.state = stateHalfClosedRemote
	}
	sc.streams[id] = st
	sc.curHeaderID = id

	return sc.processHeaderBlockFragment(st, f.HeaderBlockFragment(), f.HeadersEnded())
}

func (sc *Conn) processContinuation(f *frame.ContinuationFrame) error {
	sc.serveG.check()
	st := sc.streams[f.Header().StreamID]
	if st == nil || sc.curHeaderID != st.id {
		return frame.ConnectionError(frame.ErrCodeProtocol)
	}
	return sc.processHeaderBlockFragment(st, f.HeaderBlockFragment(), f.HeadersEnded())
}

func (sc *Conn) processHeaderBlockFragment(st *stream, frag []byte, end bool) error {
	sc.serveG.check()
	if _, err := sc.hpackDecoder.Write(frag); err != nil {
		return frame.ConnectionError(frame.ErrCodeCompression)
	}
	if !end {
		return nil
	}
	if err := sc.hpackDecoder.Close(); err != nil {
		return frame.ConnectionError(frame.ErrCodeCompression)
	}
	sc.curHeaderID = 0

	if st.invalidHeader || st.method == "" || st.path == "" || (st.scheme != "https" && st.scheme != "http") {
		return frame.StreamError{StreamID: st.id, Code: frame.ErrCodeProtocol}
	}
	if vv := st.header["content-length"]; len(vv) == 1 {
		if n, err := strconv.ParseInt(vv[0], 10, 64); err == nil {
			st.declaredLen = n
		}
	}

	if st.state == stateHalfClosedRemote {
		sc.deliverRequest(st)
	}
	return nil
}

// deliverRequest builds the generic request from the stream's
// pseudo/regular headers and accumulated body, then runs the dispatcher
// on its own goroutine so distinct streams' handlers may proceed
// concurrently (spec.md §4.5's concurrency model) while writes to the
// socket stay serialized through responseCh.
func (sc *Conn) deliverRequest(st *stream) {
	req := message.NewRequest()
	req.Method, req.URI, req.Version = st.method, st.path, "HTTP/2.0"
	for name, vv := range st.header {
		if name == "cookie" {
			continue
		}
		for _, v := range vv {
			req.Header.Add(name, v)
		}
	}
	if cookies, ok := st.header["cookie"]; ok {
		message.ParseCookieHeader(req.Cookies, strings.Join(cookies, "; "))
	}
	ct, _ := req.Header.Get("Content-Type")
	body, err := message.ParseBody(message.DirRequest, ct, st.body.Bytes())
	if err != nil {
		sc.responseCh <- streamResponse{st.id, errorResponse(err)}
		return
	}
	req.Body = body

	id := st.id
	d := sc.dispatcher
	respCh := sc.responseCh
	go func() {
		respCh <- streamResponse{id, d.Dispatch(req)}
	}()
}

func errorResponse(err error) *message.Response {
	resp := message.NewResponse()
	resp.Status = 400
	resp.Body = &message.Body{Kind: message.KindRaw, Raw: []byte(err.Error())}
	return resp
}
