package h2

import "bytes"

// streamState is the five-state subset of RFC 7540 §5.1 this server
// exercises: streams are never pushed, so "reserved" is unreachable.
type streamState int

const (
	stateIdle streamState = iota
	stateOpen
	stateHalfClosedLocal
	stateHalfClosedRemote
	stateClosed
)

func (s streamState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateOpen:
		return "open"
	case stateHalfClosedLocal:
		return "half_closed_local"
	case stateHalfClosedRemote:
		return "half_closed_remote"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// stream is one HTTP/2 stream's mutable state, owned exclusively by the
// connection's serve loop (spec.md §5: "inbound frame decoding is serial").
type stream struct {
	id    uint32
	state streamState

	sendFlow *flow // bounds what we may write to the peer
	recvWin  int32 // bytes of receive window granted to the peer, not yet consumed

	method, path, scheme, authority string
	header                          map[string][]string
	sawRegularHeader                bool
	invalidHeader                   bool

	body        bytes.Buffer
	declaredLen int64 // Content-Length if present, else -1
	bodyBytes   int64

	pendingBody []byte // response bytes not yet flushed due to flow control
	pendingDone bool   // true if pendingBody's last chunk carries END_STREAM
}

func newStream(id uint32, sendWindow int32, recvWindow int32) *stream {
	return &stream{
		id:          id,
		state:       stateOpen,
		sendFlow:    newFlow(sendWindow),
		recvWin:     recvWindow,
		declaredLen: -1,
		header:      make(map[string][]string),
	}
}
