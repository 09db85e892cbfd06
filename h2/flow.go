package h2

import "math"

// flow tracks one side of a flow-control window — a connection's or a
// stream's — the same accounting the teacher's *flow type performs
// (server.go's sc.flow / stream.flow). Conn uses it for the send direction
// (bounds how much we may write before a WINDOW_UPDATE arrives); receive
// windows are kept as plain int32 counters on Conn and stream.
type flow struct {
	avail int32
}

func newFlow(n int32) *flow { return &flow{avail: n} }

// add credits n (possibly negative, per SETTINGS_INITIAL_WINDOW_SIZE
// renegotiation) to the window. It reports false if doing so would push
// the window past the protocol's 2^31-1 ceiling, which spec.md §4.5
// requires treating as a flow-control error.
func (f *flow) add(n int32) bool {
	sum := int64(f.avail) + int64(n)
	if sum > math.MaxInt32 {
		return false
	}
	f.avail = int32(sum)
	return true
}

// take debits n from the window; callers are responsible for never taking
// more than available() reports.
func (f *flow) take(n int32) { f.avail -= n }

func (f *flow) available() int32 { return f.avail }
