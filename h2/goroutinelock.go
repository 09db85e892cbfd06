package h2

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineLock is a debug-only assertion that a set of methods all run on
// the same goroutine — the connection's single serve loop, per spec.md
// §5's "frame decoding is strictly serial" requirement. It is the same
// idiom the teacher's serverConn.serveG carries (server.go: sc.serveG.check()
// sprinkled through every serve-loop-only method); outside of
// debugGoroutineLock builds, check is a no-op so it costs nothing in
// production.
type goroutineLock uint64

const debugGoroutineLock = false

func newGoroutineLock() goroutineLock {
	if !debugGoroutineLock {
		return 0
	}
	return goroutineLock(curGoroutineID())
}

func (g goroutineLock) check() {
	if !debugGoroutineLock {
		return
	}
	if curGoroutineID() != uint64(g) {
		panic("running on the wrong goroutine")
	}
}

func curGoroutineID() uint64 {
	// Only ever called in debugGoroutineLock builds; parsing one's own
	// stack trace for a goroutine id is the standard (if inelegant) way
	// to get it without a public runtime API.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, _ := strconv.ParseUint(string(fields[1]), 10, 64)
	return id
}
