package h1

import (
	"net"
	"time"

	"github.com/gopherhttp/httpd/dispatch"
	"github.com/gopherhttp/httpd/httperr"
	"github.com/gopherhttp/httpd/message"
)

// defaultIdleTimeout is spec.md §5's "implementation-defined, default
// 30s" receive-side idle watchdog, applied here as the deadline for the
// single read ServeConn performs.
const defaultIdleTimeout = 30 * time.Second

// ServeConn runs exactly one request/response cycle over c: a single
// buffered read (grounded on original_source/server/server.py's
// `request_data = await reader.read(8000)`, the source's own
// single-shot, non-incremental read), a parse, a dispatch, and a
// serialized write. Persistent connections/keep-alive pipelining are an
// explicit Non-goal, so the connection is always closed afterward.
//
// The buffer is sized one byte past MaxReadBytes so a peer that sent
// more than the limit fills it completely; that's the Go analogue of
// the original's `reader.read(8000)` followed by an `at_eof()` check
// (server/server.py's get_callback) to tell "exactly at the limit" from
// "truncated because there was more").
func ServeConn(c net.Conn, d *dispatch.Dispatcher) error {
	defer c.Close()

	c.SetReadDeadline(time.Now().Add(defaultIdleTimeout))

	buf := make([]byte, MaxReadBytes+1)
	n, err := c.Read(buf)
	if n == 0 && err != nil {
		return err
	}
	if n > MaxReadBytes {
		resp := errorResponse(httperr.RequestEntityTooLarge("request exceeds maximum buffered size"))
		_, werr := c.Write(SerializeResponse(resp))
		return werr
	}

	req, perr := ParseRequest(buf[:n])
	if perr != nil {
		resp := errorResponse(perr)
		_, werr := c.Write(SerializeResponse(resp))
		return werr
	}

	resp := d.Dispatch(req)
	_, werr := c.Write(SerializeResponse(resp))
	return werr
}

func errorResponse(err error) *message.Response {
	resp := message.NewResponse()
	resp.Status = httperr.StatusOf(err)
	resp.Body = &message.Body{Kind: message.KindRaw, Raw: []byte(err.Error())}
	return resp
}
