// Package h1 implements C2: parsing and serializing HTTP/1.1 text
// messages per spec.md §4.2's grammar subset. It is the Go analogue of
// original_source/message.py's request/response (de)serialization,
// matching the teacher's preference for a small, explicit, non-streaming
// parser over net/http's incremental one — this module's H1 path never
// needs to stream a body larger than the 8000-byte read bound.
package h1

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gopherhttp/httpd/httperr"
	"github.com/gopherhttp/httpd/message"
)

// MaxReadBytes bounds a single buffered read of a request, per spec.md
// §4.2. A request whose head and body together exceed this triggers
// RequestEntityTooLarge.
const MaxReadBytes = 8000

var headerLineRE = regexp.MustCompile(`^(\S+?):\s*(.+)$`)

// ParseRequest parses a complete buffered request per spec.md §4.2. It is
// NOT incremental: buf must already contain the full message (head plus
// whatever body bytes were read), and the H1 connection handler is
// responsible for bounding buf at MaxReadBytes before calling this.
func ParseRequest(buf []byte) (*message.Request, error) {
	if len(buf) > MaxReadBytes {
		return nil, httperr.RequestEntityTooLarge("request exceeds maximum buffered size")
	}

	head, body, ok := splitHeadBody(buf)
	if !ok {
		return nil, httperr.BadRequest("missing header/body separator")
	}

	lines := strings.Split(head, "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, httperr.BadRequest("missing request line")
	}
	parts := strings.SplitN(lines[0], " ", 3)
	if len(parts) != 3 {
		return nil, httperr.BadRequest("malformed request line")
	}

	req := message.NewRequest()
	req.Method, req.URI, req.Version = parts[0], parts[1], parts[2]

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		m := headerLineRE.FindStringSubmatch(line)
		if m == nil {
			return nil, httperr.BadRequest("malformed header line: " + line)
		}
		name, value := m[1], m[2]
		if strings.EqualFold(name, "Cookie") {
			message.ParseCookieHeader(req.Cookies, value)
			continue
		}
		req.Header.Set(name, value)
	}

	if _, hasTE := req.Header.Get("Transfer-Encoding"); hasTE {
		return nil, httperr.NotImplemented("Transfer-Encoding is not supported")
	}

	if cl, hasCL := req.Header.Get("Content-Length"); hasCL {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil {
			return nil, httperr.BadRequest("malformed Content-Length")
		}
		// spec.md §9 Open Question: a declared Content-Length that
		// disagrees with the observed body size is a BadRequest, not
		// silently accepted or used to truncate/pad the buffer.
		if n != len(body) {
			return nil, httperr.BadRequest("Content-Length does not match body size")
		}
	}

	ct, _ := req.Header.Get("Content-Type")
	parsedBody, err := message.ParseBody(message.DirRequest, ct, body)
	if err != nil {
		return nil, err
	}
	req.Body = parsedBody
	return req, nil
}

func splitHeadBody(buf []byte) (head string, body []byte, ok bool) {
	idx := bytes.Index(buf, []byte("\r\n\r\n"))
	if idx < 0 {
		return "", nil, false
	}
	return string(buf[:idx]), buf[idx+4:], true
}

// SerializeResponse renders resp per spec.md §4.2's serializer contract:
// status line, headers in insertion order, Set-Cookie lines, a blank
// line, then body bytes. Date, Server, and Content-Length are always
// (re)computed here, overriding any value a handler set. Content-Type is
// overridden only when the body variant has one; a nil or KindNone body
// leaves whatever Content-Type the handler set, and none is added.
func SerializeResponse(resp *message.Response) []byte {
	body, contentType := message.SerializeBody(resp.Body)

	reason := resp.Reason
	if reason == "" {
		reason = httperr.New(resp.Status, "").Error()
	}
	version := resp.Version
	if version == "" {
		version = "HTTP/1.1"
	}

	var buf bytes.Buffer
	buf.WriteString(version)
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(resp.Status))
	buf.WriteByte(' ')
	buf.WriteString(reason)
	buf.WriteString("\r\n")

	resp.Header.Set("Date", time.Now().UTC().Format(time.RFC1123))
	resp.Header.Set("Server", "gopherhttpd")
	if contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))

	resp.Header.Range(func(name, value string) {
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\r\n")
	})
	for _, line := range resp.Cookies.SetCookieLines() {
		buf.WriteString("Set-Cookie: ")
		buf.WriteString(line)
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")
	buf.Write(body)
	return buf.Bytes()
}
