package h1

import (
	"strings"
	"testing"

	"github.com/gopherhttp/httpd/message"
)

func TestParseRequestLine(t *testing.T) {
	req, err := ParseRequest([]byte("GET /hello HTTP/1.1\r\nHost: x\r\n\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != "GET" || req.URI != "/hello" || req.Version != "HTTP/1.1" {
		t.Fatalf("req = %+v", req)
	}
	if host, ok := req.Header.Get("Host"); !ok || host != "x" {
		t.Fatalf("Host header = %q, %v", host, ok)
	}
}

func TestParseRequestCookieRoutedToJar(t *testing.T) {
	req, err := ParseRequest([]byte("GET / HTTP/1.1\r\nCookie: a=1; b=2\r\n\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if req.Header.Len() != 0 {
		t.Fatalf("Cookie leaked into header map: %d entries", req.Header.Len())
	}
	if c, ok := req.Cookies.Get("a"); !ok || c.Value != "1" {
		t.Fatalf("cookie a = %+v, %v", c, ok)
	}
}

func TestParseRequestFormBody(t *testing.T) {
	raw := "POST /add HTTP/1.1\r\nContent-Type: application/x-www-form-urlencoded\r\nContent-Length: 7\r\n\r\na=1&b=2"
	req, err := ParseRequest([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if req.Body.Kind != message.KindForm || req.Body.Fields["a"] != "1" || req.Body.Fields["b"] != "2" {
		t.Fatalf("Body = %+v", req.Body)
	}
}

func TestParseRequestContentLengthMismatchIsBadRequest(t *testing.T) {
	raw := "POST /add HTTP/1.1\r\nContent-Type: application/x-www-form-urlencoded\r\nContent-Length: 99\r\n\r\na=1"
	_, err := ParseRequest([]byte(raw))
	if err == nil {
		t.Fatal("expected error for Content-Length mismatch")
	}
	if status := errStatus(err); status != 400 {
		t.Fatalf("status = %d; want 400", status)
	}
}

func TestParseRequestTransferEncodingNotImplemented(t *testing.T) {
	raw := "POST /add HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n"
	_, err := ParseRequest([]byte(raw))
	if status := errStatus(err); status != 501 {
		t.Fatalf("status = %d; want 501", status)
	}
}

func TestParseRequestOversizeRejected(t *testing.T) {
	huge := strings.Repeat("a", MaxReadBytes+1)
	_, err := ParseRequest([]byte(huge))
	if status := errStatus(err); status != 413 {
		t.Fatalf("status = %d; want 413", status)
	}
}

func TestSerializeResponseGoldenPath(t *testing.T) {
	resp := message.NewResponse()
	resp.Status = 200
	resp.Body = &message.Body{Kind: message.KindRaw, Raw: []byte("hi")}
	out := string(SerializeResponse(resp))
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status line wrong: %q", out[:20])
	}
	if !strings.Contains(out, "Content-Length: 2\r\n") {
		t.Fatalf("missing Content-Length: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\nhi") {
		t.Fatalf("missing trailing body: %q", out)
	}
}

func errStatus(err error) int {
	if e, ok := err.(interface{ StatusCode() int }); ok {
		return e.StatusCode()
	}
	return 0
}
