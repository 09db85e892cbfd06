package server

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopherhttp/httpd/dispatch"
)

func TestPlaintextH1RoundTrip(t *testing.T) {
	d := dispatch.New()
	d.Handle([]string{"GET"}, "/hello", func(ctx *dispatch.Context) (any, error) {
		return "hi", nil
	})
	s, err := New(Config{Port: 0, Dispatcher: d})
	require.NoError(t, err)
	go s.Serve()

	addr := s.Addr()
	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET /hello HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	buf := make([]byte, 4096)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)

	out := string(buf[:n])
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"), "response = %q", out)
	assert.True(t, strings.HasSuffix(out, "hi"), "response body missing: %q", out)
}
