package h2

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gopherhttp/httpd/dispatch"
	"github.com/gopherhttp/httpd/frame"
	"github.com/gopherhttp/httpd/hpack"
)

// clientEncode HPACK-encodes pseudo+regular headers the way a minimal
// HTTP/2 client would, for feeding into the server side of a net.Pipe.
func clientEncode(fields ...hpack.HeaderField) []byte {
	var buf bytes.Buffer
	enc := hpack.NewEncoder(&buf)
	for _, f := range fields {
		enc.WriteField(f)
	}
	return buf.Bytes()
}

func TestServerHandshakeSendsSettingsAndAck(t *testing.T) {
	client, server := net.Pipe()
	d := dispatch.New()
	sc := NewConn(server, d, nil)
	go sc.Serve()

	if _, err := client.Write([]byte(frame.ClientPreface)); err != nil {
		t.Fatal(err)
	}
	cfr := frame.NewFramer(client, client)
	if err := cfr.WriteSettings(); err != nil {
		t.Fatal(err)
	}

	f1, err := cfr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f1.(*frame.SettingsFrame); !ok {
		t.Fatalf("first frame = %T; want *SettingsFrame", f1)
	}

	f2, err := cfr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	sf2, ok := f2.(*frame.SettingsFrame)
	if !ok || !sf2.IsAck() {
		t.Fatalf("second frame = %T (ack=%v); want SETTINGS ACK", f2, ok && sf2.IsAck())
	}
	client.Close()
}

func TestShutdownSendsGoAwayAndClosesOnceIdle(t *testing.T) {
	client, server := net.Pipe()
	d := dispatch.New()
	sc := NewConn(server, d, nil)
	serveDone := make(chan error, 1)
	go func() { serveDone <- sc.Serve() }()

	client.Write([]byte(frame.ClientPreface))
	cfr := frame.NewFramer(client, client)
	cfr.WriteSettings()
	cfr.ReadFrame() // server settings
	cfr.ReadFrame() // server ack

	shutdownDone := make(chan error, 1)
	go func() { shutdownDone <- sc.Shutdown(context.Background()) }()

	f, err := cfr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	ga, ok := f.(*frame.GoAwayFrame)
	if !ok {
		t.Fatalf("got %T; want *GoAwayFrame", f)
	}
	if ga.ErrCode != frame.ErrCodeNo {
		t.Fatalf("GOAWAY code = %v; want ErrCodeNo", ga.ErrCode)
	}

	select {
	case err := <-shutdownDone:
		if err != nil {
			t.Fatalf("Shutdown returned %v; want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return after GOAWAY with no in-flight streams")
	}

	select {
	case <-serveDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
	client.Close()
}

func TestIdleConnectionClosedAfterTimeout(t *testing.T) {
	client, server := net.Pipe()
	d := dispatch.New()
	sc := NewConn(server, d, nil)
	sc.idleTimeout = 20 * time.Millisecond
	serveDone := make(chan error, 1)
	go func() { serveDone <- sc.Serve() }()

	client.Write([]byte(frame.ClientPreface))
	cfr := frame.NewFramer(client, client)
	cfr.WriteSettings()
	cfr.ReadFrame() // server settings
	cfr.ReadFrame() // server ack

	select {
	case <-serveDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return an idle connection within the timeout")
	}
	client.Close()
}

func TestFlowControlStopsAtWindowAndResumesOnUpdate(t *testing.T) {
	client, server := net.Pipe()
	d := dispatch.New()
	body := strings.Repeat("x", 100)
	d.Handle([]string{"GET"}, "/", func(ctx *dispatch.Context) (any, error) {
		return body, nil
	})
	sc := NewConn(server, d, nil)
	go sc.Serve()

	client.Write([]byte(frame.ClientPreface))
	cfr := frame.NewFramer(client, client)
	// Advertise a tiny initial window so the first DATA frame the server
	// sends is capped well below the full response body.
	cfr.WriteSettings(frame.Setting{ID: frame.SettingInitialWindowSize, Val: 10})
	cfr.ReadFrame() // server settings
	cfr.ReadFrame() // server ack

	block := clientEncode(
		hpack.HeaderField{Name: ":method", Value: "GET"},
		hpack.HeaderField{Name: ":path", Value: "/"},
		hpack.HeaderField{Name: ":scheme", Value: "https"},
		hpack.HeaderField{Name: ":authority", Value: "x"},
	)
	if err := cfr.WriteHeaders(frame.HeadersFrameParam{
		StreamID:      1,
		BlockFragment: block,
		EndStream:     true,
		EndHeaders:    true,
	}); err != nil {
		t.Fatal(err)
	}

	hf, err := cfr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := hf.(*frame.HeadersFrame); !ok {
		t.Fatalf("got %T; want *HeadersFrame", hf)
	}

	df, err := cfr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	data, ok := df.(*frame.DataFrame)
	if !ok {
		t.Fatalf("got %T; want *DataFrame", df)
	}
	if len(data.Data()) != 10 {
		t.Fatalf("first DATA frame len = %d; want 10 (capped by initial window)", len(data.Data()))
	}
	if data.Header().Flags.Has(frame.FlagEndStream) {
		t.Fatalf("first DATA frame carries END_STREAM; body still pending")
	}

	// The connection update goes first: net.Pipe is unbuffered, and the
	// stream update makes the server write the remaining DATA at once, so
	// no further client write may be pending when it arrives.
	if err := cfr.WriteWindowUpdate(0, 90); err != nil {
		t.Fatal(err)
	}
	if err := cfr.WriteWindowUpdate(1, 90); err != nil {
		t.Fatal(err)
	}

	df2, err := cfr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	data2, ok := df2.(*frame.DataFrame)
	if !ok {
		t.Fatalf("got %T; want *DataFrame", df2)
	}
	if !bytes.Equal(append(data.Data(), data2.Data()...), []byte(body)) {
		t.Fatalf("reassembled body = %q; want %q", append(data.Data(), data2.Data()...), body)
	}
	if !data2.Header().Flags.Has(frame.FlagEndStream) {
		t.Fatalf("second DATA frame missing END_STREAM")
	}
	client.Close()
}

func TestGETRoundTripRespondsWithDataAndEndStream(t *testing.T) {
	client, server := net.Pipe()
	d := dispatch.New()
	d.Handle([]string{"GET"}, "/", func(ctx *dispatch.Context) (any, error) {
		return "test1", nil
	})
	sc := NewConn(server, d, nil)
	go sc.Serve()

	client.Write([]byte(frame.ClientPreface))
	cfr := frame.NewFramer(client, client)
	cfr.WriteSettings()
	cfr.ReadFrame() // server settings
	cfr.ReadFrame() // server ack

	block := clientEncode(
		hpack.HeaderField{Name: ":method", Value: "GET"},
		hpack.HeaderField{Name: ":path", Value: "/"},
		hpack.HeaderField{Name: ":scheme", Value: "https"},
		hpack.HeaderField{Name: ":authority", Value: "x"},
	)
	if err := cfr.WriteHeaders(frame.HeadersFrameParam{
		StreamID:      1,
		BlockFragment: block,
		EndStream:     true,
		EndHeaders:    true,
	}); err != nil {
		t.Fatal(err)
	}

	hf, err := cfr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	h, ok := hf.(*frame.HeadersFrame)
	if !ok || !h.HeadersEnded() {
		t.Fatalf("got %T; want *HeadersFrame with END_HEADERS", hf)
	}

	df, err := cfr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	data, ok := df.(*frame.DataFrame)
	if !ok {
		t.Fatalf("got %T; want *DataFrame", df)
	}
	if !bytes.Equal(data.Data(), []byte("test1")) {
		t.Fatalf("Data() = %q; want %q", data.Data(), "test1")
	}
	if !data.Header().Flags.Has(frame.FlagEndStream) {
		t.Fatalf("DATA frame missing END_STREAM")
	}
	client.Close()
}
