package frame

import (
	"bytes"
	"testing"
)

func TestSettingsRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	fr := NewFramer(&buf, &buf)
	want := []Setting{{SettingInitialWindowSize, 65535}, {SettingMaxConcurrentStreams, 100}}
	if err := fr.WriteSettings(want...); err != nil {
		t.Fatal(err)
	}
	f, err := fr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	sf, ok := f.(*SettingsFrame)
	if !ok {
		t.Fatalf("got %T; want *SettingsFrame", f)
	}
	if sf.IsAck() {
		t.Fatalf("IsAck() = true; want false")
	}
	var got []Setting
	sf.ForeachSetting(func(s Setting) error { got = append(got, s); return nil })
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("settings = %v; want %v", got, want)
	}
}

func TestSettingsAckRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	fr := NewFramer(&buf, &buf)
	if err := fr.WriteSettingsAck(); err != nil {
		t.Fatal(err)
	}
	f, err := fr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	sf := f.(*SettingsFrame)
	if !sf.IsAck() {
		t.Fatalf("IsAck() = false; want true")
	}
}

func TestDataFrameRoundtripBitExact(t *testing.T) {
	var buf bytes.Buffer
	fr := NewFramer(&buf, &buf)
	payload := []byte("hello, world")
	if err := fr.WriteData(3, true, payload); err != nil {
		t.Fatal(err)
	}
	f, err := fr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	df := f.(*DataFrame)
	if df.Header().StreamID != 3 {
		t.Fatalf("StreamID = %d; want 3", df.Header().StreamID)
	}
	if !df.Header().Flags.Has(FlagEndStream) {
		t.Fatalf("EndStream flag missing")
	}
	if !bytes.Equal(df.Data(), payload) {
		t.Fatalf("Data() = %q; want %q", df.Data(), payload)
	}
}

func TestHeadersFrameRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	fr := NewFramer(&buf, &buf)
	block := []byte{0x82, 0x86, 0x84} // arbitrary bytes; frame codec doesn't interpret HPACK
	err := fr.WriteHeaders(HeadersFrameParam{
		StreamID:      1,
		BlockFragment: block,
		EndStream:     true,
		EndHeaders:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	f, err := fr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	hf := f.(*HeadersFrame)
	if !hf.HeadersEnded() {
		t.Fatalf("HeadersEnded() = false; want true")
	}
	if !bytes.Equal(hf.HeaderBlockFragment(), block) {
		t.Fatalf("HeaderBlockFragment() = %v; want %v", hf.HeaderBlockFragment(), block)
	}
}

func TestRSTStreamMustBeExactly4Bytes(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 5, byte(TypeRSTStream), 0, 0, 0, 0, 1, 1, 2, 3, 4, 5})
	fr := NewFramer(&buf, &buf)
	_, err := fr.ReadFrame()
	if _, ok := err.(FrameSizeError); !ok {
		t.Fatalf("err = %v (%T); want FrameSizeError", err, err)
	}
}

func TestGoAwayRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	fr := NewFramer(&buf, &buf)
	if err := fr.WriteGoAway(7, ErrCodeProtocol, []byte("debug")); err != nil {
		t.Fatal(err)
	}
	f, err := fr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	gf := f.(*GoAwayFrame)
	if gf.LastStreamID != 7 || gf.ErrCode != ErrCodeProtocol || string(gf.DebugData) != "debug" {
		t.Fatalf("GoAwayFrame = %+v", gf)
	}
}

func TestWindowUpdateRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	fr := NewFramer(&buf, &buf)
	if err := fr.WriteWindowUpdate(5, 1000); err != nil {
		t.Fatal(err)
	}
	f, err := fr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	wu := f.(*WindowUpdateFrame)
	if wu.Header().StreamID != 5 || wu.Increment != 1000 {
		t.Fatalf("WindowUpdateFrame = %+v", wu)
	}
}

func TestUnknownFrameTypeIgnoredNotRejected(t *testing.T) {
	var buf bytes.Buffer
	// type 0x7f is undefined; must parse as UnknownFrame rather than error.
	buf.Write([]byte{0, 0, 2, 0x7f, 0, 0, 0, 0, 1, 0xAB, 0xCD})
	fr := NewFramer(&buf, &buf)
	f, err := fr.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v; want nil", err)
	}
	if _, ok := f.(*UnknownFrame); !ok {
		t.Fatalf("got %T; want *UnknownFrame", f)
	}
}

func TestPingRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	fr := NewFramer(&buf, &buf)
	var data [8]byte
	copy(data[:], "ABCDEFGH")
	if err := fr.WritePing(true, data); err != nil {
		t.Fatal(err)
	}
	f, err := fr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	pf := f.(*PingFrame)
	if !pf.IsAck() || pf.Data != data {
		t.Fatalf("PingFrame = %+v", pf)
	}
}
