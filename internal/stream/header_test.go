package stream

import (
	"bytes"
	"testing"
	"time"
)

func TestFrameHeaderRoundTrip(t *testing.T) {
	at := time.UnixMicro(1_700_000_000_123_456)
	msg := AppendHeader(nil, FrameHeader{Seq: 0xdeadbeef, CapturedAt: at})
	msg = append(msg, "jpeg"...)

	if len(msg) != HeaderSize+4 {
		t.Fatalf("expected %d bytes, got %d", HeaderSize+4, len(msg))
	}
	if !bytes.Equal(msg[:4], []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("sequence is not big endian: % x", msg[:4])
	}

	h, payload, err := ParseHeader(msg)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if h.Seq != 0xdeadbeef || !h.CapturedAt.Equal(at) {
		t.Fatalf("unexpected header %+v", h)
	}
	if string(payload) != "jpeg" {
		t.Fatalf("unexpected payload %q", payload)
	}
}

func TestParseHeaderRejectsShortMessage(t *testing.T) {
	if _, _, err := ParseHeader(make([]byte, HeaderSize-1)); err == nil {
		t.Fatal("expected an error for a short message")
	}
}
