package stream

import (
	"encoding/binary"
	"fmt"
	"time"
)

// HeaderSize is the length of the optional frame header
const HeaderSize = 12

// FrameHeader precedes the image in a message when frame headers are
// enabled. Layout, big endian:
//
//	0  4  sequence number of sent frames, starting at 0
//	4  8  capture time, unix microseconds
type FrameHeader struct {
	Seq        uint32
	CapturedAt time.Time
}

// AppendHeader appends the encoded header to b
func AppendHeader(b []byte, h FrameHeader) []byte {
	b = binary.BigEndian.AppendUint32(b, h.Seq)
	return binary.BigEndian.AppendUint64(b, uint64(h.CapturedAt.UnixMicro()))
}

// ParseHeader splits a message into its header and image payload
func ParseHeader(msg []byte) (FrameHeader, []byte, error) {
	if len(msg) < HeaderSize {
		return FrameHeader{}, nil, fmt.Errorf("message too short for frame header: %d bytes", len(msg))
	}
	h := FrameHeader{
		Seq:        binary.BigEndian.Uint32(msg[0:4]),
		CapturedAt: time.UnixMicro(int64(binary.BigEndian.Uint64(msg[4:12]))),
	}
	return h, msg[HeaderSize:], nil
}
