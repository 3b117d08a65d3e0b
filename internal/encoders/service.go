package encoders

import (
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
)

// ErrEncode is returned for frames the encoder cannot represent, such as
// empty or oversized images
var ErrEncode = errors.New("encode error")

// Service creates encoder instances
type Service interface {
	NewEncoder(codec VideoCodec, quality int) (Encoder, error)
	Supports(codec VideoCodec) bool
}

// Encoder takes an image/frame and encodes it into a self-contained payload.
// The returned slice is only valid until the next call to Encode.
type Encoder interface {
	io.Closer
	Encode(*image.RGBA) ([]byte, error)
}

// VideoCodec identifies a frame codec
type VideoCodec int

const (
	// JPEGCodec encodes every frame as an independent JPEG image
	JPEGCodec VideoCodec = iota
)

var codecNames = map[string]VideoCodec{
	"jpeg": JPEGCodec,
	"jpg":  JPEGCodec,
}

// ParseCodec maps a configuration name to a VideoCodec
func ParseCodec(name string) (VideoCodec, error) {
	codec, found := codecNames[strings.ToLower(name)]
	if !found {
		return 0, fmt.Errorf("codec %q not supported", name)
	}
	return codec, nil
}

func (c VideoCodec) String() string {
	switch c {
	case JPEGCodec:
		return "jpeg"
	default:
		return fmt.Sprintf("codec(%d)", int(c))
	}
}
