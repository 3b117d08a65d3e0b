package encoders

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// JPEG cannot address images wider or taller than this
const jpegMaxDimension = 65535

// JPEGEncoder encodes frames as baseline JPEG at a fixed quality
type JPEGEncoder struct {
	buffer  *bytes.Buffer
	options jpeg.Options
}

func newJPEGEncoder(quality int) (Encoder, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("jpeg quality must be within [1, 100], got %d", quality)
	}
	return &JPEGEncoder{
		buffer:  bytes.NewBuffer(make([]byte, 0, 256*1024)),
		options: jpeg.Options{Quality: quality},
	}, nil
}

// Encode encodes a frame into a JPEG payload. The alpha channel is not
// read.
func (e *JPEGEncoder) Encode(frame *image.RGBA) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("%w: nil frame", ErrEncode)
	}
	size := frame.Bounds().Size()
	if size.X <= 0 || size.Y <= 0 || size.X > jpegMaxDimension || size.Y > jpegMaxDimension {
		return nil, fmt.Errorf("%w: invalid frame size %dx%d", ErrEncode, size.X, size.Y)
	}
	if len(frame.Pix) < frame.PixOffset(frame.Rect.Max.X-1, frame.Rect.Max.Y-1)+4 {
		return nil, fmt.Errorf("%w: pixel buffer too short for %dx%d", ErrEncode, size.X, size.Y)
	}

	e.buffer.Reset()
	if err := jpeg.Encode(e.buffer, frame, &e.options); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return e.buffer.Bytes(), nil
}

// Close releases the encoder buffer
func (e *JPEGEncoder) Close() error {
	e.buffer = bytes.NewBuffer(nil)
	return nil
}

func init() {
	registeredEncoders[JPEGCodec] = newJPEGEncoder
}
