package encoders

import (
	"fmt"
)

type encoderFactory = func(quality int) (Encoder, error)

// Index of supported codecs, each encoder registers itself from its own
// file so codecs can be compiled in conditionally.
var registeredEncoders = make(map[VideoCodec]encoderFactory, 1)

// EncoderService creates instances of encoders
type EncoderService struct {
}

// NewEncoderService creates an encoder factory
func NewEncoderService() Service {
	return &EncoderService{}
}

// NewEncoder creates an instance of an encoder of the selected codec
func (*EncoderService) NewEncoder(codec VideoCodec, quality int) (Encoder, error) {
	factory, found := registeredEncoders[codec]
	if !found {
		return nil, fmt.Errorf("codec %v not supported", codec)
	}
	return factory(quality)
}

// Supports returns a boolean indicating if the codec is supported
func (*EncoderService) Supports(codec VideoCodec) bool {
	_, found := registeredEncoders[codec]
	return found
}
