// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16-bit little-endian PCM frames to int16 samples
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	channels int
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != audio.CodecPCM {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	return &PCMDecoder{channels: format.Channels}, nil
}

// Decode converts PCM bytes to samples. The frame must hold whole
// sample frames for the configured channel count.
func (d *PCMDecoder) Decode(data []byte) ([]int16, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("pcm decode failed: empty frame")
	}
	if len(data)%(2*d.channels) != 0 {
		return nil, fmt.Errorf("pcm decode failed: %d bytes is not a whole number of %d-channel frames", len(data), d.channels)
	}
	return audio.BytesToSamples(data), nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
