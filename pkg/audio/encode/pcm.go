// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int16 samples to 16-bit little-endian PCM bytes
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
)

// PCMEncoder passes samples through as raw S16LE
type PCMEncoder struct {
	frameSamples int
}

// NewPCM creates a new PCM encoder. A PCM frame spans a whole chunk.
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != audio.CodecPCM {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	return &PCMEncoder{
		frameSamples: format.SamplesFor(audio.ChunkDuration),
	}, nil
}

// Encode converts samples to PCM bytes
func (e *PCMEncoder) Encode(samples []int16) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty pcm frame")
	}
	return audio.SamplesToBytes(samples), nil
}

func (e *PCMEncoder) FrameSamples() int {
	return e.frameSamples
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
