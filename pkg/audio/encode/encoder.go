// ABOUTME: Encoder interface definition
// ABOUTME: Common interface and constructor for all frame encoders
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
)

// Encoder represents a frame encoder
type Encoder interface {
	// Encode converts one frame of PCM samples to encoded audio data
	Encode(samples []int16) ([]byte, error)

	// FrameSamples is the number of interleaved samples Encode expects
	FrameSamples() int

	// Close releases encoder resources
	Close() error
}

// New returns the encoder for format.Codec
func New(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case audio.CodecOpus:
		return NewOpus(format)
	case audio.CodecPCM:
		return NewPCM(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
