// ABOUTME: Decoder interface definition
// ABOUTME: Common interface and constructor for all frame decoders
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
)

// Decoder represents a frame decoder
type Decoder interface {
	// Decode converts one encoded frame to PCM samples
	Decode(data []byte) ([]int16, error)

	// Close releases decoder resources
	Close() error
}

// New returns the decoder for format.Codec
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case audio.CodecOpus:
		return NewOpus(format)
	case audio.CodecPCM:
		return NewPCM(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
