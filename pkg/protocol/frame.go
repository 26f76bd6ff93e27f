// ABOUTME: Binary frame encoding for audio chunks
// ABOUTME: One type byte followed by the opaque chunk payload
package protocol

import (
	"errors"
	"fmt"
)

// FrameType identifies a binary frame
type FrameType byte

const (
	// FrameAudioChunk carries one audio chunk, in both directions
	FrameAudioChunk FrameType = 1
)

// ErrShortFrame is returned for frames without a type byte
var ErrShortFrame = errors.New("binary frame too short")

func (t FrameType) String() string {
	switch t {
	case FrameAudioChunk:
		return "audioChunk"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// EncodeAudioChunk wraps a chunk payload in an audio frame
func EncodeAudioChunk(payload []byte) []byte {
	frame := make([]byte, 1+len(payload))
	frame[0] = byte(FrameAudioChunk)
	copy(frame[1:], payload)
	return frame
}

// DecodeFrame splits a binary frame into its type and payload.
// The payload aliases frame.
func DecodeFrame(frame []byte) (FrameType, []byte, error) {
	if len(frame) < 1 {
		return 0, nil, ErrShortFrame
	}
	return FrameType(frame[0]), frame[1:], nil
}
