// ABOUTME: Chunk container for ~100ms of encoded voice
// ABOUTME: Packs codec frames into one opaque payload and unpacks them again
package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
	"github.com/Resonate-Protocol/voice-relay/pkg/audio/decode"
	"github.com/Resonate-Protocol/voice-relay/pkg/audio/encode"
)

// ErrMalformed is returned for payloads that are not a valid frame sequence.
var ErrMalformed = errors.New("malformed chunk")

// Pack joins encoded frames as [len:uint16 BE][frame] records.
func Pack(frames [][]byte) ([]byte, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrMalformed)
	}

	size := 0
	for _, f := range frames {
		if len(f) == 0 || len(f) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: frame length %d", ErrMalformed, len(f))
		}
		size += 2 + len(f)
	}

	out := make([]byte, 0, size)
	for _, f := range frames {
		out = binary.BigEndian.AppendUint16(out, uint16(len(f)))
		out = append(out, f...)
	}
	return out, nil
}

// Unpack splits a payload produced by Pack. The returned frames alias payload.
func Unpack(payload []byte) ([][]byte, error) {
	var frames [][]byte
	for off := 0; off < len(payload); {
		if len(payload)-off < 2 {
			return nil, fmt.Errorf("%w: truncated length at offset %d", ErrMalformed, off)
		}
		n := int(binary.BigEndian.Uint16(payload[off:]))
		off += 2
		if n == 0 {
			return nil, fmt.Errorf("%w: empty frame at offset %d", ErrMalformed, off-2)
		}
		if len(payload)-off < n {
			return nil, fmt.Errorf("%w: frame of %d bytes exceeds payload", ErrMalformed, n)
		}
		frames = append(frames, payload[off:off+n])
		off += n
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrMalformed)
	}
	return frames, nil
}

// Encoder turns captured PCM into chunk payloads.
type Encoder struct {
	enc encode.Encoder
}

// NewEncoder creates a chunk encoder for format.
func NewEncoder(format audio.Format) (*Encoder, error) {
	enc, err := encode.New(format)
	if err != nil {
		return nil, err
	}
	return &Encoder{enc: enc}, nil
}

// FrameSamples is the granularity Encode accepts.
func (e *Encoder) FrameSamples() int {
	return e.enc.FrameSamples()
}

// Encode encodes samples, a whole multiple of FrameSamples, into one chunk.
func (e *Encoder) Encode(samples []int16) ([]byte, error) {
	step := e.enc.FrameSamples()
	if len(samples) == 0 || len(samples)%step != 0 {
		return nil, fmt.Errorf("chunk must be a multiple of %d samples, got %d", step, len(samples))
	}

	frames := make([][]byte, 0, len(samples)/step)
	for off := 0; off < len(samples); off += step {
		f, err := e.enc.Encode(samples[off : off+step])
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return Pack(frames)
}

// Close releases the frame encoder.
func (e *Encoder) Close() error {
	return e.enc.Close()
}

// Decoder turns chunk payloads back into PCM.
type Decoder struct {
	dec decode.Decoder
}

// NewDecoder creates a chunk decoder for format.
func NewDecoder(format audio.Format) (*Decoder, error) {
	dec, err := decode.New(format)
	if err != nil {
		return nil, err
	}
	return &Decoder{dec: dec}, nil
}

// Decode decodes every frame of payload. Any bad frame fails the whole chunk.
func (d *Decoder) Decode(payload []byte) ([]int16, error) {
	frames, err := Unpack(payload)
	if err != nil {
		return nil, err
	}

	var samples []int16
	for i, f := range frames {
		s, err := d.dec.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		samples = append(samples, s...)
	}
	return samples, nil
}

// Close releases the frame decoder.
func (d *Decoder) Close() error {
	return d.dec.Close()
}
