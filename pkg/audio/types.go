// ABOUTME: Audio type definitions shared by capture and playback
// ABOUTME: Describes the stream format and converts between PCM bytes and samples
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const (
	CodecOpus = "opus"
	CodecPCM  = "pcm"

	// ChunkDuration is the capture cadence: one chunk per slice.
	ChunkDuration = 100 * time.Millisecond
)

// Format describes the PCM stream on both ends of a chunk.
// Samples are interleaved signed 16-bit.
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
}

// DefaultFormat is mono 48kHz Opus, the codec the browser client used.
func DefaultFormat() Format {
	return Format{
		Codec:      CodecOpus,
		SampleRate: 48000,
		Channels:   1,
	}
}

// Validate checks codec and layout.
func (f Format) Validate() error {
	if f.Codec != CodecOpus && f.Codec != CodecPCM {
		return fmt.Errorf("unsupported codec: %s", f.Codec)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("unsupported channel count: %d (supported: 1, 2)", f.Channels)
	}
	// a PCM chunk is a single container frame with a uint16 length
	if f.Codec == CodecPCM {
		if n := f.SamplesFor(ChunkDuration) * 2; n > math.MaxUint16 {
			return fmt.Errorf("pcm chunk of %d bytes at %d Hz x%d exceeds %d", n, f.SampleRate, f.Channels, math.MaxUint16)
		}
	}
	return nil
}

// SamplesFor returns the number of interleaved samples covering d.
func (f Format) SamplesFor(d time.Duration) int {
	return int(int64(f.SampleRate)*int64(d)/int64(time.Second)) * f.Channels
}

// DurationOf returns how long n interleaved samples play for.
func (f Format) DurationOf(n int) time.Duration {
	if f.SampleRate == 0 || f.Channels == 0 {
		return 0
	}
	frames := n / f.Channels
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// BytesToSamples converts little-endian S16 bytes to samples.
// A trailing odd byte is ignored.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// SamplesToBytes converts samples to little-endian S16 bytes.
func SamplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
