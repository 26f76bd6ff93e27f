// ABOUTME: Opus audio encoder
// ABOUTME: Encodes 20ms int16 frames to Opus packets
package encode

import (
	"fmt"
	"time"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
	"github.com/rs/zerolog/log"
	"gopkg.in/hraban/opus.v2"
)

// OpusFrameDuration is the frame length the encoder is fed with.
const OpusFrameDuration = 20 * time.Millisecond

// maxOpusPacket bounds a single Opus packet
const maxOpusPacket = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder      *opus.Encoder
	sampleRate   int
	channels     int
	frameSamples int
}

// NewOpus creates a new Opus encoder tuned for speech
func NewOpus(format audio.Format) (Encoder, error) {
	if format.Codec != audio.CodecOpus {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	// 32 kbps per channel is plenty for voice
	if err := encoder.SetBitrate(32000 * format.Channels); err != nil {
		log.Warn().Err(err).Str("module", "encode").Msg("failed to set opus bitrate")
	}

	return &OpusEncoder{
		encoder:      encoder,
		sampleRate:   format.SampleRate,
		channels:     format.Channels,
		frameSamples: format.SamplesFor(OpusFrameDuration),
	}, nil
}

// Encode converts one 20ms frame to an Opus packet
func (e *OpusEncoder) Encode(samples []int16) ([]byte, error) {
	if len(samples) != e.frameSamples {
		return nil, fmt.Errorf("opus frame must be %d samples, got %d", e.frameSamples, len(samples))
	}

	data := make([]byte, maxOpusPacket)
	n, err := e.encoder.Encode(samples, data)
	if err != nil {
		return nil, fmt.Errorf("opus encode failed: %w", err)
	}

	return data[:n], nil
}

// FrameSamples returns the interleaved sample count of one 20ms frame
func (e *OpusEncoder) FrameSamples() int {
	return e.frameSamples
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}
