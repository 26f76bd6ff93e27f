// ABOUTME: Tests for Opus decoder
// ABOUTME: Tests Opus decoder creation, round trip, and garbage input
package decode

import (
	"testing"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
	"github.com/Resonate-Protocol/voice-relay/pkg/audio/encode"
)

func TestNewOpus(t *testing.T) {
	decoder, err := NewOpus(audio.DefaultFormat())
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestNewOpus_InvalidCodec(t *testing.T) {
	decoder, err := NewOpus(audio.Format{Codec: audio.CodecPCM, SampleRate: 48000, Channels: 1})
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for Opus decoder: pcm"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestOpusDecode_RoundTrip(t *testing.T) {
	format := audio.DefaultFormat()

	enc, err := encode.NewOpus(format)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	dec, err := NewOpus(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	packet, err := enc.Encode(make([]int16, enc.FrameSamples()))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	samples, err := dec.Decode(packet)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(samples) != enc.FrameSamples() {
		t.Errorf("expected %d samples, got %d", enc.FrameSamples(), len(samples))
	}
}

func TestOpusDecode_Empty(t *testing.T) {
	dec, err := NewOpus(audio.DefaultFormat())
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if _, err := dec.Decode(nil); err == nil {
		t.Error("expected error for empty packet")
	}
}
