// ABOUTME: Tests for Opus encoder
// ABOUTME: Tests encoder creation, frame sizing, and packet output
package encode

import (
	"testing"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
)

func TestNewOpus(t *testing.T) {
	encoder, err := NewOpus(audio.DefaultFormat())
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	// 20ms at 48kHz mono
	if got := encoder.FrameSamples(); got != 960 {
		t.Errorf("expected 960 samples per frame, got %d", got)
	}
}

func TestNewOpus_InvalidCodec(t *testing.T) {
	encoder, err := NewOpus(audio.Format{Codec: audio.CodecPCM, SampleRate: 48000, Channels: 1})
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}
	if encoder != nil {
		t.Fatal("expected encoder to be nil for invalid codec")
	}

	expected := "invalid codec for Opus encoder: pcm"
	if err.Error() != expected {
		t.Errorf("expected error %q, got %q", expected, err.Error())
	}
}

func TestNewOpus_InvalidSampleRate(t *testing.T) {
	// Opus only supports 8, 12, 16, 24, 48 kHz
	_, err := NewOpus(audio.Format{Codec: audio.CodecOpus, SampleRate: 44100, Channels: 1})
	if err == nil {
		t.Fatal("expected error for invalid sample rate 44100")
	}
}

func TestOpusEncoder_Encode(t *testing.T) {
	encoder, err := NewOpus(audio.DefaultFormat())
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	samples := make([]int16, encoder.FrameSamples())
	for i := range samples {
		samples[i] = int16((i % 100) * 300)
	}

	output, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	if len(output) == 0 {
		t.Errorf("Encode() returned empty output")
	}
	if len(output) > maxOpusPacket {
		t.Errorf("Encode() output size %d exceeds max Opus packet size %d", len(output), maxOpusPacket)
	}
}

func TestOpusEncoder_WrongFrameSize(t *testing.T) {
	encoder, err := NewOpus(audio.DefaultFormat())
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}

	if _, err := encoder.Encode(make([]int16, 100)); err == nil {
		t.Error("expected error for short frame")
	}
}
