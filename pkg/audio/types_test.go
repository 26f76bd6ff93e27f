// ABOUTME: Tests for audio types
// ABOUTME: Tests format validation, sizing, and sample conversion
package audio

import (
	"testing"
	"time"
)

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"default", DefaultFormat(), false},
		{"pcm stereo", Format{Codec: CodecPCM, SampleRate: 44100, Channels: 2}, false},
		{"unknown codec", Format{Codec: "flac", SampleRate: 48000, Channels: 1}, true},
		{"zero rate", Format{Codec: CodecPCM, SampleRate: 0, Channels: 1}, true},
		{"pcm 96k stereo", Format{Codec: CodecPCM, SampleRate: 96000, Channels: 2}, false},
		{"pcm chunk too large", Format{Codec: CodecPCM, SampleRate: 192000, Channels: 2}, true},
		{"surround", Format{Codec: CodecOpus, SampleRate: 48000, Channels: 6}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSamplesFor(t *testing.T) {
	f := Format{Codec: CodecOpus, SampleRate: 48000, Channels: 2}

	if got := f.SamplesFor(ChunkDuration); got != 9600 {
		t.Errorf("expected 9600 samples per chunk, got %d", got)
	}
	if got := f.SamplesFor(20 * time.Millisecond); got != 1920 {
		t.Errorf("expected 1920 samples per 20ms, got %d", got)
	}
}

func TestDurationOf(t *testing.T) {
	f := Format{Codec: CodecPCM, SampleRate: 48000, Channels: 1}

	if got := f.DurationOf(4800); got != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %v", got)
	}
	if got := (Format{}).DurationOf(100); got != 0 {
		t.Errorf("expected 0 for empty format, got %v", got)
	}
}

func TestSampleBytesRoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768}
	out := BytesToSamples(SamplesToBytes(in))

	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: expected %d, got %d", i, in[i], out[i])
		}
	}
}

func TestBytesToSamplesOddLength(t *testing.T) {
	if got := BytesToSamples([]byte{1, 0, 7}); len(got) != 1 || got[0] != 1 {
		t.Errorf("expected [1], got %v", got)
	}
}
