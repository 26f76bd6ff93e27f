// ABOUTME: Unit tests for PCM encoder
// ABOUTME: Tests PCM construction and byte layout
package encode

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid mono PCM",
			format:  audio.Format{Codec: audio.CodecPCM, SampleRate: 48000, Channels: 1},
			wantErr: false,
		},
		{
			name:        "invalid codec",
			format:      audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 1},
			wantErr:     true,
			errContains: "invalid codec",
		},
		{
			name:        "unsupported channels",
			format:      audio.Format{Codec: audio.CodecPCM, SampleRate: 48000, Channels: 4},
			wantErr:     true,
			errContains: "unsupported channel count",
		},
		{
			name:        "chunk exceeds frame length",
			format:      audio.Format{Codec: audio.CodecPCM, SampleRate: 192000, Channels: 2},
			wantErr:     true,
			errContains: "exceeds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewPCM(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewPCM() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewPCM() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPCM() unexpected error = %v", err)
			}
			if encoder == nil {
				t.Fatal("NewPCM() returned nil encoder")
			}
		})
	}
}

func TestPCMEncoder_FrameSpansChunk(t *testing.T) {
	encoder, err := NewPCM(audio.Format{Codec: audio.CodecPCM, SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}

	if got := encoder.FrameSamples(); got != 1600 {
		t.Errorf("expected 1600 samples per frame, got %d", got)
	}
}

func TestPCMEncoder_Encode(t *testing.T) {
	encoder, err := NewPCM(audio.Format{Codec: audio.CodecPCM, SampleRate: 48000, Channels: 1})
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}
	defer encoder.Close()

	samples := []int16{0, 1000, -1000, 32767}
	out, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	if len(out) != len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", len(samples)*2, len(out))
	}
	for i, want := range samples {
		got := int16(binary.LittleEndian.Uint16(out[i*2:]))
		if got != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestPCMEncoder_EncodeEmpty(t *testing.T) {
	encoder, _ := NewPCM(audio.Format{Codec: audio.CodecPCM, SampleRate: 48000, Channels: 1})

	if _, err := encoder.Encode(nil); err == nil {
		t.Error("expected error for empty frame")
	}
}

func TestNewUnsupportedCodec(t *testing.T) {
	if _, err := New(audio.Format{Codec: "mp3", SampleRate: 48000, Channels: 1}); err == nil {
		t.Error("expected error for mp3 codec")
	}
}
