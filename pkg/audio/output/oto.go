// ABOUTME: Oto-based audio output implementation
// ABOUTME: Renders one chunk per player with software volume control
package output

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog/log"
)

// pollInterval is how often a playing chunk is checked for completion
const pollInterval = 5 * time.Millisecond

// Oto output implementation using oto library
type Oto struct {
	otoCtx     *oto.Context
	sampleRate int
	channels   int

	mu     sync.RWMutex
	volume int
	muted  bool
	ready  bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{
		volume: 100,
	}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// oto only allows one context per process
	if o.otoCtx != nil {
		if o.sampleRate != sampleRate || o.channels != channels {
			log.Warn().Str("module", "output").
				Msgf("format change %dHz/%dch -> %dHz/%dch ignored, oto cannot reinitialize",
					o.sampleRate, o.channels, sampleRate, channels)
		}
		o.ready = true
		return o.otoCtx.Resume()
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels
	o.ready = true

	log.Info().Str("module", "output").Int("sample_rate", sampleRate).Int("channels", channels).
		Msg("audio output initialized")

	return nil
}

// Render plays samples on a fresh player and waits for it to drain
func (o *Oto) Render(ctx context.Context, samples []int16) error {
	o.mu.RLock()
	if !o.ready {
		o.mu.RUnlock()
		return fmt.Errorf("output not initialized")
	}
	otoCtx := o.otoCtx
	multiplier := volumeMultiplier(o.volume, o.muted)
	o.mu.RUnlock()

	data := audio.SamplesToBytes(applyVolume(samples, multiplier))
	player := otoCtx.NewPlayer(bytes.NewReader(data))
	defer player.Close()

	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if err := player.Err(); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}

// Close suspends the device; the oto context itself lives for the process
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx != nil && o.ready {
		o.ready = false
		return o.otoCtx.Suspend()
	}
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	volume = max(0, min(volume, 100))

	o.mu.Lock()
	o.volume = volume
	o.mu.Unlock()

	log.Info().Str("module", "output").Int("volume", volume).Msg("volume set")
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
}

// Volume returns current volume
func (o *Oto) Volume() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.volume
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.muted
}

// applyVolume scales samples with clipping protection
func applyVolume(samples []int16, multiplier float64) []int16 {
	if multiplier == 1.0 {
		return samples
	}

	result := make([]int16, len(samples))
	for i, sample := range samples {
		scaled := float64(sample) * multiplier
		if scaled > math.MaxInt16 {
			scaled = math.MaxInt16
		} else if scaled < math.MinInt16 {
			scaled = math.MinInt16
		}
		result[i] = int16(scaled)
	}
	return result
}

// volumeMultiplier calculates volume multiplier
func volumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
