// ABOUTME: Malgo-based microphone input using miniaudio
// ABOUTME: Captures S16 samples and optionally loops them to the speakers
package input

import (
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog/log"
)

// Malgo input implementation using malgo/miniaudio library
type Malgo struct{}

// NewMalgo creates a new Malgo input
func NewMalgo() *Malgo {
	return &Malgo{}
}

// malgoStream owns one context and one device for the lifetime of a session
type malgoStream struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	once   sync.Once
}

// Open initializes a capture (or duplex, when monitoring) device and starts it
func (m *Malgo) Open(format audio.Format, onSamples SampleFunc, monitor bool) (Stream, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceType := malgo.Capture
	if monitor {
		deviceType = malgo.Duplex
	}

	deviceConfig := malgo.DefaultDeviceConfig(deviceType)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(format.Channels)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	onData := func(pOutput, pInput []byte, frameCount uint32) {
		if monitor {
			copy(pOutput, pInput)
		}
		onSamples(audio.BytesToSamples(pInput))
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		freeContext(ctx)
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		freeContext(ctx)
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	log.Info().Str("module", "input").Int("sample_rate", format.SampleRate).
		Int("channels", format.Channels).Bool("monitor", monitor).Msg("microphone opened")

	return &malgoStream{ctx: ctx, device: device}, nil
}

// Close stops the device and frees the context; safe to call twice
func (s *malgoStream) Close() error {
	var err error
	s.once.Do(func() {
		if stopErr := s.device.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop capture device: %w", stopErr)
		}
		s.device.Uninit()
		freeContext(s.ctx)
		log.Info().Str("module", "input").Msg("microphone released")
	})
	return err
}

func freeContext(ctx *malgo.AllocatedContext) {
	if err := ctx.Uninit(); err != nil {
		log.Warn().Err(err).Str("module", "input").Msg("malgo context uninit error")
	}
	ctx.Free()
}
