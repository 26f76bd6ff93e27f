// ABOUTME: Microphone capture pipeline
// ABOUTME: Turns live microphone audio into ~100ms chunks handed to a sink
package capture

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
	"github.com/Resonate-Protocol/voice-relay/pkg/audio/chunk"
	"github.com/Resonate-Protocol/voice-relay/pkg/audio/input"
	"github.com/rs/zerolog/log"
)

// ErrCaptureUnavailable means the microphone could not be opened
var ErrCaptureUnavailable = errors.New("microphone unavailable")

// ringSeconds of audio the ring buffer holds before dropping samples
const ringSeconds = 2

// Sink receives finished chunks
type Sink interface {
	Send(chunk []byte) error
}

// ChunkEncoder encodes whole codec frames into one chunk payload
type ChunkEncoder interface {
	FrameSamples() int
	Encode(samples []int16) ([]byte, error)
	Close() error
}

// EncoderFactory creates a ChunkEncoder for a session
type EncoderFactory func(format audio.Format) (ChunkEncoder, error)

// Config holds pipeline configuration
type Config struct {
	Format  audio.Format
	Monitor bool // play the microphone back locally

	// Interval defaults to audio.ChunkDuration
	Interval time.Duration

	// NewEncoder defaults to the chunk container encoder
	NewEncoder EncoderFactory
}

// Stats are pipeline counters across sessions
type Stats struct {
	ChunksSent    int64
	ChunksDropped int64
	EncodeErrors  int64
}

// Pipeline owns at most one capture session at a time
type Pipeline struct {
	input  input.Input
	sink   Sink
	config Config

	mu      sync.Mutex
	session *session

	sent    atomic.Int64
	dropped atomic.Int64
	encErrs atomic.Int64
}

// session binds one open stream, one encoder and one ring buffer
type session struct {
	stream input.Stream
	enc    ChunkEncoder
	ring   *RingBuffer

	// checked before every emission
	stopped atomic.Bool

	stop chan struct{}
	done chan struct{}
}

// New creates an idle pipeline
func New(in input.Input, sink Sink, config Config) *Pipeline {
	if config.Interval <= 0 {
		config.Interval = audio.ChunkDuration
	}
	if config.NewEncoder == nil {
		config.NewEncoder = func(f audio.Format) (ChunkEncoder, error) {
			return chunk.NewEncoder(f)
		}
	}
	return &Pipeline{
		input:  in,
		sink:   sink,
		config: config,
	}
}

// Start opens the microphone and begins emitting chunks. Calling Start on
// an active pipeline does nothing.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		return nil
	}

	enc, err := p.config.NewEncoder(p.config.Format)
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}

	s := &session{
		enc:  enc,
		ring: NewRingBuffer(p.config.Format.SamplesFor(ringSeconds * time.Second)),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	stream, err := p.input.Open(p.config.Format, s.onSamples, p.config.Monitor)
	if err != nil {
		_ = enc.Close()
		return fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	s.stream = stream

	p.session = s
	go p.run(s)

	log.Info().Str("module", "capture").Str("codec", p.config.Format.Codec).Msg("capture started")
	return nil
}

// Stop ends the session. A chunk not yet being emitted is discarded.
// Calling Stop on an idle pipeline does nothing.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	s := p.session
	p.session = nil
	if s != nil {
		s.stopped.Store(true)
	}
	p.mu.Unlock()

	if s == nil {
		return nil
	}

	// a Send already in progress finishes before done closes
	close(s.stop)
	<-s.done

	var errs []error
	if err := s.stream.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.enc.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close encoder: %w", err))
	}

	log.Info().Str("module", "capture").Msg("capture stopped")
	return errors.Join(errs...)
}

// Active reports whether a session is open
func (p *Pipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil
}

// Stats returns a snapshot of the pipeline counters
func (p *Pipeline) Stats() Stats {
	return Stats{
		ChunksSent:    p.sent.Load(),
		ChunksDropped: p.dropped.Load(),
		EncodeErrors:  p.encErrs.Load(),
	}
}

func (s *session) onSamples(samples []int16) {
	if n := s.ring.Write(samples); n < len(samples) {
		log.Debug().Str("module", "capture").Int("dropped", len(samples)-n).Msg("ring buffer overflow")
	}
}

func (p *Pipeline) run(s *session) {
	defer close(s.done)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			p.emit(s)
		}
	}
}

// emit encodes whatever whole frames are buffered and sends them as one chunk
func (p *Pipeline) emit(s *session) {
	if s.stopped.Load() {
		return
	}

	samples := s.ring.ReadMultiple(s.enc.FrameSamples())
	if samples == nil {
		return
	}

	payload, err := s.enc.Encode(samples)
	if err != nil {
		p.encErrs.Add(1)
		log.Warn().Err(err).Str("module", "capture").Msg("encode failed")
		return
	}

	// produced after Stop was called
	if s.stopped.Load() {
		return
	}

	if err := p.sink.Send(payload); err != nil {
		p.dropped.Add(1)
		log.Debug().Err(err).Str("module", "capture").Int("size", len(payload)).Msg("chunk dropped")
		return
	}
	p.sent.Add(1)
}
