// ABOUTME: Sequential playback scheduler for received chunks
// ABOUTME: Plays a FIFO queue one chunk at a time, skipping chunks that fail to decode
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/voice-relay/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ErrDecodeFailure marks a chunk that could not be turned into samples
var ErrDecodeFailure = errors.New("chunk decode failed")

// State of the scheduler
type State int

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

// Decoder turns one chunk payload into samples
type Decoder interface {
	Decode(chunk []byte) ([]int16, error)
}

// Renderer plays samples and returns once they have finished playing
type Renderer interface {
	Render(ctx context.Context, samples []int16) error
}

// SchedulerStats tracks scheduler metrics
type SchedulerStats struct {
	Received       int64
	Played         int64
	DecodeFailures int64
	RenderFailures int64
	Queued         int
}

// Scheduler plays chunks strictly in arrival order, never two at once.
// The loop goroutine exists only while the state is Playing.
type Scheduler struct {
	decoder  Decoder
	renderer Renderer
	metrics  *metrics.Playback

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queue  [][]byte
	state  State
	idle   chan struct{} // closed while Idle
	closed bool
	stats  SchedulerStats

	wg sync.WaitGroup
}

// NewScheduler creates an idle scheduler. m may be nil.
func NewScheduler(dec Decoder, r Renderer, m *metrics.Playback) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	idle := make(chan struct{})
	close(idle)

	return &Scheduler{
		decoder:  dec,
		renderer: r,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
		idle:     idle,
	}
}

// Enqueue appends a chunk and starts playback if nothing is playing
func (s *Scheduler) Enqueue(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.queue = append(s.queue, chunk)
	s.stats.Received++
	if s.metrics != nil {
		s.metrics.ChunksQueued.Inc()
		s.metrics.QueueDepth.Set(float64(len(s.queue)))
	}

	if s.state == Idle {
		s.state = Playing
		s.idle = make(chan struct{})
		s.wg.Add(1)
		go s.loop()
	}
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	for {
		chunk, ok := s.next()
		if !ok {
			return
		}
		s.play(chunk)
	}
}

// next pops the queue head, or moves to Idle when there is none
func (s *Scheduler) next() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 || s.closed {
		s.state = Idle
		close(s.idle)
		return nil, false
	}

	chunk := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	if s.metrics != nil {
		s.metrics.QueueDepth.Set(float64(len(s.queue)))
	}
	return chunk, true
}

func (s *Scheduler) play(chunk []byte) {
	samples, err := s.decoder.Decode(chunk)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrDecodeFailure, err)
		log.Warn().Err(err).Str("module", "playback").Int("size", len(chunk)).Msg("skipping chunk")
		s.count(func(st *SchedulerStats) { st.DecodeFailures++ })
		if s.metrics != nil {
			s.metrics.DecodeFailures.Inc()
		}
		return
	}

	if err := s.renderer.Render(s.ctx, samples); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Str("module", "playback").Msg("render failed")
		s.count(func(st *SchedulerStats) { st.RenderFailures++ })
		if s.metrics != nil {
			s.metrics.RenderFailures.Inc()
		}
		return
	}

	s.count(func(st *SchedulerStats) { st.Played++ })
	if s.metrics != nil {
		s.metrics.ChunksPlayed.Inc()
	}
}

func (s *Scheduler) count(f func(*SchedulerStats)) {
	s.mu.Lock()
	f(&s.stats)
	s.mu.Unlock()
}

// State returns the current state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// WaitIdle blocks until the queue has drained
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats
	st.Queued = len(s.queue)
	return st
}

// Close drops queued chunks, interrupts the current render and waits for
// the loop to exit. Later Enqueue calls are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
