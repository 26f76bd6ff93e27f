// ABOUTME: Relay hub tracking active connections
// ABOUTME: Fans every received chunk out to all connections except its sender
package relay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/voice-relay/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ErrForwardFailure wraps a failed delivery to a single recipient
var ErrForwardFailure = errors.New("forward failed")

// ConnID identifies a transport session
type ConnID string

// Peer is one active connection as seen by the hub
type Peer interface {
	ID() ConnID

	// Send queues a frame for delivery and must not block
	Send(frame []byte) error
}

// Hub owns the active-connection set. It never looks inside a chunk.
type Hub struct {
	mu    sync.RWMutex
	peers map[ConnID]Peer

	metrics *metrics.Relay
}

// NewHub creates an empty hub. m may be nil.
func NewHub(m *metrics.Relay) *Hub {
	return &Hub{
		peers:   make(map[ConnID]Peer),
		metrics: m,
	}
}

// Connected adds a peer to the active set
func (h *Hub) Connected(p Peer) {
	h.mu.Lock()
	h.peers[p.ID()] = p
	n := len(h.peers)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.Connections.Inc()
		h.metrics.ActiveConnections.Set(float64(n))
	}
	log.Info().Str("module", "relay").Str("conn_id", string(p.ID())).Int("peers", n).Msg("connected")
}

// Disconnected removes id from the active set. Frames already handed to
// other peers are unaffected.
func (h *Hub) Disconnected(id ConnID) {
	h.mu.Lock()
	_, ok := h.peers[id]
	delete(h.peers, id)
	n := len(h.peers)
	h.mu.Unlock()

	if !ok {
		return
	}
	if h.metrics != nil {
		h.metrics.ActiveConnections.Set(float64(n))
	}
	log.Info().Str("module", "relay").Str("conn_id", string(id)).Int("peers", n).Msg("disconnected")
}

// ChunkReceived forwards frame unchanged to every active peer except from.
// A failing recipient is logged and skipped. Returns the number of peers the
// frame was queued to.
func (h *Hub) ChunkReceived(from ConnID, frame []byte) int {
	recipients := h.others(from)

	if h.metrics != nil {
		h.metrics.ChunksReceived.Inc()
		h.metrics.ChunkBytes.Observe(float64(len(frame)))
	}

	delivered := 0
	for _, p := range recipients {
		if err := h.forward(p, frame); err != nil {
			log.Warn().Err(err).Str("module", "relay").Str("from", string(from)).
				Str("conn_id", string(p.ID())).Msg("forward failure")
			continue
		}
		delivered++
	}

	log.Debug().Str("module", "relay").Str("from", string(from)).Int("size", len(frame)).
		Int("delivered", delivered).Msg("chunk relayed")
	return delivered
}

func (h *Hub) forward(p Peer, frame []byte) error {
	if err := p.Send(frame); err != nil {
		if h.metrics != nil {
			h.metrics.ForwardFailures.Inc()
		}
		return fmt.Errorf("%w: %v", ErrForwardFailure, err)
	}
	if h.metrics != nil {
		h.metrics.Forwards.Inc()
	}
	return nil
}

// others snapshots the active set minus one peer
func (h *Hub) others(exclude ConnID) []Peer {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Peer, 0, len(h.peers))
	for id, p := range h.peers {
		if id != exclude {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the number of active connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}
