package relay_test

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Resonate-Protocol/voice-relay/internal/metrics"
	"github.com/Resonate-Protocol/voice-relay/internal/relay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockPeer struct {
	id  relay.ConnID
	err error

	mu       sync.Mutex
	received [][]byte
}

func (p *mockPeer) ID() relay.ConnID { return p.id }

func (p *mockPeer) Send(frame []byte) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = append(p.received, frame)
	return nil
}

func (p *mockPeer) frames() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.received...)
}

func newPeers(hub *relay.Hub, n int) []*mockPeer {
	peers := make([]*mockPeer, n)
	for i := range peers {
		peers[i] = &mockPeer{id: relay.ConnID(fmt.Sprintf("conn-%d", i))}
		hub.Connected(peers[i])
	}
	return peers
}

func TestHub_Connected(t *testing.T) {
	hub := relay.NewHub(nil)
	newPeers(hub, 3)

	if got := hub.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}

func TestHub_Disconnected(t *testing.T) {
	hub := relay.NewHub(nil)
	peers := newPeers(hub, 2)

	hub.Disconnected(peers[0].id)
	if got := hub.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}

	// unknown ids are ignored
	hub.Disconnected("missing")
	if got := hub.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestHub_FanOutExcludesSender(t *testing.T) {
	for n := 2; n <= 6; n++ {
		t.Run(fmt.Sprintf("%d peers", n), func(t *testing.T) {
			hub := relay.NewHub(nil)
			peers := newPeers(hub, n)

			frame := []byte{1, 0xaa, 0xbb}
			if got := hub.ChunkReceived(peers[0].id, frame); got != n-1 {
				t.Errorf("ChunkReceived() = %d, want %d", got, n-1)
			}

			if len(peers[0].frames()) != 0 {
				t.Error("sender received its own chunk")
			}
			for _, p := range peers[1:] {
				got := p.frames()
				if len(got) != 1 {
					t.Fatalf("%s received %d frames, want 1", p.id, len(got))
				}
				if !bytes.Equal(got[0], frame) {
					t.Errorf("%s received modified frame %v", p.id, got[0])
				}
			}
		})
	}
}

func TestHub_SinglePeerReceivesNothing(t *testing.T) {
	hub := relay.NewHub(nil)
	peers := newPeers(hub, 1)

	if got := hub.ChunkReceived(peers[0].id, []byte{1}); got != 0 {
		t.Errorf("ChunkReceived() = %d, want 0", got)
	}
}

func TestHub_OrderPreservedPerSender(t *testing.T) {
	hub := relay.NewHub(nil)
	peers := newPeers(hub, 3)

	for i := byte(1); i <= 3; i++ {
		hub.ChunkReceived(peers[0].id, []byte{1, i})
	}

	for _, p := range peers[1:] {
		got := p.frames()
		if len(got) != 3 {
			t.Fatalf("%s received %d frames, want 3", p.id, len(got))
		}
		for i, f := range got {
			if f[1] != byte(i+1) {
				t.Errorf("%s frame %d = c%d, want c%d", p.id, i, f[1], i+1)
			}
		}
	}
}

func TestHub_ForwardFailureIsolated(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewRelay(reg)
	hub := relay.NewHub(m)

	sender := &mockPeer{id: "sender"}
	broken := &mockPeer{id: "broken", err: errors.New("connection closed")}
	healthy := &mockPeer{id: "healthy"}
	hub.Connected(sender)
	hub.Connected(broken)
	hub.Connected(healthy)

	if got := hub.ChunkReceived(sender.id, []byte{1, 2}); got != 1 {
		t.Errorf("ChunkReceived() = %d, want 1", got)
	}
	if len(healthy.frames()) != 1 {
		t.Error("healthy peer did not receive the chunk")
	}
	if got := testutil.ToFloat64(m.ForwardFailures); got != 1 {
		t.Errorf("forward failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Forwards); got != 1 {
		t.Errorf("forwards = %v, want 1", got)
	}
}

func TestHub_DisconnectedPeerNoLongerReceives(t *testing.T) {
	hub := relay.NewHub(nil)
	peers := newPeers(hub, 3)

	hub.ChunkReceived(peers[0].id, []byte{1, 1})
	hub.Disconnected(peers[2].id)
	hub.ChunkReceived(peers[0].id, []byte{1, 2})

	if got := len(peers[1].frames()); got != 2 {
		t.Errorf("remaining peer received %d frames, want 2", got)
	}
	// the frame queued before disconnect stays delivered
	if got := len(peers[2].frames()); got != 1 {
		t.Errorf("disconnected peer received %d frames, want 1", got)
	}
}

func TestHub_MetricsTrackConnections(t *testing.T) {
	m := metrics.NewRelay(prometheus.NewRegistry())
	hub := relay.NewHub(m)
	peers := newPeers(hub, 2)
	hub.Disconnected(peers[1].id)

	if got := testutil.ToFloat64(m.ActiveConnections); got != 1 {
		t.Errorf("active connections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Connections); got != 2 {
		t.Errorf("connections = %v, want 2", got)
	}
}

func TestHub_ConcurrentSenders(t *testing.T) {
	hub := relay.NewHub(nil)
	peers := newPeers(hub, 4)

	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p *mockPeer) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				hub.ChunkReceived(p.id, []byte{1, byte(i)})
			}
		}(p)
	}
	wg.Wait()

	for _, p := range peers {
		if got := len(p.frames()); got != 150 {
			t.Errorf("%s received %d frames, want 150", p.id, got)
		}
	}
}
