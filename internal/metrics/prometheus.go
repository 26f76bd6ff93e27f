// ABOUTME: Prometheus metrics for the relay and the playback scheduler
// ABOUTME: Collectors are registered on a caller-supplied registry
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay contains the relay server metrics
type Relay struct {
	ActiveConnections prometheus.Gauge
	Connections       prometheus.Counter
	ChunksReceived    prometheus.Counter
	ChunkBytes        prometheus.Histogram
	Forwards          prometheus.Counter
	ForwardFailures   prometheus.Counter
	DroppedFrames     *prometheus.CounterVec
}

// NewRelay creates and registers the relay metrics on reg
func NewRelay(reg prometheus.Registerer) *Relay {
	f := promauto.With(reg)
	return &Relay{
		ActiveConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "voicerelay_active_connections",
			Help: "Current number of connections in the relay hub",
		}),
		Connections: f.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_connections_total",
			Help: "Total number of accepted connections",
		}),
		ChunksReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_chunks_received_total",
			Help: "Total number of audio chunks received from senders",
		}),
		ChunkBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicerelay_chunk_bytes",
			Help:    "Size of received audio chunks in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		}),
		Forwards: f.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_forwards_total",
			Help: "Total number of chunk deliveries queued to recipients",
		}),
		ForwardFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "voicerelay_forward_failures_total",
			Help: "Total number of chunk deliveries that failed for a recipient",
		}),
		DroppedFrames: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voicerelay_dropped_frames_total",
			Help: "Inbound frames ignored by the relay, by reason",
		}, []string{"reason"}),
	}
}

// Playback contains the client playback metrics
type Playback struct {
	ChunksQueued   prometheus.Counter
	ChunksPlayed   prometheus.Counter
	DecodeFailures prometheus.Counter
	RenderFailures prometheus.Counter
	QueueDepth     prometheus.Gauge
}

// NewPlayback creates and registers the playback metrics on reg
func NewPlayback(reg prometheus.Registerer) *Playback {
	f := promauto.With(reg)
	return &Playback{
		ChunksQueued: f.NewCounter(prometheus.CounterOpts{
			Name: "voiceclient_chunks_queued_total",
			Help: "Total number of chunks appended to the playback queue",
		}),
		ChunksPlayed: f.NewCounter(prometheus.CounterOpts{
			Name: "voiceclient_chunks_played_total",
			Help: "Total number of chunks rendered to completion",
		}),
		DecodeFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "voiceclient_decode_failures_total",
			Help: "Total number of chunks skipped because they could not be decoded",
		}),
		RenderFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "voiceclient_render_failures_total",
			Help: "Total number of chunks whose render returned an error",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "voiceclient_queue_depth",
			Help: "Chunks waiting in the playback queue",
		}),
	}
}
