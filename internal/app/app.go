// ABOUTME: Voice client application orchestration
// ABOUTME: Coordinates transport, capture, playback, and the TUI
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Resonate-Protocol/voice-relay/internal/capture"
	"github.com/Resonate-Protocol/voice-relay/internal/client"
	"github.com/Resonate-Protocol/voice-relay/internal/discovery"
	"github.com/Resonate-Protocol/voice-relay/internal/metrics"
	"github.com/Resonate-Protocol/voice-relay/internal/playback"
	"github.com/Resonate-Protocol/voice-relay/internal/ui"
	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
	"github.com/Resonate-Protocol/voice-relay/pkg/audio/chunk"
	"github.com/Resonate-Protocol/voice-relay/pkg/audio/input"
	"github.com/Resonate-Protocol/voice-relay/pkg/audio/output"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	discoveryTimeout = 10 * time.Second
	statsInterval    = 500 * time.Millisecond
)

// Config holds client configuration
type Config struct {
	ServerAddr  string // host:port; empty means browse mDNS
	Name        string
	Format      audio.Format
	Talk        bool   // start talking as soon as the relay is reachable
	UseTUI      bool
	MetricsAddr string // empty disables the metrics listener
}

// Capture is the microphone side of the app
type Capture interface {
	Start() error
	Stop() error
	Active() bool
	Stats() capture.Stats
}

// Playback is the speaker side of the app
type Playback interface {
	Enqueue(chunk []byte)
	State() playback.State
	Stats() playback.SchedulerStats
}

// Volume adjusts the render path
type Volume interface {
	SetVolume(volume int)
	SetMuted(muted bool)
}

// App reacts to transport events, user controls and inbound chunks
type App struct {
	serverAddr string
	codec      string

	capture  Capture
	playback Playback
	volume   Volume
	controls *ui.Controls
	status   func(ui.StatusMsg)

	connected bool
	// wantCapture is the user's talk switch; capture only runs while connected
	wantCapture bool
}

// New creates an app around already constructed components. status and
// controls may be nil.
func New(serverAddr, codec string, c Capture, p Playback, v Volume, controls *ui.Controls, status func(ui.StatusMsg)) *App {
	if status == nil {
		status = func(ui.StatusMsg) {}
	}
	return &App{
		serverAddr: serverAddr,
		codec:      codec,
		capture:    c,
		playback:   p,
		volume:     v,
		controls:   controls,
		status:     status,
	}
}

// Run resolves the relay, builds every component and runs until ctx ends
// or the user quits
func Run(ctx context.Context, config Config) error {
	if err := config.Format.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tui *ui.TUI
	var controls *ui.Controls
	if config.UseTUI {
		controls = ui.NewControls()
		tui = ui.NewTUI(controls)
		go func() {
			if err := tui.Start(); err != nil {
				log.Error().Err(err).Str("module", "app").Msg("TUI error")
			}
			cancel()
		}()
		defer tui.Stop()
	}
	status := func(msg ui.StatusMsg) {
		if tui != nil {
			tui.Update(msg)
		}
	}

	serverAddr, path, err := resolveServer(ctx, config)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewPlayback(reg)
	if config.MetricsAddr != "" {
		go serveMetrics(ctx, config.MetricsAddr, reg)
	}

	out := output.NewOto()
	if err := out.Open(config.Format.SampleRate, config.Format.Channels); err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	defer out.Close()

	dec, err := chunk.NewDecoder(config.Format)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	defer dec.Close()

	transport := client.NewClient(client.Config{ServerAddr: serverAddr, Path: path})
	pipeline := capture.New(input.NewMalgo(), transport, capture.Config{
		Format:  config.Format,
		Monitor: true,
	})
	defer pipeline.Stop()

	scheduler := playback.NewScheduler(dec, out, m)
	defer scheduler.Close()

	a := New(serverAddr, config.Format.Codec, pipeline, scheduler, out, controls, status)
	if config.Talk {
		on := true
		a.wantCapture = on
		status(ui.StatusMsg{Talk: &on})
	}

	go func() {
		if err := transport.Run(ctx); err != nil {
			log.Error().Err(err).Str("module", "app").Msg("transport stopped")
		}
	}()

	log.Info().Str("module", "app").Str("server", serverAddr).Str("codec", config.Format.Codec).
		Msg("voice client running")
	a.loop(ctx, transport.Events, transport.Chunks)
	return nil
}

func resolveServer(ctx context.Context, config Config) (string, string, error) {
	if config.ServerAddr != "" {
		return config.ServerAddr, "", nil
	}

	log.Info().Str("module", "app").Msg("starting relay discovery")
	disc := discovery.NewManager(discovery.Config{ServiceName: config.Name})
	disc.Browse()
	defer disc.Stop()

	select {
	case server := <-disc.Servers():
		return server.Addr(), server.Path, nil
	case <-time.After(discoveryTimeout):
		return "", "", fmt.Errorf("no relay found after %v", discoveryTimeout)
	case <-ctx.Done():
		return "", "", ctx.Err()
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info().Str("module", "app").Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Str("module", "app").Msg("metrics listener failed")
	}
}

// loop is the single goroutine that owns the app state
func (a *App) loop(ctx context.Context, events <-chan client.Event, chunks <-chan []byte) {
	var talk <-chan bool
	var volumes <-chan ui.VolumeMsg
	var quit <-chan struct{}
	if a.controls != nil {
		talk, volumes, quit = a.controls.Talk, a.controls.Volume, a.controls.Quit
	}

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			a.handleEvent(ev)
		case c := <-chunks:
			a.playback.Enqueue(c)
		case on := <-talk:
			a.setTalk(on)
		case v := <-volumes:
			a.setVolume(v)
		case <-ticker.C:
			a.pushStats()
		case <-quit:
			log.Info().Str("module", "app").Msg("quit requested")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) handleEvent(ev client.Event) {
	log.Info().Str("module", "app").Stringer("event", ev.Kind).Msg("transport event")

	switch ev.Kind {
	case client.EventConnected:
		a.connected = true
		connected := true
		a.status(ui.StatusMsg{
			Connected:    &connected,
			ServerName:   a.serverAddr,
			ConnectionID: ev.ConnectionID,
		})
		if a.wantCapture {
			a.startCapture()
		}

	case client.EventDisconnected:
		a.connected = false
		disconnected := false
		msg := ui.StatusMsg{Connected: &disconnected}
		if ev.Err != nil {
			msg.Error = ev.Err.Error()
		}
		a.status(msg)
		// suspended, not cancelled; the queue keeps draining
		a.stopCapture()

	case client.EventConnectionError:
		if ev.Err != nil {
			a.status(ui.StatusMsg{Error: ev.Err.Error()})
		}
	}
}

// setTalk sets the talk switch; capture follows it while connected
func (a *App) setTalk(on bool) {
	if on == a.wantCapture {
		return
	}
	a.wantCapture = on
	a.status(ui.StatusMsg{Talk: &on})
	if !on {
		a.stopCapture()
		return
	}
	if a.connected {
		a.startCapture()
	}
}

func (a *App) startCapture() {
	if err := a.capture.Start(); err != nil {
		log.Error().Err(err).Str("module", "app").Msg("failed to start capture")
		a.wantCapture = false
		off := false
		msg := ui.StatusMsg{Talk: &off, MicError: err.Error()}
		if errors.Is(err, capture.ErrCaptureUnavailable) {
			msg.MicError = "Microphone access denied or unavailable"
		}
		a.status(msg)
		return
	}
	capturing := true
	a.status(ui.StatusMsg{Capturing: &capturing, Codec: a.codec})
}

func (a *App) stopCapture() {
	if !a.capture.Active() {
		return
	}
	if err := a.capture.Stop(); err != nil {
		log.Warn().Err(err).Str("module", "app").Msg("error stopping capture")
	}
	capturing := false
	a.status(ui.StatusMsg{Capturing: &capturing})
}

func (a *App) setVolume(v ui.VolumeMsg) {
	log.Debug().Str("module", "app").Int("volume", v.Volume).Bool("muted", v.Muted).Msg("volume change")
	a.volume.SetVolume(v.Volume)
	a.volume.SetMuted(v.Muted)
}

func (a *App) pushStats() {
	cs := a.capture.Stats()
	ps := a.playback.Stats()
	a.status(ui.StatusMsg{
		PlaybackState: a.playback.State().String(),
		Stats: &ui.Stats{
			Sent:           cs.ChunksSent,
			Dropped:        cs.ChunksDropped,
			Received:       ps.Received,
			Played:         ps.Played,
			DecodeFailures: ps.DecodeFailures,
			Queued:         ps.Queued,
		},
	})
}
