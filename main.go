// ABOUTME: Entry point for the voice relay client
// ABOUTME: Parses CLI flags and starts the talk/listen application
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/voice-relay/internal/app"
	"github.com/Resonate-Protocol/voice-relay/internal/version"
	"github.com/Resonate-Protocol/voice-relay/pkg/audio"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	serverAddr  = flag.String("server", "", "Relay address host:port (default: discover via mDNS)")
	name        = flag.String("name", "", "Client friendly name (default: hostname-voice-client)")
	codec       = flag.String("codec", audio.CodecOpus, "Chunk codec: opus or pcm")
	sampleRate  = flag.Int("sample-rate", 48000, "Capture and playback sample rate")
	channels    = flag.Int("channels", 1, "Capture and playback channels (1 or 2)")
	talk        = flag.Bool("talk", false, "Start talking as soon as the relay is reachable")
	logFile     = flag.String("log-file", "voice-client.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	metricsAddr = flag.String("metrics-addr", "", "Serve playback metrics on this address")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent())
		return
	}

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if useTUI {
		// TUI mode: log only to file
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
	} else {
		// Streaming logs mode: log to both stderr and file
		console := zerolog.ConsoleWriter{Out: os.Stderr}
		log.Logger = zerolog.New(io.MultiWriter(console, f)).With().Timestamp().Logger()
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	clientName := *name
	if clientName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		clientName = fmt.Sprintf("%s-voice-client", hostname)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	config := app.Config{
		ServerAddr: *serverAddr,
		Name:       clientName,
		Format: audio.Format{
			Codec:      *codec,
			SampleRate: *sampleRate,
			Channels:   *channels,
		},
		Talk:        *talk,
		UseTUI:      useTUI,
		MetricsAddr: *metricsAddr,
	}

	log.Info().Str("name", clientName).Str("version", version.Version).Msg("starting voice client")
	if err := app.Run(ctx, config); err != nil {
		log.Error().Err(err).Msg("voice client failed")
		if useTUI {
			fmt.Fprintf(os.Stderr, "voice client failed: %v\n", err)
		}
		os.Exit(1)
	}
	log.Info().Msg("voice client stopped")
}
