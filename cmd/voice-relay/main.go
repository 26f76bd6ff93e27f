// ABOUTME: Entry point for the voice relay server
// ABOUTME: Loads config and serves the websocket relay until signalled
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Resonate-Protocol/voice-relay/internal/config"
	"github.com/Resonate-Protocol/voice-relay/internal/server"
	"github.com/Resonate-Protocol/voice-relay/internal/version"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	configFile  = flag.String("config", "", "Path to a YAML config file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent())
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// config.Load logs, so set up the logger first
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Str("name", cfg.Name).Int("port", cfg.Port).Str("version", version.Version).
		Msg("starting voice relay")

	if err := server.New(cfg).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
