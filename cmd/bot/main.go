package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/anytime/bot"
	"github.com/domino14/anytime/config"
)

const (
	GracefulShutdownTimeout = 20 * time.Second
)

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.AdjustRelativePaths(exPath)

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Info().Interface("settings", cfg.SanitizedSettings()).Str("exPath", exPath).Msg("loaded-config")

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		// We received an interrupt signal, shut down.
		log.Info().Msg("got quit signal...")
		cancel()
	}()

	b := bot.NewBot(cfg)
	done := make(chan error, 1)
	go func() {
		done <- bot.Main(ctx, cfg.GetString(config.ConfigBotChannel), b)
	}()

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("bot-exited")
		}
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(GracefulShutdownTimeout):
			log.Warn().Msg("timed out waiting for in-flight requests")
		}
	}
	log.Info().Msg("server gracefully shutting down")
}
