package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/anytime/automatic"
	"github.com/domino14/anytime/config"
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

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := automatic.Options{LogFile: cfg.GetString(config.ConfigAutoplayLogfile)}
	if path := cfg.GetString(config.ConfigAutoplayDB); path != "" {
		store, err := automatic.OpenStore(ctx, path)
		if err != nil {
			log.Fatal().Err(err).Msg("open-store")
		}
		defer store.Close()
		opts.Store = store
	}

	tstart := time.Now()
	summary, err := automatic.PlayGames(ctx, cfg, opts)
	if err != nil {
		log.Error().Err(err).Msg("autoplay-failed")
	}
	if summary != nil {
		fmt.Println(summary.String())
	}
	if opts.Store != nil {
		standings, err := opts.Store.Standings(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("standings")
		}
		for _, s := range standings {
			label := s.Agent
			if s.Index < 0 {
				label = "draws"
			}
			fmt.Printf("stored %-24s seat %2d: %d\n", label, s.Index, s.Wins)
		}
	}
	log.Info().Dur("elapsed", time.Since(tstart)).Msg("autoplay-done")
}
