package automatic

import (
	"context"
	"encoding/csv"
	"errors"
	"expvar"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/anytime/config"
)

var (
	CVCCounter *expvar.Int
	IsPlaying  *expvar.Int
)

func init() {
	CVCCounter = expvar.NewInt("cvcCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

// Options are the knobs of a self-play run. Zero values are filled from
// the config.
type Options struct {
	Games   int
	Threads int
	LogFile string
	Store   *Store
}

func (o *Options) setDefaults(cfg *config.Config) {
	if o.Games <= 0 {
		o.Games = cfg.GetInt(config.ConfigAutoplayGames)
	}
	if o.Threads <= 0 {
		o.Threads = cfg.GetInt(config.ConfigAutoplayThreads)
	}
}

// PlayGames plays opts.Games games across opts.Threads workers and blocks
// until they are done or ctx is cancelled. Agents swap seats every game.
// The summary covers every game that finished.
func PlayGames(ctx context.Context, cfg *config.Config, opts Options) (*Summary, error) {
	opts.setDefaults(cfg)
	if IsPlaying.Value() > 0 {
		return nil, errors.New("games are already being played, please wait till complete")
	}

	var logChan chan []string
	var logfile *os.File
	if opts.LogFile != "" {
		var err error
		logfile, err = os.Create(opts.LogFile)
		if err != nil {
			return nil, err
		}
		logChan = make(chan []string, 100)
	}
	log.Debug().Int("games", opts.Games).Int("threads", opts.Threads).Msg("starting-autoplay")

	// Build every runner up front so configuration errors surface here.
	runners := make([]*GameRunner, opts.Threads)
	for i := range runners {
		r, err := NewGameRunner(logChan, cfg)
		if err != nil {
			if logfile != nil {
				logfile.Close()
			}
			return nil, err
		}
		runners[i] = r
	}

	CVCCounter.Set(0)
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int, 100)
	results := make(chan *GameResult, 100)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < opts.Games; i++ {
			select {
			case jobs <- i:
			case <-gctx.Done():
				log.Info().Msg("got stop signal, exiting soon...")
				return nil
			}
		}
		log.Debug().Msg("finished-queueing-jobs")
		return nil
	})

	var wg sync.WaitGroup
	for _, r := range runners {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			for i := range jobs {
				res, err := r.PlayGame(gctx, i%2 == 1)
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return nil
					}
					return err
				}
				if opts.Store != nil {
					if err := opts.Store.SaveGame(gctx, res); err != nil {
						return err
					}
				}
				CVCCounter.Add(1)
				results <- res
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
		if logChan != nil {
			close(logChan)
		}
	}()

	if logChan != nil {
		g.Go(func() error {
			defer logfile.Close()
			w := csv.NewWriter(logfile)
			werr := w.Write(TurnLogHeader)
			// keep draining after a write error so workers never block.
			for rec := range logChan {
				if werr == nil {
					werr = w.Write(rec)
				}
			}
			w.Flush()
			log.Debug().Msg("exiting-turn-logger")
			if werr != nil {
				return werr
			}
			return w.Error()
		})
	}

	summary := NewSummary(runners[0].agents)
	for res := range results {
		summary.Add(res)
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	log.Info().Int("games", summary.Games).Msg("all-games-finished")
	return summary, nil
}
