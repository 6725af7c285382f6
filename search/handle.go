package search

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/anytime/game"
)

// Handle is a searcher running in its own goroutine.
type Handle struct {
	reg    *Register
	engine Engine
	cancel context.CancelFunc
	g      *errgroup.Group
	done   chan struct{}
}

// Start launches engine on root in the background. The search stops when
// Cancel is called, when ctx is done, or when it is exhausted.
func Start(ctx context.Context, engine Engine, root game.State, player game.PlayerID) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	h := &Handle{
		reg:    NewRegister(),
		engine: engine,
		cancel: cancel,
		g:      g,
		done:   make(chan struct{}),
	}
	g.Go(func() error {
		defer close(h.done)
		err := engine.Search(gctx, root, player, h.reg)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		if err != nil {
			log.Debug().Err(err).Msg("search-ended-with-error")
		}
		return err
	})
	return h
}

// Cancel asks the search to stop. It does not wait.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed once the search goroutine has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the search goroutine has returned and reports its
// error.
func (h *Handle) Wait() error {
	defer h.cancel()
	return h.g.Wait()
}

// BestMove reads the register without blocking.
func (h *Handle) BestMove() (game.Move, bool) {
	return h.reg.Load()
}

func (h *Handle) Diagnostics() Snapshot {
	return h.engine.Diagnostics().Snapshot()
}
