// Package alphabeta implements an anytime, iteratively deepening
// alpha-beta searcher with evaluator-driven move ordering.
package alphabeta

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/anytime/evaluator"
	"github.com/domino14/anytime/game"
	"github.com/domino14/anytime/search"
)

const (
	// Infinity bounds every value the search can produce.
	Infinity = 1 << 30
	// A win with d plies of search depth left scores WinBase + WinPerPly*d,
	// so earlier wins and later losses are preferred.
	WinBase   = 100
	WinPerPly = 100

	DefaultMaxDepth = 5
)

// Solver searches depth 1, 2, ... up to its maximum depth, publishing each
// improvement of the root move as soon as it is found.
type Solver struct {
	eval     evaluator.Evaluator
	maxDepth int
	player   game.PlayerID
	diag     search.Diagnostics

	// root children, and the order they are searched in. order[0] is the
	// best child found so far.
	children []evaluator.Child
	order    []int

	lastValue int
	lastDepth int
	lastPV    search.PVLine
}

func NewSolver(e evaluator.Evaluator, maxDepth int) *Solver {
	s := &Solver{eval: e}
	s.SetMaxDepth(maxDepth)
	return s
}

func (s *Solver) SetMaxDepth(d int) {
	if d <= 0 {
		d = DefaultMaxDepth
	}
	s.maxDepth = d
}

func (s *Solver) SetEvaluator(e evaluator.Evaluator) {
	s.eval = e
}

func (s *Solver) MaxDepth() int {
	return s.maxDepth
}

func (s *Solver) Diagnostics() *search.Diagnostics {
	return &s.diag
}

// LastValue returns the root value of the deepest completed iteration and
// that depth. The depth is 0 if no iteration completed.
func (s *Solver) LastValue() (int, int) {
	return s.lastValue, s.lastDepth
}

// PV returns the principal variation of the deepest completed iteration.
func (s *Solver) PV() search.PVLine {
	return search.PVLine{Moves: append([]game.Move(nil), s.lastPV.Moves...), Value: s.lastPV.Value}
}

// TerminalValue scores a finished game for player with depth plies of
// search depth remaining.
func TerminalValue(st game.State, player game.PlayerID, depth int) int {
	switch st.Winner() {
	case game.NoPlayer:
		return 0
	case player:
		return WinBase + WinPerPly*depth
	default:
		return -(WinBase + WinPerPly*depth)
	}
}

// Search runs the iterative deepening loop for player from root. The
// top-ranked root move is committed before any searching, so reg is never
// empty once Search has generated the root moves.
func (s *Solver) Search(ctx context.Context, root game.State, player game.PlayerID, reg *search.Register) error {
	s.diag.Reset()
	s.player = player
	s.lastValue, s.lastDepth = 0, 0
	s.lastPV = search.PVLine{}

	s.children = evaluator.Children(s.eval, player, root, true)
	if len(s.children) == 0 {
		return search.ErrNoMoves
	}
	s.order = make([]int, len(s.children))
	for i := range s.order {
		s.order[i] = i
	}
	s.diag.BranchingFactor.Store(uint64(len(s.children)))
	reg.Commit(s.children[0].Move)

	tstart := time.Now()
	g := &errgroup.Group{}
	done := make(chan struct{})
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.diag.Nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})
	g.Go(func() error {
		defer close(done)
		return s.iterativelyDeepen(ctx, reg)
	})
	err := g.Wait()

	log.Debug().
		Int("depth", s.lastDepth).
		Int("value", s.lastValue).
		Object("diagnostics", s.diag.Snapshot()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("alphabeta-search-returning")

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (s *Solver) iterativelyDeepen(ctx context.Context, reg *search.Register) error {
	for d := 1; d <= s.maxDepth; d++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debug().Int("depth", d).Msg("deepening-iteratively")
		best := -Infinity
		var pv, childPV search.PVLine
		order := append([]int(nil), s.order...)
		for _, idx := range order {
			if err := ctx.Err(); err != nil {
				return err
			}
			child := s.children[idx]
			v, err := s.alphabeta(ctx, child.State, best, Infinity, d-1, &childPV)
			if err != nil {
				return err
			}
			s.diag.BranchesSearched.Add(1)
			if v > best {
				best = v
				reg.Commit(child.Move)
				s.promote(idx)
				pv.Update(child.Move, childPV, v)
			}
		}
		s.lastValue, s.lastDepth, s.lastPV = best, d, pv
		s.diag.DepthCompleted.Store(uint64(d))
		log.Debug().Int("depth", d).Int("value", best).
			Str("pv", pv.String()).Msg("depth-complete")
	}
	return nil
}

// promote moves root child idx to the front of the search order.
func (s *Solver) promote(idx int) {
	for i, o := range s.order {
		if o == idx {
			copy(s.order[1:i+1], s.order[:i])
			s.order[0] = idx
			return
		}
	}
}

// alphabeta returns the fail-hard value of st within [α, β] and writes
// the line that produced it into pv.
func (s *Solver) alphabeta(ctx context.Context, st game.State, α, β, depth int, pv *search.PVLine) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.diag.Nodes.Add(1)
	pv.Clear()
	if st.IsTerminal() {
		return TerminalValue(st, s.player, depth), nil
	}
	if depth == 0 {
		return s.eval.Score(s.player, st), nil
	}
	o := search.OrientationFor(st, s.player)
	children := evaluator.Children(s.eval, s.player, st, o == search.Maximize)
	if len(children) == 0 {
		return s.eval.Score(s.player, st), nil
	}
	var childPV search.PVLine
	for i, c := range children {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		v, err := s.alphabeta(ctx, c.State, α, β, depth-1, &childPV)
		if err != nil {
			return 0, err
		}
		if o == search.Maximize {
			if v > β {
				s.diag.Pruned.Add(uint64(len(children) - i - 1))
				return β, nil
			}
			if v > α {
				α = v
				pv.Update(c.Move, childPV, v)
			}
		} else {
			if v < α {
				s.diag.Pruned.Add(uint64(len(children) - i - 1))
				return α, nil
			}
			if v < β {
				β = v
				pv.Update(c.Move, childPV, v)
			}
		}
	}
	if o == search.Maximize {
		return α, nil
	}
	return β, nil
}
