// Package search holds the plumbing shared by the game-tree searchers: the
// best-move register a searcher publishes into, diagnostic counters, and a
// handle for running a searcher in the background.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/domino14/anytime/game"
)

// ErrNoMoves is returned when the root position has no legal move.
var ErrNoMoves = errors.New("no legal moves")

// Engine is an anytime searcher. Search blocks until the search is
// exhausted or ctx is done, publishing progressively better moves into reg
// along the way. A cancelled search is not an error: Search returns nil and
// reg holds the best move found so far.
type Engine interface {
	Search(ctx context.Context, root game.State, player game.PlayerID, reg *Register) error
	Diagnostics() *Diagnostics
}

// Orientation says whether a node picks the highest or the lowest value
// from the searching player's point of view.
type Orientation int

const (
	Maximize Orientation = iota
	Minimize
)

// OrientationFor returns Maximize when it is player's turn in s.
func OrientationFor(s game.State, player game.PlayerID) Orientation {
	if s.TurnOf() == player {
		return Maximize
	}
	return Minimize
}

func (o Orientation) Flip() Orientation {
	if o == Maximize {
		return Minimize
	}
	return Maximize
}

// Better reports whether a is strictly preferable to b.
func (o Orientation) Better(a, b float64) bool {
	if o == Maximize {
		return a > b
	}
	return a < b
}

func (o Orientation) String() string {
	if o == Maximize {
		return "max"
	}
	return "min"
}

// Strategy selects a search algorithm.
type Strategy int

const (
	AlphaBeta Strategy = iota
	MonteCarlo
)

func (s Strategy) String() string {
	switch s {
	case AlphaBeta:
		return "alphabeta"
	case MonteCarlo:
		return "mcts"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy accepts the names printed by Strategy.String plus a few
// aliases.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alphabeta", "ab", "minimax":
		return AlphaBeta, nil
	case "mcts", "montecarlo", "mc":
		return MonteCarlo, nil
	}
	return AlphaBeta, fmt.Errorf("unknown search strategy %q", s)
}
