// Package evaluator holds the static evaluation functions used to order
// moves and score search frontiers.
package evaluator

import (
	"fmt"

	"github.com/domino14/anytime/game"
)

// Evaluator scores a state from one player's perspective. Higher is better
// for perspective. Scores only need to be comparable with each other; the
// searchers never mix them with terminal scores except at depth cutoffs.
type Evaluator interface {
	Score(perspective game.PlayerID, s game.State) int
	Name() string
}

// Board is the capability the built-in evaluators read: a resource count
// per location for each player.
type Board interface {
	game.State
	Seeds(p game.PlayerID) []int
}

// Func adapts a plain function to the Evaluator interface.
type Func struct {
	Label string
	Fn    func(perspective game.PlayerID, s game.State) int
}

func (f Func) Score(perspective game.PlayerID, s game.State) int {
	return f.Fn(perspective, s)
}

func (f Func) Name() string {
	return f.Label
}

func mustBoard(s game.State) Board {
	b, ok := s.(Board)
	if !ok {
		panic(fmt.Sprintf("evaluator: state %T does not expose seeds", s))
	}
	return b
}
