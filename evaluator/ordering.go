package evaluator

import (
	"cmp"
	"slices"

	"github.com/domino14/anytime/game"
)

// Compare orders two states by their score for perspective. It returns a
// negative number when a scores lower than b.
func Compare(e Evaluator, perspective game.PlayerID, a, b game.State) int {
	return cmp.Compare(e.Score(perspective, a), e.Score(perspective, b))
}

// Child is a legal move together with the state it leads to and that
// state's static score.
type Child struct {
	Move  game.Move
	State game.State
	Score int
}

// Children applies every legal move of s and orders the results by score
// for perspective: best first when descending, worst first otherwise. Ties
// keep legal-move order.
func Children(e Evaluator, perspective game.PlayerID, s game.State, descending bool) []Child {
	moves := s.LegalMoves()
	children := make([]Child, len(moves))
	for i, m := range moves {
		ns := s.Apply(m)
		children[i] = Child{Move: m, State: ns, Score: e.Score(perspective, ns)}
	}
	Sort(children, descending)
	return children
}

// Sort orders children by score, stably.
func Sort(children []Child, descending bool) {
	slices.SortStableFunc(children, func(a, b Child) int {
		if descending {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.Score, b.Score)
	})
}
