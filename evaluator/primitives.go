package evaluator

import (
	"math"

	"github.com/samber/lo"

	"github.com/domino14/anytime/game"
)

// OuterRowLength is the number of outer-row locations. Location i and
// 2*OuterRowLength-1-i form a structural pair.
const OuterRowLength = 16

func total(seeds []int) int {
	return lo.Sum(seeds)
}

// Material is the difference between the perspective player's resources
// and the opponent's.
func Material(perspective game.PlayerID, b Board) int {
	return total(b.Seeds(perspective)) - total(b.Seeds(game.Opponent(perspective)))
}

// Regional weighs outer-row resources by outer and inner-row resources by
// inner before taking the difference.
func Regional(perspective game.PlayerID, b Board, outer, inner float64) int {
	weigh := func(seeds []int) float64 {
		var v float64
		for i, s := range seeds {
			if i < OuterRowLength {
				v += float64(s) * outer
			} else {
				v += float64(s) * inner
			}
		}
		return v
	}
	mine := weigh(b.Seeds(perspective))
	theirs := weigh(b.Seeds(game.Opponent(perspective)))
	return int(math.Round(mine - theirs))
}

// Mobility is the number of legal moves when it is perspective's turn,
// and zero otherwise.
func Mobility(perspective game.PlayerID, s game.State) int {
	if s.TurnOf() != perspective {
		return 0
	}
	return len(s.LegalMoves())
}

// emptyPairs counts structural pairs with both locations empty.
func emptyPairs(seeds []int) int {
	last := len(seeds) - 1
	return lo.CountBy(lo.Range(OuterRowLength), func(i int) bool {
		return seeds[i] == 0 && seeds[last-i] == 0
	})
}

// NearCapture rewards empty structural pairs on the opponent's side and
// penalises them on the perspective player's side, bonus per pair.
func NearCapture(perspective game.PlayerID, b Board, bonus int) int {
	mine := emptyPairs(b.Seeds(perspective))
	theirs := emptyPairs(b.Seeds(game.Opponent(perspective)))
	return (theirs - mine) * bonus
}
