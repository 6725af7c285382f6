package search

import (
	"fmt"
	"strings"

	"github.com/domino14/anytime/game"
)

// PVLine is a principal variation: the line of play the search expects,
// starting with the best move, and its value for the searching player.
type PVLine struct {
	Moves []game.Move
	Value int
}

func (pv *PVLine) Clear() {
	pv.Moves = pv.Moves[:0]
}

// Update makes m followed by child the new line.
func (pv *PVLine) Update(m game.Move, child PVLine, value int) {
	pv.Moves = append(append(pv.Moves[:0], m), child.Moves...)
	pv.Value = value
}

func (pv PVLine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %d;", pv.Value)
	for i, m := range pv.Moves {
		fmt.Fprintf(&sb, " %d: %v;", i+1, m)
	}
	return sb.String()
}
