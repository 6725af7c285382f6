// Package game defines the capabilities a two-player, perfect-information,
// alternating-move game has to provide for the searchers in this module.
package game

import "fmt"

// PlayerID identifies a player. Players are numbered 0 and 1.
type PlayerID int

// NoPlayer is returned by Winner when the game is not over or ended
// without a winner.
const NoPlayer PlayerID = -1

func (p PlayerID) String() string {
	if p == NoPlayer {
		return "none"
	}
	return fmt.Sprintf("p%d", int(p))
}

// Opponent returns the other player of a two-player game.
func Opponent(p PlayerID) PlayerID {
	return 1 - p
}

// Move is opaque to the searchers. It is only meaningful relative to the
// state whose LegalMoves produced it.
type Move any

// State is an immutable game position. Apply must return a new State and
// leave the receiver unchanged; the searchers hold on to intermediate
// states and rely on this.
type State interface {
	// LegalMoves returns the moves available to the player on turn. The
	// order is arbitrary but must be deterministic for a given state.
	LegalMoves() []Move
	Apply(m Move) State
	IsTerminal() bool
	// Winner returns NoPlayer while the game is in progress, and also for
	// a finished game without a winner.
	Winner() PlayerID
	TurnOf() PlayerID
}

// Turner is implemented by states that know how many turns have been
// played so far.
type Turner interface {
	Turn() int
}
