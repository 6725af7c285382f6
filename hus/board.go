// Package hus implements Hus, a four-row mancala played on 2 x 32 pits.
//
// Each player owns 32 pits. Pits 0-15 form the player's outer row and pits
// 16-31 the inner row; pit i sits in the same column as pit 31-i. Seeds are
// sown counter-clockwise around the player's own 32 pits. A move picks up
// a pit holding at least two seeds. When the last seed lands in an occupied
// pit the contents are picked up again and sowing continues (relay). If the
// landing pit is in the inner row and the facing opponent inner pit is
// occupied, the opponent's facing inner and outer pits are captured and
// their seeds are sown onward instead. A player with no legal move on turn
// loses.
package hus

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/domino14/anytime/game"
)

const (
	NumPits      = 32
	RowLength    = 16
	InitialSeeds = 2
	// DefaultMaxTurns is the round at which a game ends without a winner.
	DefaultMaxTurns = 500
	// maxRelays bounds a single move's relay chain. Some positions relay
	// forever; such a move simply stops sowing.
	maxRelays = 1000
)

var (
	ErrWrongSeedCount = errors.New("each player needs exactly 32 pits")
	ErrNegativeSeeds  = errors.New("pits cannot hold a negative number of seeds")
)

// Move sows from a single pit of the player on turn.
type Move struct {
	Pit int
}

func (m Move) String() string {
	return strconv.Itoa(m.Pit)
}

// ParseMove parses a pit number.
func ParseMove(s string) (Move, error) {
	pit, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Move{}, fmt.Errorf("bad pit %q: %w", s, err)
	}
	if pit < 0 || pit >= NumPits {
		return Move{}, fmt.Errorf("pit %d out of range", pit)
	}
	return Move{Pit: pit}, nil
}

// Board is a Hus position. It satisfies game.State; Apply copies.
type Board struct {
	pits   [2][NumPits]int
	toMove game.PlayerID
	// turn counts rounds; it advances after the second player moves.
	turn     int
	maxTurns int
	winner   game.PlayerID
	over     bool
}

// New returns the opening position with InitialSeeds in every pit.
func New(maxTurns int) *Board {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	b := &Board{maxTurns: maxTurns, winner: game.NoPlayer}
	for p := range b.pits {
		for i := range b.pits[p] {
			b.pits[p][i] = InitialSeeds
		}
	}
	return b
}

// FromSeeds builds a position from explicit pit contents.
func FromSeeds(seeds [2][]int, toMove game.PlayerID, turn, maxTurns int) (*Board, error) {
	if toMove != 0 && toMove != 1 {
		return nil, fmt.Errorf("bad player to move: %d", toMove)
	}
	b := New(maxTurns)
	for p := range seeds {
		if len(seeds[p]) != NumPits {
			return nil, ErrWrongSeedCount
		}
		for i, s := range seeds[p] {
			if s < 0 {
				return nil, ErrNegativeSeeds
			}
			b.pits[p][i] = s
		}
	}
	b.toMove = toMove
	b.turn = turn
	b.settle(game.Opponent(toMove))
	return b, nil
}

// Seeds returns the pit contents of player p. The slice aliases the board
// and must not be modified.
func (b *Board) Seeds(p game.PlayerID) []int {
	return b.pits[p][:]
}

func (b *Board) TurnOf() game.PlayerID { return b.toMove }
func (b *Board) Turn() int             { return b.turn }
func (b *Board) IsTerminal() bool      { return b.over }
func (b *Board) Winner() game.PlayerID { return b.winner }
func (b *Board) MaxTurns() int         { return b.maxTurns }

// SeedsOnBoard returns each player's seed total.
func (b *Board) SeedsOnBoard() (int, int) {
	return lo.Sum(b.pits[0][:]), lo.Sum(b.pits[1][:])
}

func (b *Board) legalPits(p game.PlayerID) []int {
	pits := make([]int, 0, NumPits)
	for i, s := range b.pits[p] {
		if s >= 2 {
			pits = append(pits, i)
		}
	}
	return pits
}

// LegalMoves returns the sowable pits of the player on turn in ascending
// order. A finished game has none.
func (b *Board) LegalMoves() []game.Move {
	if b.over {
		return nil
	}
	pits := b.legalPits(b.toMove)
	moves := make([]game.Move, len(pits))
	for i, p := range pits {
		moves[i] = Move{Pit: p}
	}
	return moves
}

// Apply returns the position after m. It panics on a move that is not
// legal here.
func (b *Board) Apply(gm game.Move) game.State {
	m, ok := gm.(Move)
	if !ok {
		panic(fmt.Sprintf("hus: unexpected move type %T", gm))
	}
	if b.over || m.Pit < 0 || m.Pit >= NumPits || b.pits[b.toMove][m.Pit] < 2 {
		panic(fmt.Sprintf("hus: illegal move %v for %v", m, b.toMove))
	}
	nb := *b
	nb.sow(m.Pit)
	mover := nb.toMove
	nb.toMove = game.Opponent(mover)
	if mover == 1 {
		nb.turn++
	}
	nb.settle(mover)
	return &nb
}

// settle decides whether the position is over. lastMover is the player
// who made the move that produced it.
func (b *Board) settle(lastMover game.PlayerID) {
	b.over = false
	b.winner = game.NoPlayer
	if len(b.legalPits(b.toMove)) == 0 {
		b.over = true
		b.winner = lastMover
		return
	}
	if b.turn >= b.maxTurns {
		b.over = true
	}
}

// facing returns the opponent's inner and outer pits in the same column as
// the mover's inner pit.
func facing(inner int) (int, int) {
	return 47 - inner, inner - 16
}

func (b *Board) sow(pit int) {
	me, opp := &b.pits[b.toMove], &b.pits[game.Opponent(b.toMove)]
	hand := me[pit]
	me[pit] = 0
	pos := pit
	for relays := 0; relays < maxRelays; relays++ {
		for ; hand > 0; hand-- {
			pos = (pos + 1) % NumPits
			me[pos]++
		}
		if me[pos] == 1 {
			return
		}
		if pos >= RowLength {
			oi, oo := facing(pos)
			if opp[oi] > 0 {
				hand = opp[oi] + opp[oo]
				opp[oi], opp[oo] = 0, 0
				continue
			}
		}
		hand = me[pos]
		me[pos] = 0
	}
}

// RandomMove picks a uniformly random legal move.
func (b *Board) RandomMove() (Move, bool) {
	pits := b.legalPits(b.toMove)
	if b.over || len(pits) == 0 {
		return Move{}, false
	}
	return Move{Pit: pits[frand.Intn(len(pits))]}, true
}

// ToDisplayText renders the board from player 0's side. Player 1's rows
// are on top.
func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	row := func(label string, pit func(col int) int, p game.PlayerID) {
		fmt.Fprintf(&sb, "%-9s", label)
		for c := 0; c < RowLength; c++ {
			fmt.Fprintf(&sb, "%3d", b.pits[p][pit(c)])
		}
		sb.WriteString("\n")
	}
	row("p1 outer", func(c int) int { return 15 - c }, 1)
	row("p1 inner", func(c int) int { return 16 + c }, 1)
	row("p0 inner", func(c int) int { return 31 - c }, 0)
	row("p0 outer", func(c int) int { return c }, 0)
	s0, s1 := b.SeedsOnBoard()
	fmt.Fprintf(&sb, "turn %d, %v to move, seeds %d-%d", b.turn, b.toMove, s0, s1)
	if b.over {
		fmt.Fprintf(&sb, ", game over, winner %v", b.winner)
	}
	sb.WriteString("\n")
	return sb.String()
}
