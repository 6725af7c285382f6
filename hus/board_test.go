package hus

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/anytime/game"
)

func seedsWith(vals map[int]int) []int {
	s := make([]int, NumPits)
	for k, v := range vals {
		s[k] = v
	}
	return s
}

func TestOpeningPosition(t *testing.T) {
	is := is.New(t)
	b := New(0)
	is.Equal(len(b.LegalMoves()), NumPits)
	s0, s1 := b.SeedsOnBoard()
	is.Equal(s0, NumPits*InitialSeeds)
	is.Equal(s1, NumPits*InitialSeeds)
	is.Equal(b.TurnOf(), game.PlayerID(0))
	is.Equal(b.Winner(), game.NoPlayer)
	is.True(!b.IsTerminal())
	is.Equal(b.MaxTurns(), DefaultMaxTurns)
}

func TestApplyDoesNotMutate(t *testing.T) {
	is := is.New(t)
	b := New(0)
	before := b.ToDisplayText()
	nb := b.Apply(Move{Pit: 3}).(*Board)
	is.Equal(b.ToDisplayText(), before)
	is.Equal(nb.TurnOf(), game.PlayerID(1))
	is.Equal(nb.Turn(), 0)
	is.Equal(nb.Apply(Move{Pit: 3}).(*Board).Turn(), 1)
	is.Equal(b.Seeds(0)[3], InitialSeeds)
}

func TestCapture(t *testing.T) {
	is := is.New(t)
	b, err := FromSeeds([2][]int{
		seedsWith(map[int]int{29: 2, 31: 1}),
		seedsWith(map[int]int{16: 3, 15: 4, 0: 2}),
	}, 0, 10, 0)
	is.NoErr(err)

	nb := b.Apply(Move{Pit: 29}).(*Board)
	mine := nb.Seeds(0)
	is.Equal(mine[29], 0)
	is.Equal(mine[30], 1)
	is.Equal(mine[31], 2)
	for i := 0; i <= 6; i++ {
		is.Equal(mine[i], 1)
	}
	theirs := nb.Seeds(1)
	is.Equal(theirs[16], 0)
	is.Equal(theirs[15], 0)
	is.Equal(theirs[0], 2)

	s0, s1 := nb.SeedsOnBoard()
	is.Equal(s0, 10)
	is.Equal(s1, 2)
	is.True(!nb.IsTerminal())
}

func TestRelay(t *testing.T) {
	is := is.New(t)
	// Sowing 2 from pit 0 lands on pit 2, which holds a seed: pick up both
	// and continue to pits 3 and 4.
	b, err := FromSeeds([2][]int{
		seedsWith(map[int]int{0: 2, 2: 1}),
		seedsWith(map[int]int{5: 2}),
	}, 0, 0, 0)
	is.NoErr(err)
	nb := b.Apply(Move{Pit: 0}).(*Board)
	mine := nb.Seeds(0)
	is.Equal(mine[0], 0)
	is.Equal(mine[1], 1)
	is.Equal(mine[2], 0)
	is.Equal(mine[3], 1)
	is.Equal(mine[4], 1)
}

func TestNoMovesLoses(t *testing.T) {
	is := is.New(t)
	b, err := FromSeeds([2][]int{
		seedsWith(map[int]int{0: 2}),
		seedsWith(map[int]int{0: 1}),
	}, 0, 0, 0)
	is.NoErr(err)
	is.True(!b.IsTerminal())
	nb := b.Apply(Move{Pit: 0}).(*Board)
	is.True(nb.IsTerminal())
	is.Equal(nb.Winner(), game.PlayerID(0))
	is.Equal(len(nb.LegalMoves()), 0)
}

func TestTurnLimitDraws(t *testing.T) {
	is := is.New(t)
	b, err := FromSeeds([2][]int{
		seedsWith(map[int]int{0: 2, 10: 2}),
		seedsWith(map[int]int{0: 2, 10: 2}),
	}, 1, 4, 5)
	is.NoErr(err)
	nb := b.Apply(Move{Pit: 0}).(*Board)
	is.True(nb.IsTerminal())
	is.Equal(nb.Winner(), game.NoPlayer)
}

func TestRandomGameConservesSeeds(t *testing.T) {
	is := is.New(t)
	var s game.State = New(200)
	for !s.IsTerminal() {
		m, ok := s.(*Board).RandomMove()
		is.True(ok)
		s = s.Apply(m)
		s0, s1 := s.(*Board).SeedsOnBoard()
		is.Equal(s0+s1, 2*NumPits*InitialSeeds)
	}
	_, ok := s.(*Board).RandomMove()
	is.True(!ok)
}

func TestFromSeedsErrors(t *testing.T) {
	is := is.New(t)
	_, err := FromSeeds([2][]int{make([]int, 3), make([]int, NumPits)}, 0, 0, 0)
	is.Equal(err, ErrWrongSeedCount)
	_, err = FromSeeds([2][]int{seedsWith(map[int]int{1: -1}), make([]int, NumPits)}, 0, 0, 0)
	is.Equal(err, ErrNegativeSeeds)
	_, err = FromSeeds([2][]int{make([]int, NumPits), make([]int, NumPits)}, 2, 0, 0)
	is.True(err != nil)
}

func TestParseMove(t *testing.T) {
	is := is.New(t)
	m, err := ParseMove(" 17 ")
	is.NoErr(err)
	is.Equal(m, Move{Pit: 17})
	_, err = ParseMove("32")
	is.True(err != nil)
	_, err = ParseMove("abc")
	is.True(err != nil)
}
