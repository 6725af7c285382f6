package search

import (
	"sync/atomic"

	"github.com/domino14/anytime/game"
)

type committed struct {
	move game.Move
}

// Register is the single best-move slot a searcher writes and the caller
// reads. It may be read at any time without blocking. Once written it is
// never empty again.
type Register struct {
	best    atomic.Pointer[committed]
	commits atomic.Uint64
}

func NewRegister() *Register {
	return &Register{}
}

// Commit publishes m as the current best move.
func (r *Register) Commit(m game.Move) {
	r.best.Store(&committed{move: m})
	r.commits.Add(1)
}

// Load returns the current best move. ok is false until the first Commit.
func (r *Register) Load() (m game.Move, ok bool) {
	c := r.best.Load()
	if c == nil {
		return nil, false
	}
	return c.move, true
}

// Commits returns how many times the register has been written.
func (r *Register) Commits() uint64 {
	return r.commits.Load()
}
