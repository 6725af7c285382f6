package automatic

import (
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/anytime/turnplayer"
)

func TestSummary(t *testing.T) {
	is := is.New(t)
	agents := [2]turnplayer.Agent{
		{Strategy: "alphabeta", Evaluator: "basic"},
		{Strategy: "mcts", Evaluator: "capture"},
	}
	s := NewSummary(agents)
	s.Add(&GameResult{WinnerAgent: 0, Plies: 10, Decisions: []DecisionRecord{
		{Agent: 0, Elapsed: 20 * time.Millisecond, Depth: 4},
		{Agent: 1, Elapsed: 30 * time.Millisecond, Depth: 9, Fallback: true},
	}})
	s.Add(&GameResult{WinnerAgent: 0, Swapped: true, Plies: 20})
	s.Add(&GameResult{WinnerAgent: -1, Plies: 30})
	s.Add(&GameResult{WinnerAgent: 1, Swapped: true, Plies: 40})

	is.Equal(s.Games, 4)
	is.Equal(s.Wins, [2]int{2, 1})
	is.Equal(s.Draws, 1)
	is.Equal(s.WentFirst, [2]int{2, 2})
	// agent 0 first and won, agent 1 first and won
	is.Equal(s.FirstWins, 2)
	is.Equal(s.Score.Mean(), (1+1+0.5+0)/4.0)
	is.Equal(s.Plies.Mean(), 25.0)
	is.Equal(s.Fallbacks, [2]int{0, 1})
	is.Equal(s.Depth[1].Mean(), 9.0)

	out := s.String()
	assert.Contains(t, out, "Games played: 4")
	assert.Contains(t, out, "alphabeta/basic")
	assert.Contains(t, out, "95% CI")
	assert.Contains(t, out, "search depth histogram")
}

func TestEmptySummary(t *testing.T) {
	s := NewSummary([2]turnplayer.Agent{})
	assert.Equal(t, "Games played: 0\n", s.String())
}
