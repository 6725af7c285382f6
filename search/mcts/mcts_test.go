package mcts

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/anytime/evaluator"
	"github.com/domino14/anytime/game"
	"github.com/domino14/anytime/hus"
	"github.com/domino14/anytime/search"
	st "github.com/domino14/anytime/search/searchtest"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func checkVisits(t *testing.T, s *Solver) {
	t.Helper()
	for i, n := range s.nodes {
		sum := 0
		for _, ci := range n.children {
			sum += s.nodes[ci].visits
			assert.Equal(t, int32(i), s.nodes[ci].parent)
		}
		assert.Equal(t, sum+n.resolved, n.visits, "node %d", i)
		assert.LessOrEqual(t, n.wins, n.visits)
	}
}

func TestVisitConservation(t *testing.T) {
	is := is.New(t)
	s := NewSolver(evaluator.ByName("basic"))
	s.SetMaxSimulations(200)
	reg := search.NewRegister()
	b := hus.New(30)
	is.NoErr(s.Search(context.Background(), b, 0, reg))

	is.Equal(s.nodes[0].visits, 200)
	is.Equal(s.nodes[0].resolved, 0)
	checkVisits(t, s)
	is.Equal(s.Diagnostics().Snapshot().Simulations, uint64(200))
	is.Equal(s.Diagnostics().Snapshot().BranchingFactor, uint64(32))
	// 200 simulations over 32 root moves visits them all.
	is.Equal(s.Diagnostics().Snapshot().BranchesSearched, uint64(32))
}

func TestVisitConservationOnTree(t *testing.T) {
	is := is.New(t)
	s := NewSolver(st.Evaluator)
	s.SetMaxSimulations(500)
	root := st.NewState(st.RandomTree(7, 4, 3), 1)
	reg := search.NewRegister()
	is.NoErr(s.Search(context.Background(), root, 1, reg))
	is.Equal(s.nodes[0].visits, 500)
	checkVisits(t, s)
	is.True(len(s.nodes) <= 1+3+9+27+81)
}

func TestFindsImmediateWin(t *testing.T) {
	is := is.New(t)
	tree := st.Inner("root", 0,
		st.Inner("lose", 5, st.Win("opp-wins", 1)),
		&st.Node{Name: "win", Value: -5, Terminal: true, Winner: 0},
	)
	s := NewSolver(st.Evaluator)
	s.SetMaxSimulations(50)
	reg := search.NewRegister()
	is.NoErr(s.Search(context.Background(), st.NewState(tree, 0), 0, reg))
	m, ok := reg.Load()
	is.True(ok)
	is.Equal(m, "win")

	stats := s.RootStats()
	is.Equal(len(stats), 2)
	is.Equal(stats[0].Move, "win")
	is.Equal(stats[0].WinRatio(), 1.0)
	is.Equal(stats[1].Wins, 0)
	checkVisits(t, s)
}

func TestOpponentNodesMinimise(t *testing.T) {
	is := is.New(t)
	// After "trap" the opponent can win at once; after "safe" the
	// opponent's only move loses.
	tree := st.Inner("root", 0,
		st.Inner("trap", 10,
			st.Win("opp-wins", 1),
			st.Inner("opp-blunders", -10, st.Win("we-win", 0))),
		st.Inner("safe", 0, st.Inner("forced", 0, st.Win("we-win-too", 0))),
	)
	s := NewSolver(st.Evaluator)
	s.SetMaxSimulations(300)
	reg := search.NewRegister()
	is.NoErr(s.Search(context.Background(), st.NewState(tree, 0), 0, reg))
	m, _ := reg.Load()
	is.Equal(m, "safe")
	checkVisits(t, s)
}

func TestNodeBudgetCapsTree(t *testing.T) {
	is := is.New(t)
	s := NewSolver(evaluator.ByName("capture"))
	s.SetMaxNodes(40)
	s.SetMaxSimulations(100)
	reg := search.NewRegister()
	is.NoErr(s.Search(context.Background(), hus.New(20), 0, reg))
	is.True(len(s.nodes) <= 40)
	is.Equal(s.nodes[0].visits, 100)
	checkVisits(t, s)
}

func TestNodeBudgetFromMemory(t *testing.T) {
	s := NewSolver(st.Evaluator)
	s.SetMemoryFraction(0.01)
	n := s.nodeBudget()
	assert.GreaterOrEqual(t, n, minNodes)
	assert.LessOrEqual(t, n, maxNodes*1024)
	s.SetMaxNodes(77)
	assert.Equal(t, 77, s.nodeBudget())
}

func TestUCB1(t *testing.T) {
	is := is.New(t)
	s := NewSolver(st.Evaluator)
	parent := &node{visits: 10, orientation: search.Maximize}
	is.Equal(s.ucb1(parent, &node{}), math.Inf(1))

	child := &node{visits: 4, wins: 3}
	explore := DefaultExploration * math.Sqrt(math.Log(10)/4)
	is.True(math.Abs(s.ucb1(parent, child)-(0.75+explore)) < 1e-9)

	parent.orientation = search.Minimize
	is.True(math.Abs(s.ucb1(parent, child)-(0.25+explore)) < 1e-9)
}

func TestNoMoves(t *testing.T) {
	is := is.New(t)
	s := NewSolver(st.Evaluator)
	err := s.Search(context.Background(), st.NewState(st.Leaf("alone", 0), 0), 0, search.NewRegister())
	is.Equal(err, search.ErrNoMoves)
}

func TestCancellation(t *testing.T) {
	is := is.New(t)
	b := hus.New(0)
	s := NewSolver(evaluator.ByName("improved"))
	h := search.Start(context.Background(), s, b, 0)
	time.Sleep(20 * time.Millisecond)
	h.Cancel()
	stopped := make(chan error)
	go func() { stopped <- h.Wait() }()
	select {
	case err := <-stopped:
		is.NoErr(err)
	case <-time.After(5 * time.Second):
		t.Fatal("search did not stop after cancellation")
	}
	m, ok := h.BestMove()
	is.True(ok)
	legal := false
	for _, lm := range b.LegalMoves() {
		legal = legal || lm == m
	}
	is.True(legal)
	is.Equal(uint64(s.nodes[0].visits), h.Diagnostics().Simulations)
}

func TestRolloutAdjudicates(t *testing.T) {
	is := is.New(t)
	s := NewSolver(st.Evaluator)
	s.player = 0
	is.Equal(s.rollout(st.NewState(st.Leaf("ahead", 7), 1)), game.PlayerID(0))
	is.Equal(s.rollout(st.NewState(st.Leaf("behind", -3), 1)), game.PlayerID(1))
	is.Equal(s.rollout(st.NewState(st.Leaf("level", 0), 1)), game.NoPlayer)

	long := st.Inner("a", 0, st.Inner("b", 4, st.Win("w", 1)))
	s.SetMaxRolloutPlies(1)
	is.Equal(s.rollout(st.NewState(long, 0)), game.PlayerID(0))
	s.SetMaxRolloutPlies(5)
	is.Equal(s.rollout(st.NewState(long, 0)), game.PlayerID(1))
}

func TestCandidatesAreRankedMoves(t *testing.T) {
	is := is.New(t)
	s := NewSolver(st.Evaluator)
	s.SetMaxSimulations(120)
	root := st.NewState(st.RandomTree(3, 4, 4), 0)
	is.NoErr(s.Search(context.Background(), root, 0, search.NewRegister()))
	for i := range s.nodes {
		n := &s.nodes[i]
		if !n.generated {
			continue
		}
		var seen []game.Move
		for _, ci := range n.children {
			c := &s.nodes[ci]
			is.Equal(c.state.(*st.State).Node().Name, c.move)
			seen = append(seen, c.move)
		}
		seen = append(seen, n.candidates...)
		ranked := evaluator.Children(st.Evaluator, 0, n.state, n.orientation == search.Maximize)
		is.Equal(len(seen), len(ranked))
		for j, c := range ranked {
			is.Equal(seen[j], c.Move)
		}
	}
	checkVisits(t, s)
}
