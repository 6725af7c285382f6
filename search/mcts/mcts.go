// Package mcts implements an anytime Monte-Carlo Tree Search.
//
// The tree lives in an arena: nodes refer to their parent and children by
// index. A few departures from textbook MCTS:
//  1. The root is expanded with every legal move before the first
//     simulation, and its top-ranked move is published immediately.
//  2. Other nodes gain one child per visit, best candidate first, ranked by
//     the evaluator from the mover's point of view.
//  3. The rollout is not random. It repeatedly plays the move whose result
//     the evaluator likes best for the side to move (a heavy rollout).
//
// Win counts are always kept from the searching player's point of view;
// nodes where the opponent is to move select children by the loss ratio
// instead.
package mcts

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/anytime/evaluator"
	"github.com/domino14/anytime/game"
	"github.com/domino14/anytime/search"
)

const (
	DefaultExploration     = 1.5
	DefaultMaxRolloutPlies = 2000
	DefaultMemoryFraction  = 0.05

	// rough per-node footprint used to turn a memory fraction into a node
	// budget: the node, its state, and its ranked candidate moves.
	approxNodeBytes = 2048
	minNodes        = 1 << 10
	maxNodes        = 1 << 24

	noParent = -1
)

type node struct {
	state    game.State
	move     game.Move
	parent   int32
	depth    int32
	children []int32
	wins     int
	visits   int
	// resolved counts simulations whose rollout started at this node.
	resolved    int
	orientation search.Orientation
	// candidates are the moves not yet added as children, best first for
	// the mover. Their states are rebuilt when they are added.
	candidates []game.Move
	generated  bool
}

// Solver is an MCTS searcher. A Solver is not safe for concurrent use;
// run one Search at a time.
type Solver struct {
	eval            evaluator.Evaluator
	exploration     float64
	maxNodes        int
	memoryFraction  float64
	maxSimulations  int
	maxRolloutPlies int

	player game.PlayerID
	nodes  []node
	diag   search.Diagnostics
}

func NewSolver(e evaluator.Evaluator) *Solver {
	return &Solver{
		eval:            e,
		exploration:     DefaultExploration,
		memoryFraction:  DefaultMemoryFraction,
		maxRolloutPlies: DefaultMaxRolloutPlies,
	}
}

func (s *Solver) SetEvaluator(e evaluator.Evaluator) { s.eval = e }

// SetExploration sets the UCB1 exploration constant.
func (s *Solver) SetExploration(c float64) { s.exploration = c }

// SetMaxNodes caps the tree size. Zero derives the cap from the memory
// fraction.
func (s *Solver) SetMaxNodes(n int) { s.maxNodes = n }

func (s *Solver) SetMemoryFraction(f float64) { s.memoryFraction = f }

// SetMaxSimulations stops the search after n simulations. Zero runs until
// cancelled.
func (s *Solver) SetMaxSimulations(n int) { s.maxSimulations = n }

func (s *Solver) SetMaxRolloutPlies(n int) {
	if n <= 0 {
		n = DefaultMaxRolloutPlies
	}
	s.maxRolloutPlies = n
}

func (s *Solver) Diagnostics() *search.Diagnostics { return &s.diag }

func (s *Solver) nodeBudget() int {
	if s.maxNodes > 0 {
		return s.maxNodes
	}
	total := memory.TotalMemory()
	if total == 0 {
		return minNodes * 1024
	}
	n := int(s.memoryFraction * float64(total) / approxNodeBytes)
	return min(max(n, minNodes), maxNodes)
}

// Search runs simulations from root until ctx is done or the simulation
// limit is reached, committing the best root move after each one.
func (s *Solver) Search(ctx context.Context, root game.State, player game.PlayerID, reg *search.Register) error {
	s.diag.Reset()
	s.player = player
	budget := s.nodeBudget()

	children := evaluator.Children(s.eval, player, root, search.OrientationFor(root, player) == search.Maximize)
	if len(children) == 0 {
		return search.ErrNoMoves
	}
	s.nodes = make([]node, 1, min(budget, 1<<16))
	s.nodes[0] = node{
		state:       root,
		parent:      noParent,
		orientation: search.OrientationFor(root, player),
		generated:   true,
	}
	for _, c := range children {
		s.addNode(0, c)
	}
	s.diag.BranchingFactor.Store(uint64(len(children)))
	reg.Commit(children[0].Move)

	log.Debug().Int("node-budget", budget).Int("root-moves", len(children)).
		Float64("exploration", s.exploration).Msg("mcts-search-starting")
	tstart := time.Now()
	sims := 0
	for {
		if ctx.Err() != nil {
			break
		}
		if s.maxSimulations > 0 && sims >= s.maxSimulations {
			break
		}
		s.simulate(budget)
		sims++
		s.diag.Simulations.Add(1)
		reg.Commit(s.nodes[s.bestRootChild()].move)
	}
	s.diag.Nodes.Store(uint64(len(s.nodes)))
	s.diag.BranchesSearched.Store(uint64(lo.CountBy(s.nodes[0].children, func(ci int32) bool {
		return s.nodes[ci].visits > 0
	})))
	log.Debug().Int("simulations", sims).
		Object("diagnostics", s.diag.Snapshot()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("mcts-search-returning")
	return nil
}

func (s *Solver) addNode(parent int32, c evaluator.Child) int32 {
	idx := int32(len(s.nodes))
	s.nodes = append(s.nodes, node{
		state:       c.State,
		move:        c.Move,
		parent:      parent,
		depth:       s.nodes[parent].depth + 1,
		orientation: search.OrientationFor(c.State, s.player),
	})
	s.nodes[parent].children = append(s.nodes[parent].children, idx)
	if d := uint64(s.nodes[idx].depth); d > s.diag.DepthCompleted.Load() {
		s.diag.DepthCompleted.Store(d)
	}
	return idx
}

// simulate runs one select, expand, rollout, backpropagate cycle.
func (s *Solver) simulate(budget int) {
	idx := int32(0)
	for {
		n := &s.nodes[idx]
		if n.state.IsTerminal() {
			break
		}
		if !n.generated {
			ranked := evaluator.Children(s.eval, s.player, n.state, n.orientation == search.Maximize)
			n.candidates = lo.Map(ranked, func(c evaluator.Child, _ int) game.Move { return c.Move })
			n.generated = true
		}
		if len(n.candidates) > 0 {
			if len(s.nodes) >= budget {
				break
			}
			m := n.candidates[0]
			n.candidates = n.candidates[1:]
			idx = s.addNode(idx, evaluator.Child{Move: m, State: n.state.Apply(m)})
			break
		}
		if len(n.children) == 0 {
			break
		}
		idx = s.selectChild(idx)
	}
	winner := s.rollout(s.nodes[idx].state)
	s.backpropagate(idx, winner)
}

func (s *Solver) ucb1(parent, child *node) float64 {
	if child.visits == 0 {
		return math.Inf(1)
	}
	ratio := float64(child.wins) / float64(child.visits)
	if parent.orientation == search.Minimize {
		ratio = 1 - ratio
	}
	return ratio + s.exploration*math.Sqrt(math.Log(float64(parent.visits))/float64(child.visits))
}

func (s *Solver) selectChild(idx int32) int32 {
	parent := &s.nodes[idx]
	best := parent.children[0]
	bestScore := math.Inf(-1)
	for _, ci := range parent.children {
		score := s.ucb1(parent, &s.nodes[ci])
		if score > bestScore {
			best, bestScore = ci, score
		}
	}
	return best
}

// rollout plays greedily from st and returns the winner. Playouts that run
// too long, or reach a position without moves that the game does not call
// finished, are decided by the sign of the evaluation.
func (s *Solver) rollout(st game.State) game.PlayerID {
	for ply := 0; !st.IsTerminal(); ply++ {
		if ply >= s.maxRolloutPlies {
			return s.adjudicate(st)
		}
		o := search.OrientationFor(st, s.player)
		children := evaluator.Children(s.eval, s.player, st, o == search.Maximize)
		if len(children) == 0 {
			return s.adjudicate(st)
		}
		st = children[0].State
	}
	return st.Winner()
}

func (s *Solver) adjudicate(st game.State) game.PlayerID {
	v := s.eval.Score(s.player, st)
	switch {
	case v > 0:
		return s.player
	case v < 0:
		return game.Opponent(s.player)
	}
	return game.NoPlayer
}

func (s *Solver) backpropagate(idx int32, winner game.PlayerID) {
	won := winner == s.player
	s.nodes[idx].resolved++
	for i := idx; i != noParent; i = s.nodes[i].parent {
		s.nodes[i].visits++
		if won {
			s.nodes[i].wins++
		}
	}
}

func winRatio(n *node) float64 {
	if n.visits == 0 {
		return -1
	}
	return float64(n.wins) / float64(n.visits)
}

// bestRootChild picks the root child with the highest win ratio, breaking
// ties by visit count. Unvisited children rank last.
func (s *Solver) bestRootChild() int32 {
	return lo.MaxBy(s.nodes[0].children, func(a, b int32) bool {
		na, nb := &s.nodes[a], &s.nodes[b]
		ra, rb := winRatio(na), winRatio(nb)
		if ra != rb {
			return ra > rb
		}
		return na.visits > nb.visits
	})
}

// ChildStat summarises one root child after a search.
type ChildStat struct {
	Move   game.Move
	Wins   int
	Visits int
}

func (c ChildStat) WinRatio() float64 {
	if c.Visits == 0 {
		return 0
	}
	return float64(c.Wins) / float64(c.Visits)
}

// RootStats returns the root children of the last search, best first.
func (s *Solver) RootStats() []ChildStat {
	if len(s.nodes) == 0 {
		return nil
	}
	children := slices.Clone(s.nodes[0].children)
	slices.SortStableFunc(children, func(a, b int32) int {
		na, nb := &s.nodes[a], &s.nodes[b]
		if c := cmp.Compare(winRatio(nb), winRatio(na)); c != 0 {
			return c
		}
		return cmp.Compare(nb.visits, na.visits)
	})
	return lo.Map(children, func(ci int32, _ int) ChildStat {
		n := &s.nodes[ci]
		return ChildStat{Move: n.move, Wins: n.wins, Visits: n.visits}
	})
}
