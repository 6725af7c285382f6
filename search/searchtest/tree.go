// Package searchtest provides explicit game trees for exercising the
// searchers.
package searchtest

import (
	"fmt"

	"lukechampine.com/frand"

	"github.com/domino14/anytime/evaluator"
	"github.com/domino14/anytime/game"
)

// Node is a position in an explicit game tree. Value is the static score
// from player 0's point of view.
type Node struct {
	Name     string
	Value    int
	Terminal bool
	Winner   game.PlayerID
	Children []*Node
}

// Leaf returns a non-terminal node without children.
func Leaf(name string, value int) *Node {
	return &Node{Name: name, Value: value, Winner: game.NoPlayer}
}

// Win returns a terminal node won by winner.
func Win(name string, winner game.PlayerID) *Node {
	return &Node{Name: name, Terminal: true, Winner: winner}
}

// Inner returns a node with children.
func Inner(name string, value int, children ...*Node) *Node {
	return &Node{Name: name, Value: value, Winner: game.NoPlayer, Children: children}
}

// State walks a tree. Moves are child names.
type State struct {
	node   *Node
	toMove game.PlayerID
	// Visited, when set, is called for every state produced by Apply.
	Visited func(n *Node)
}

func NewState(root *Node, toMove game.PlayerID) *State {
	return &State{node: root, toMove: toMove}
}

func (s *State) Node() *Node { return s.node }

func (s *State) LegalMoves() []game.Move {
	if s.node.Terminal {
		return nil
	}
	moves := make([]game.Move, len(s.node.Children))
	for i, c := range s.node.Children {
		moves[i] = c.Name
	}
	return moves
}

func (s *State) Apply(m game.Move) game.State {
	for _, c := range s.node.Children {
		if c.Name == m {
			if s.Visited != nil {
				s.Visited(c)
			}
			return &State{node: c, toMove: game.Opponent(s.toMove), Visited: s.Visited}
		}
	}
	panic(fmt.Sprintf("searchtest: %v is not a child of %s", m, s.node.Name))
}

func (s *State) IsTerminal() bool { return s.node.Terminal }

func (s *State) Winner() game.PlayerID {
	if !s.node.Terminal {
		return game.NoPlayer
	}
	return s.node.Winner
}

func (s *State) TurnOf() game.PlayerID { return s.toMove }

// Evaluator scores a State by its node's Value, negated for player 1.
var Evaluator = evaluator.Func{
	Label: "tree",
	Fn: func(p game.PlayerID, s game.State) int {
		v := s.(*State).node.Value
		if p == 1 {
			return -v
		}
		return v
	},
}

// RandomTree builds a uniform tree of the given depth and branching with
// distinct leaf values, so that no two subtrees share a minimax value.
// Inner node values are random and only affect move ordering. A seed
// yields the same tree every time.
func RandomTree(seed byte, depth, branching int) *Node {
	var key [32]byte
	key[0] = seed
	rng := frand.NewCustom(key[:], 1024, 12)
	leaves := 1
	for i := 0; i < depth; i++ {
		leaves *= branching
	}
	values := rng.Perm(leaves * 4)
	next := 0
	var build func(name string, d int) *Node
	build = func(name string, d int) *Node {
		if d == 0 {
			v := values[next] - leaves*2
			next++
			return Leaf(name, v)
		}
		n := Inner(name, rng.Intn(200)-100)
		for i := 0; i < branching; i++ {
			n.Children = append(n.Children, build(fmt.Sprintf("%s.%d", name, i), d-1))
		}
		return n
	}
	return build("r", depth)
}

// Minimax is a plain depth-limited minimax over s for player, scoring
// terminal positions like the alpha-beta engine does.
func Minimax(s game.State, e evaluator.Evaluator, player game.PlayerID, depth int, terminal func(s game.State, depth int) int) int {
	if s.IsTerminal() {
		return terminal(s, depth)
	}
	moves := s.LegalMoves()
	if depth == 0 || len(moves) == 0 {
		return e.Score(player, s)
	}
	maximizing := s.TurnOf() == player
	best := 0
	for i, m := range moves {
		v := Minimax(s.Apply(m), e, player, depth-1, terminal)
		if i == 0 || (maximizing && v > best) || (!maximizing && v < best) {
			best = v
		}
	}
	return best
}
