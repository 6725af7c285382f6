// Package automatic plays computer-vs-computer Hus games between two
// configured agents and collects statistics about them.
package automatic

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/anytime/config"
	"github.com/domino14/anytime/game"
	"github.com/domino14/anytime/hus"
	"github.com/domino14/anytime/search"
	"github.com/domino14/anytime/turnplayer"
)

// TurnLogHeader names the columns of the CSV turn log.
var TurnLogHeader = []string{
	"gameID", "turn", "ply", "agent", "player", "pit", "random", "fallback",
	"elapsedMs", "depth", "nodes", "pruned", "seedsP0", "seedsP1",
}

// DecisionRecord is what the runner keeps about one searched move.
type DecisionRecord struct {
	Agent    int
	Elapsed  time.Duration
	Depth    uint64
	Fallback bool
}

// GameResult is the outcome of one self-play game. Agent indexes refer to
// the runner's agents; Swapped means agent 1 moved first.
type GameResult struct {
	ID          game.ID
	Agents      [2]turnplayer.Agent
	Swapped     bool
	WinnerAgent int
	Turns       int
	Plies       int
	Seeds       [2]int
	Decisions   []DecisionRecord
}

// GameRunner plays games between two controllers. It is used by one
// goroutine at a time.
type GameRunner struct {
	config      *config.Config
	agents      [2]turnplayer.Agent
	controllers [2]*turnplayer.Controller
	logchan     chan []string
	randomPlies int
	maxTurns    int
}

// NewGameRunner builds controllers for the configured agent and opponent.
// Turn records are sent to logchan when it is not nil.
func NewGameRunner(logchan chan []string, cfg *config.Config) (*GameRunner, error) {
	r := &GameRunner{
		config:      cfg,
		logchan:     logchan,
		randomPlies: cfg.GetInt(config.ConfigAutoplayRandomPlies),
		maxTurns:    cfg.GetInt(config.ConfigHusMaxTurns),
		agents: [2]turnplayer.Agent{
			turnplayer.AgentFromConfig(cfg),
			turnplayer.OpponentFromConfig(cfg),
		},
	}
	for i, a := range r.agents {
		c, err := turnplayer.NewControllerForAgent(a, cfg)
		if err != nil {
			return nil, fmt.Errorf("agent %d (%v): %w", i, a, err)
		}
		r.controllers[i] = c
	}
	return r, nil
}

// agentFor maps a seat to the agent sitting in it.
func agentFor(p game.PlayerID, swapped bool) int {
	if swapped {
		return 1 - int(p)
	}
	return int(p)
}

// PlayGame plays one full game. The first randomPlies plies are random to
// vary the openings.
func (r *GameRunner) PlayGame(ctx context.Context, swapped bool) (*GameResult, error) {
	var s game.State = hus.New(r.maxTurns)
	res := &GameResult{
		ID:          game.NewID(),
		Agents:      r.agents,
		Swapped:     swapped,
		WinnerAgent: -1,
	}
	for ply := 0; !s.IsTerminal(); ply++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := s.TurnOf()
		ai := agentFor(p, swapped)
		if ply < r.randomPlies {
			m, ok := s.(*hus.Board).RandomMove()
			if !ok {
				break
			}
			r.logTurn(res.ID, s, ply, ai, m, true, turnplayer.Decision{})
			s = s.Apply(m)
			res.Plies = ply + 1
			continue
		}
		d, err := r.controllers[ai].Decide(ctx, s)
		if errors.Is(err, search.ErrNoMoves) {
			break
		}
		if err != nil {
			return nil, err
		}
		if d.Interrupted {
			return nil, ctx.Err()
		}
		r.logTurn(res.ID, s, ply, ai, d.Move, false, d)
		res.Decisions = append(res.Decisions, DecisionRecord{
			Agent:    ai,
			Elapsed:  d.Elapsed,
			Depth:    d.Diagnostics.DepthCompleted,
			Fallback: d.Fallback,
		})
		s = s.Apply(d.Move)
		res.Plies = ply + 1
	}
	b := s.(*hus.Board)
	res.Turns = b.Turn()
	res.Seeds[0], res.Seeds[1] = b.SeedsOnBoard()
	if w := s.Winner(); w != game.NoPlayer {
		res.WinnerAgent = agentFor(w, swapped)
	}
	log.Debug().Str("game-id", string(res.ID)).Int("winner-agent", res.WinnerAgent).
		Int("turns", res.Turns).Msg("game-over")
	return res, nil
}

func (r *GameRunner) logTurn(id game.ID, s game.State, ply, agent int, m game.Move, random bool, d turnplayer.Decision) {
	if r.logchan == nil {
		return
	}
	b := s.(*hus.Board)
	s0, s1 := b.SeedsOnBoard()
	r.logchan <- []string{
		string(id),
		strconv.Itoa(b.Turn()),
		strconv.Itoa(ply),
		r.agents[agent].String(),
		b.TurnOf().String(),
		fmt.Sprint(m),
		strconv.FormatBool(random),
		strconv.FormatBool(d.Fallback),
		strconv.FormatInt(d.Elapsed.Milliseconds(), 10),
		strconv.FormatUint(d.Diagnostics.DepthCompleted, 10),
		strconv.FormatUint(d.Diagnostics.Nodes, 10),
		strconv.FormatUint(d.Diagnostics.Pruned, 10),
		strconv.Itoa(s0),
		strconv.Itoa(s1),
	}
}
