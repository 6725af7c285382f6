// Package turnplayer turns an anytime searcher into a player that answers
// within a fixed time budget per decision.
package turnplayer

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/anytime/game"
	"github.com/domino14/anytime/search"
)

// Budgets are the wall-clock allowances for a decision. The first decision
// of a game usually gets a much larger allowance.
type Budgets struct {
	First      time.Duration `yaml:"first"`
	Subsequent time.Duration `yaml:"subsequent"`
}

func DefaultBudgets() Budgets {
	return Budgets{First: 29 * time.Second, Subsequent: 1900 * time.Millisecond}
}

// Decision is the outcome of one Decide call.
type Decision struct {
	Move game.Move
	// Fallback is set when the searcher had not committed anything and the
	// first legal move was played instead.
	Fallback    bool
	Interrupted bool
	Elapsed     time.Duration
	Budget      time.Duration
	Diagnostics search.Snapshot
}

// Controller runs an engine for at most one budget per decision and
// returns whatever the engine has committed when time is up.
type Controller struct {
	engine    search.Engine
	budgets   Budgets
	decisions int
}

func NewController(engine search.Engine, budgets Budgets) *Controller {
	return &Controller{engine: engine, budgets: budgets}
}

func (c *Controller) Engine() search.Engine { return c.engine }

func (c *Controller) Budgets() Budgets { return c.budgets }

func (c *Controller) SetBudgets(b Budgets) { c.budgets = b }

// Decisions returns how many decisions the controller has made.
func (c *Controller) Decisions() int { return c.decisions }

// budgetFor picks the first-move budget on a state's first turn. States
// that do not report turns get it on the controller's first decision.
func (c *Controller) budgetFor(s game.State) time.Duration {
	first := c.decisions == 0
	if t, ok := s.(game.Turner); ok {
		first = t.Turn() == 0
	}
	if first {
		return c.budgets.First
	}
	return c.budgets.Subsequent
}

// Decide searches s for the player on turn and returns a move once the
// budget runs out, ctx is done, or the search finishes on its own. It
// returns search.ErrNoMoves when s has no legal move. Any other search
// failure is logged and the committed move, or the fallback, is still
// returned.
func (c *Controller) Decide(ctx context.Context, s game.State) (Decision, error) {
	tstart := time.Now()
	moves := s.LegalMoves()
	if len(moves) == 0 {
		return Decision{}, search.ErrNoMoves
	}
	budget := c.budgetFor(s)
	c.decisions++

	h := search.Start(ctx, c.engine, s, s.TurnOf())
	timer := time.NewTimer(budget - time.Since(tstart))
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-h.Done():
	case <-ctx.Done():
	}
	interrupted := ctx.Err() != nil
	if interrupted {
		log.Debug().Msg("decision-interrupted")
	}
	h.Cancel()
	if err := h.Wait(); err != nil {
		log.Warn().Err(err).Msg("search-failed")
	}

	d := Decision{
		Interrupted: interrupted,
		Budget:      budget,
		Diagnostics: h.Diagnostics(),
	}
	m, ok := h.BestMove()
	if !ok {
		log.Warn().Int("legal-moves", len(moves)).Msg("register-empty-using-first-legal-move")
		m = moves[0]
		d.Fallback = true
	}
	d.Move = m
	d.Elapsed = time.Since(tstart)

	log.Debug().
		Interface("move", m).
		Bool("fallback", d.Fallback).
		Dur("budget", budget).
		Dur("elapsed", d.Elapsed).
		Object("diagnostics", d.Diagnostics).
		Msg("decision-made")
	return d, nil
}
