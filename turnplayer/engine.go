package turnplayer

import (
	"fmt"

	"github.com/domino14/anytime/config"
	"github.com/domino14/anytime/evaluator"
	"github.com/domino14/anytime/search"
	"github.com/domino14/anytime/search/alphabeta"
	"github.com/domino14/anytime/search/mcts"
)

// NewEngine builds a searcher of the given strategy, tuned by cfg. A nil
// cfg uses the package defaults.
func NewEngine(strategy search.Strategy, e evaluator.Evaluator, cfg *config.Config) search.Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	switch strategy {
	case search.MonteCarlo:
		s := mcts.NewSolver(e)
		s.SetExploration(cfg.GetFloat64(config.ConfigMCTSExploration))
		s.SetMaxNodes(cfg.GetInt(config.ConfigMCTSMaxNodes))
		s.SetMemoryFraction(cfg.GetFloat64(config.ConfigMCTSMemoryFraction))
		s.SetMaxRolloutPlies(cfg.GetInt(config.ConfigMCTSMaxRolloutPlies))
		return s
	default:
		return alphabeta.NewSolver(e, cfg.GetInt(config.ConfigAlphaBetaMaxDepth))
	}
}

// Agent names the strategy and evaluator a controller is built from.
type Agent struct {
	Strategy  string
	Evaluator string
}

// AgentFromConfig returns the primary agent configured in cfg.
func AgentFromConfig(cfg *config.Config) Agent {
	return Agent{
		Strategy:  cfg.GetString(config.ConfigStrategy),
		Evaluator: cfg.GetString(config.ConfigEvaluator),
	}
}

// OpponentFromConfig returns the second agent used in self-play.
func OpponentFromConfig(cfg *config.Config) Agent {
	return Agent{
		Strategy:  cfg.GetString(config.ConfigOpponentStrategy),
		Evaluator: cfg.GetString(config.ConfigOpponentEvaluator),
	}
}

func (a Agent) String() string {
	return a.Strategy + "/" + a.Evaluator
}

func BudgetsFromConfig(cfg *config.Config) Budgets {
	return Budgets{
		First:      cfg.GetDuration(config.ConfigFirstMoveBudget),
		Subsequent: cfg.GetDuration(config.ConfigMoveBudget),
	}
}

// NewControllerForAgent builds a controller for a, loading evaluator
// weights and budgets from cfg. Unknown evaluator names fall back to the
// default evaluator; an unknown strategy is an error.
func NewControllerForAgent(a Agent, cfg *config.Config) (*Controller, error) {
	strategy, err := search.ParseStrategy(a.Strategy)
	if err != nil {
		return nil, err
	}
	w, err := evaluator.LoadWeights(cfg.GetString(config.ConfigEvaluatorWeights))
	if err != nil {
		return nil, fmt.Errorf("loading evaluator weights: %w", err)
	}
	e := evaluator.ByNameWithWeights(a.Evaluator, w)
	return NewController(NewEngine(strategy, e, cfg), BudgetsFromConfig(cfg)), nil
}
