package shell

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/anytime/automatic"
	"github.com/domino14/anytime/config"
	"github.com/domino14/anytime/evaluator"
	"github.com/domino14/anytime/game"
	"github.com/domino14/anytime/hus"
	"github.com/domino14/anytime/search/alphabeta"
	"github.com/domino14/anytime/search/mcts"
	"github.com/domino14/anytime/turnplayer"
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	maxTurns := sc.config.GetInt(config.ConfigHusMaxTurns)
	if len(cmd.args) > 0 {
		var err error
		maxTurns, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, fmt.Errorf("bad max turns: %w", err)
		}
	}
	sc.board = hus.New(maxTurns)
	sc.history = nil
	return msg(sc.boardText()), nil
}

func (sc *ShellController) boardText() string {
	var sb strings.Builder
	sb.WriteString(sc.board.ToDisplayText())
	switch {
	case !sc.board.IsTerminal():
		pits := lo.Map(sc.board.LegalMoves(), func(m game.Move, _ int) string {
			return m.(hus.Move).String()
		})
		fmt.Fprintf(&sb, "Legal pits: %s", strings.Join(pits, " "))
	case sc.board.Winner() == game.NoPlayer:
		fmt.Fprintf(&sb, "Round limit of %d reached; no winner.", sc.board.MaxTurns())
	default:
		fmt.Fprintf(&sb, "%v has no legal move; %v wins.", game.Opponent(sc.board.Winner()), sc.board.Winner())
	}
	return sb.String()
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.boardText()), nil
}

func (sc *ShellController) applyMove(m hus.Move) error {
	if !slices.Contains(sc.board.LegalMoves(), game.Move(m)) {
		return fmt.Errorf("pit %v is not a legal move for %v", m, sc.board.TurnOf())
	}
	sc.history = append(sc.history, sc.board)
	sc.board = sc.board.Apply(m).(*hus.Board)
	return nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: play <pit>")
	}
	m, err := hus.ParseMove(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if err := sc.applyMove(m); err != nil {
		return nil, err
	}
	return msg(sc.boardText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if len(sc.history) == 0 {
		return nil, errors.New("nothing to undo")
	}
	sc.board = sc.history[len(sc.history)-1]
	sc.history = sc.history[:len(sc.history)-1]
	return msg(sc.boardText()), nil
}

// decide builds a controller from the search arguments and lets it pick a
// move for the current position.
func (sc *ShellController) decide(cmd *shellcmd) (turnplayer.Agent, *turnplayer.Controller, turnplayer.Decision, error) {
	agent := turnplayer.AgentFromConfig(sc.config)
	if len(cmd.args) > 0 {
		agent.Strategy = cmd.args[0]
	}
	if e, ok := cmd.options["evaluator"]; ok {
		agent.Evaluator = e
	}
	c, err := turnplayer.NewControllerForAgent(agent, sc.config)
	if err != nil {
		return agent, nil, turnplayer.Decision{}, err
	}
	if len(cmd.args) > 1 {
		budget, err := time.ParseDuration(cmd.args[1])
		if err != nil {
			return agent, nil, turnplayer.Decision{}, err
		}
		c.SetBudgets(turnplayer.Budgets{First: budget, Subsequent: budget})
	}
	d, err := c.Decide(context.Background(), sc.board)
	return agent, c, d, err
}

// search runs the time-budgeted controller on the current position:
// search [strategy] [budget] [-evaluator name] [-apply true]
func (sc *ShellController) search(cmd *shellcmd) (*Response, error) {
	agent, c, d, err := sc.decide(cmd)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Best move (%v): pit %v\n", agent, d.Move)
	fmt.Fprintf(&sb, "Budget %v, elapsed %v", d.Budget, d.Elapsed.Round(time.Millisecond))
	if d.Fallback {
		sb.WriteString(" (no move committed in time; played the first legal move)")
	}
	sb.WriteString("\n")
	diag, err := yaml.Marshal(d.Diagnostics)
	if err != nil {
		return nil, err
	}
	sb.Write(diag)

	switch eng := c.Engine().(type) {
	case *alphabeta.Solver:
		v, depth := eng.LastValue()
		fmt.Fprintf(&sb, "Value %d at depth %d\n", v, depth)
		if pv := eng.PV(); len(pv.Moves) > 0 {
			sb.WriteString(pv.String() + "\n")
		}
	case *mcts.Solver:
		sb.WriteString("Top root moves:\n")
		for _, st := range lo.Slice(eng.RootStats(), 0, 5) {
			fmt.Fprintf(&sb, "  pit %-3v %6d/%-6d %.3f\n", st.Move, st.Wins, st.Visits, st.WinRatio())
		}
	}
	if cmd.options["apply"] == "true" {
		if err := sc.applyMove(d.Move.(hus.Move)); err != nil {
			return nil, err
		}
		sb.WriteString(sc.boardText())
	}
	return msg(sb.String()), nil
}

// eval scores the position for the player to move with every evaluator, or
// the named ones.
func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	w, err := evaluator.LoadWeights(sc.config.GetString(config.ConfigEvaluatorWeights))
	if err != nil {
		return nil, err
	}
	names := evaluator.Names
	if len(cmd.args) > 0 {
		names = cmd.args
	}
	p := sc.board.TurnOf()
	var sb strings.Builder
	for _, name := range names {
		e := evaluator.ByNameWithWeights(name, w)
		label := e.Name()
		if label != strings.ToLower(strings.TrimSpace(name)) {
			label = fmt.Sprintf("%s (as %s)", name, e.Name())
		}
		fmt.Fprintf(&sb, "%-24s %d\n", label, e.Score(p, sc.board))
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) stopAutoplay() {
	sc.autoplayMu.Lock()
	cancel, done := sc.autoplayCancel, sc.autoplayDone
	sc.autoplayMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// autoplay [games] [-threads n] [-logfile path] [-db path], or autoplay stop
func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 && cmd.args[0] == "stop" {
		sc.autoplayMu.Lock()
		running := sc.autoplayCancel != nil
		sc.autoplayMu.Unlock()
		if !running {
			return nil, errors.New("autoplay is not running")
		}
		sc.stopAutoplay()
		return msg("autoplay stopped"), nil
	}
	opts := automatic.Options{LogFile: sc.config.GetString(config.ConfigAutoplayLogfile)}
	if len(cmd.args) > 0 {
		n, err := strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, fmt.Errorf("bad number of games: %w", err)
		}
		opts.Games = n
	}
	if t, ok := cmd.options["threads"]; ok {
		n, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("bad thread count: %w", err)
		}
		opts.Threads = n
	}
	if f, ok := cmd.options["logfile"]; ok {
		opts.LogFile = f
	}
	dbPath := sc.config.GetString(config.ConfigAutoplayDB)
	if f, ok := cmd.options["db"]; ok {
		dbPath = f
	}

	sc.autoplayMu.Lock()
	defer sc.autoplayMu.Unlock()
	if sc.autoplayCancel != nil {
		return nil, errors.New("autoplay is already running; use autoplay stop")
	}
	ctx, cancel := context.WithCancel(context.Background())
	if dbPath != "" {
		store, err := automatic.OpenStore(ctx, dbPath)
		if err != nil {
			cancel()
			return nil, err
		}
		opts.Store = store
	}
	done := make(chan struct{})
	sc.autoplayCancel, sc.autoplayDone = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		summary, err := automatic.PlayGames(ctx, sc.config, opts)
		if opts.Store != nil {
			opts.Store.Close()
		}
		if err != nil {
			log.Err(err).Msg("autoplay-error")
		}
		if summary != nil {
			sc.showMessage(summary.String())
		}
		sc.autoplayMu.Lock()
		sc.autoplayCancel, sc.autoplayDone = nil, nil
		sc.autoplayMu.Unlock()
	}()
	return msg("autoplay started; use autoplay stop to end early"), nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	path := sc.config.GetString(config.ConfigAutoplayLogfile)
	if len(cmd.args) > 0 {
		path = cmd.args[0]
	}
	report, err := automatic.AnalyzeLogFile(path)
	if err != nil {
		return nil, err
	}
	return msg(report), nil
}

// set shows or changes a setting: set, set <key>, set <key> <value>
func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		out, err := yaml.Marshal(sc.config.SanitizedSettings())
		if err != nil {
			return nil, err
		}
		return msg(strings.TrimRight(string(out), "\n")), nil
	}
	key := cmd.args[0]
	if !slices.Contains(sc.config.AllKeys(), key) {
		return nil, fmt.Errorf("unknown setting %q", key)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%s: %v", key, sc.config.Get(key))), nil
	}
	sc.autoplayMu.Lock()
	running := sc.autoplayCancel != nil
	sc.autoplayMu.Unlock()
	if running {
		return nil, errors.New("cannot change settings while autoplay is running; use autoplay stop")
	}
	sc.config.Set(key, strings.Join(cmd.args[1:], " "))
	return msg(fmt.Sprintf("set %s to %v", key, sc.config.Get(key))), nil
}
