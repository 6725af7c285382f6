// Package bot serves move decisions over NATS request/reply. A request
// carries a Hus position as JSON and the reply carries the chosen pit.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/anytime/config"
	"github.com/domino14/anytime/game"
	"github.com/domino14/anytime/hus"
	"github.com/domino14/anytime/search"
	"github.com/domino14/anytime/turnplayer"
)

var ErrBadRequest = errors.New("bad request")

// Request is a position to move in. Empty strategy or evaluator fields use
// the bot's configured agent; a zero budget uses the configured budgets.
type Request struct {
	Seeds     [2][]int `json:"seeds"`
	ToMove    int      `json:"to_move"`
	Turn      int      `json:"turn"`
	MaxTurns  int      `json:"max_turns,omitempty"`
	Strategy  string   `json:"strategy,omitempty"`
	Evaluator string   `json:"evaluator,omitempty"`
	BudgetMs  int      `json:"budget_ms,omitempty"`
}

// Response carries the chosen pit, or Pit -1 and an error message.
type Response struct {
	Pit         int              `json:"pit"`
	Fallback    bool             `json:"fallback,omitempty"`
	ElapsedMs   int64            `json:"elapsed_ms,omitempty"`
	Diagnostics *search.Snapshot `json:"diagnostics,omitempty"`
	Error       string           `json:"error,omitempty"`
}

func errorResponse(message string, err error) *Response {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &Response{Pit: -1, Error: msg}
}

type Bot struct {
	config *config.Config
	agent  turnplayer.Agent
}

func NewBot(cfg *config.Config) *Bot {
	return &Bot{config: cfg, agent: turnplayer.AgentFromConfig(cfg)}
}

// Deserialize parses and validates a request.
func (bot *Bot) Deserialize(data []byte) (*hus.Board, *Request, error) {
	req := &Request{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if req.BudgetMs < 0 {
		return nil, nil, fmt.Errorf("%w: negative budget", ErrBadRequest)
	}
	maxTurns := req.MaxTurns
	if maxTurns == 0 {
		maxTurns = bot.config.GetInt(config.ConfigHusMaxTurns)
	}
	b, err := hus.FromSeeds(req.Seeds, game.PlayerID(req.ToMove), req.Turn, maxTurns)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return b, req, nil
}

func (bot *Bot) controllerFor(req *Request) (*turnplayer.Controller, error) {
	a := bot.agent
	if req.Strategy != "" {
		a.Strategy = req.Strategy
	}
	if req.Evaluator != "" {
		a.Evaluator = req.Evaluator
	}
	c, err := turnplayer.NewControllerForAgent(a, bot.config)
	if err != nil {
		return nil, err
	}
	if req.BudgetMs > 0 {
		budget := time.Duration(req.BudgetMs) * time.Millisecond
		c.SetBudgets(turnplayer.Budgets{First: budget, Subsequent: budget})
	}
	return c, nil
}

func (bot *Bot) handle(ctx context.Context, data []byte) *Response {
	b, req, err := bot.Deserialize(data)
	if err != nil {
		return errorResponse("could not parse request", err)
	}
	c, err := bot.controllerFor(req)
	if err != nil {
		return errorResponse("could not create player", err)
	}
	d, err := c.Decide(ctx, b)
	if err != nil {
		return errorResponse("could not decide", err)
	}
	diag := d.Diagnostics
	m := d.Move.(hus.Move)
	log.Info().Int("pit", m.Pit).Bool("fallback", d.Fallback).Msg("generated-move")
	return &Response{
		Pit:         m.Pit,
		Fallback:    d.Fallback,
		ElapsedMs:   d.Elapsed.Milliseconds(),
		Diagnostics: &diag,
	}
}

// connect dials NATS, retrying with backoff until ctx is done.
func connect(ctx context.Context, url string) (*nats.Conn, error) {
	var nc *nats.Conn
	err := retry.Do(
		func() error {
			var err error
			nc, err = nats.Connect(url, nats.Name("anytime-bot"))
			return err
		},
		retry.Context(ctx),
		retry.UntilSucceeded(),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Str("url", url).Msg("nats-connect-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	return nc, err
}

// Main serves requests on channel until ctx is done.
func Main(ctx context.Context, channel string, bot *Bot) error {
	nc, err := connect(ctx, bot.config.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Close()

	sub, err := nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Int("bytes", len(m.Data)).Msg("request-received")
		resp := bot.handle(ctx, m.Data)
		data, err := json.Marshal(resp)
		if err != nil {
			// Should never happen, but the requester still needs an answer.
			m.Respond([]byte(err.Error()))
			return
		}
		if err := m.Respond(data); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	log.Info().Str("channel", channel).Msg("listening")

	<-ctx.Done()
	log.Info().Msg("bot-shutting-down")
	if err := sub.Drain(); err != nil {
		return err
	}
	return nil
}
