package bot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/anytime/game"
	"github.com/domino14/anytime/hus"
)

const DefaultRequestAttempts = 3

type Client struct {
	nc       *nats.Conn
	channel  string
	attempts uint
}

func NewClient(nc *nats.Conn, channel string) *Client {
	return &Client{nc: nc, channel: channel, attempts: DefaultRequestAttempts}
}

// MakeRequest serialises b for the bot. An empty strategy uses the bot's
// default; a zero budget uses the bot's configured budgets.
func MakeRequest(b *hus.Board, strategy string, budget time.Duration) ([]byte, error) {
	req := Request{
		ToMove:   int(b.TurnOf()),
		Turn:     b.Turn(),
		MaxTurns: b.MaxTurns(),
		Strategy: strategy,
		BudgetMs: int(budget.Milliseconds()),
	}
	for p := range req.Seeds {
		req.Seeds[p] = append([]int(nil), b.Seeds(game.PlayerID(p))...)
	}
	return json.Marshal(req)
}

// ParseResponse turns a bot reply into a move.
func ParseResponse(data []byte) (hus.Move, *Response, error) {
	resp := &Response{}
	if err := json.Unmarshal(data, resp); err != nil {
		return hus.Move{}, nil, err
	}
	if resp.Error != "" {
		return hus.Move{}, resp, errors.New("bot returned: " + resp.Error)
	}
	return hus.Move{Pit: resp.Pit}, resp, nil
}

// RequestMove sends b to the bot and returns its move. Transport failures
// are retried with backoff; an error reported by the bot is not.
func (c *Client) RequestMove(ctx context.Context, b *hus.Board, strategy string, budget time.Duration) (hus.Move, error) {
	data, err := MakeRequest(b, strategy, budget)
	if err != nil {
		return hus.Move{}, err
	}
	// leave the bot its whole budget plus some slack.
	timeout := budget + 5*time.Second
	if budget == 0 {
		timeout = time.Minute
	}
	return retry.DoWithData(
		func() (hus.Move, error) {
			res, err := c.nc.Request(c.channel, data, timeout)
			if err != nil {
				if c.nc.LastError() != nil {
					log.Error().Err(c.nc.LastError()).Msg("nats-last-error")
				}
				return hus.Move{}, err
			}
			m, _, err := ParseResponse(res.Data)
			if err != nil {
				return hus.Move{}, retry.Unrecoverable(err)
			}
			return m, nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("bot-request-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
}
