package bot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/anytime/config"
	"github.com/domino14/anytime/game"
	"github.com/domino14/anytime/hus"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testBot(t *testing.T) *Bot {
	t.Helper()
	cfg := &config.Config{}
	if err := cfg.Load([]string{"--alphabeta-max-depth", "2", "--first-move-budget", "2s", "--move-budget", "2s"}); err != nil {
		t.Fatal(err)
	}
	return NewBot(cfg)
}

func TestHandleRoundTrip(t *testing.T) {
	is := is.New(t)
	bot := testBot(t)
	b := hus.New(0)
	data, err := MakeRequest(b, "", 0)
	is.NoErr(err)

	resp := bot.handle(context.Background(), data)
	is.Equal(resp.Error, "")
	out, err := json.Marshal(resp)
	is.NoErr(err)

	m, parsed, err := ParseResponse(out)
	is.NoErr(err)
	assert.Contains(t, b.LegalMoves(), game.Move(m))
	is.True(!parsed.Fallback)
	is.Equal(parsed.Diagnostics.BranchingFactor, uint64(len(b.LegalMoves())))
}

func TestHandleWithStrategyAndBudget(t *testing.T) {
	is := is.New(t)
	bot := testBot(t)
	b := hus.New(0)
	data, err := MakeRequest(b.Apply(hus.Move{Pit: 4}).(*hus.Board), "mcts", 30*time.Millisecond)
	is.NoErr(err)
	var req Request
	is.NoErr(json.Unmarshal(data, &req))
	is.Equal(req.ToMove, 1)
	is.Equal(req.BudgetMs, 30)

	resp := bot.handle(context.Background(), data)
	is.Equal(resp.Error, "")
	is.True(resp.Pit >= 0 && resp.Pit < hus.NumPits)
	is.True(resp.Diagnostics != nil)
}

func TestHandleBadRequests(t *testing.T) {
	bot := testBot(t)
	cases := map[string]string{
		"not json":   `{"seeds":`,
		"short row":  `{"seeds":[[2,2],[2,2]],"to_move":0}`,
		"bad player": `{"seeds":[[],[]],"to_move":5}`,
	}
	full := make([]int, hus.NumPits)
	for i := range full {
		full[i] = 2
	}
	mk := func(r Request) string {
		r.Seeds = [2][]int{full, full}
		data, _ := json.Marshal(r)
		return string(data)
	}
	cases["bad strategy"] = mk(Request{Strategy: "coinflip"})
	cases["negative budget"] = mk(Request{BudgetMs: -5})

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := bot.handle(context.Background(), []byte(body))
			assert.Equal(t, -1, resp.Pit)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandleNoMoves(t *testing.T) {
	is := is.New(t)
	bot := testBot(t)
	empty := make([]int, hus.NumPits)
	full := make([]int, hus.NumPits)
	for i := range full {
		full[i] = 4
	}
	data, err := json.Marshal(Request{Seeds: [2][]int{empty, full}, ToMove: 0})
	is.NoErr(err)
	resp := bot.handle(context.Background(), data)
	is.Equal(resp.Pit, -1)
	assert.Contains(t, resp.Error, "no legal moves")
}

func TestDeserializeWrapsBadRequest(t *testing.T) {
	is := is.New(t)
	_, _, err := testBot(t).Deserialize([]byte(`{"seeds":[[1],[1]]}`))
	is.True(errors.Is(err, ErrBadRequest))
	is.True(errors.Is(err, hus.ErrWrongSeedCount))
}

func TestParseResponseError(t *testing.T) {
	is := is.New(t)
	_, resp, err := ParseResponse([]byte(`{"pit":-1,"error":"could not decide"}`))
	is.True(err != nil)
	is.Equal(resp.Error, "could not decide")
}
