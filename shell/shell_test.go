package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

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

func testController(t *testing.T) (*ShellController, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	if err := cfg.Load([]string{"--alphabeta-max-depth", "2", "--first-move-budget", "200ms", "--move-budget", "200ms"}); err != nil {
		t.Fatal(err)
	}
	out := &bytes.Buffer{}
	return &ShellController{config: cfg, out: out, board: hus.New(0)}, out
}

func run(t *testing.T, sc *ShellController, line string) (*Response, error) {
	t.Helper()
	return sc.standardModeSwitch(line, make(chan os.Signal, 1))
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autoplay -logfile /path/to/log.txt",
			&shellcmd{"autoplay", nil, map[string]string{"logfile": "/path/to/log.txt"}},
			nil},
		{"autoplay stop",
			&shellcmd{"autoplay", []string{"stop"}, map[string]string{}},
			nil},
		{"search mcts 2s -evaluator capture ",
			&shellcmd{"search",
				[]string{"mcts", "2s"},
				map[string]string{"evaluator": "capture"}},
			nil,
		},
		{`set autoplay-logfile "/tmp/my games.csv"`,
			&shellcmd{"set", []string{"autoplay-logfile", "/tmp/my games.csv"}, map[string]string{}},
			nil},
		{"search mcts -evaluator",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestPlayAndUndo(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	start := sc.board
	resp, err := run(t, sc, "play 5")
	is.NoErr(err)
	assert.Contains(t, resp.message, "p1 to move")
	is.Equal(sc.board.TurnOf(), game.PlayerID(1))

	_, err = run(t, sc, "play 99")
	is.True(err != nil)
	_, err = run(t, sc, "play")
	is.True(err != nil)

	_, err = run(t, sc, "undo")
	is.NoErr(err)
	is.Equal(sc.board, start)
	_, err = run(t, sc, "undo")
	is.True(err != nil)
}

func TestNewGame(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	_, err := run(t, sc, "play 3")
	is.NoErr(err)
	resp, err := run(t, sc, "new 40")
	is.NoErr(err)
	is.Equal(sc.board.MaxTurns(), 40)
	is.Equal(len(sc.history), 0)
	assert.Contains(t, resp.message, "turn 0, p0 to move")
}

func TestSearchCommand(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	resp, err := run(t, sc, "search alphabeta 100ms -apply true")
	is.NoErr(err)
	assert.Contains(t, resp.message, "Best move (alphabeta/basic)")
	assert.Contains(t, resp.message, "branching_factor: 32")
	assert.Contains(t, resp.message, "Value ")
	is.Equal(len(sc.history), 1)

	resp, err = run(t, sc, "search mcts 100ms -evaluator capture")
	is.NoErr(err)
	assert.Contains(t, resp.message, "Top root moves")
	is.Equal(len(sc.history), 1)

	_, err = run(t, sc, "search dice")
	is.True(err != nil)
}

func TestEvalCommand(t *testing.T) {
	sc, _ := testController(t)
	resp, err := run(t, sc, "eval")
	assert.NoError(t, err)
	for _, name := range []string{"basic", "improved", "branching", "capture"} {
		assert.Contains(t, resp.message, name)
	}
	resp, err = run(t, sc, "eval nonsense")
	assert.NoError(t, err)
	assert.Contains(t, resp.message, "nonsense (as basic)")
}

func TestSetCommand(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	resp, err := run(t, sc, "set strategy mcts")
	is.NoErr(err)
	is.Equal(resp.message, "set strategy to mcts")
	is.Equal(sc.config.GetString(config.ConfigStrategy), "mcts")

	resp, err = run(t, sc, "set move-budget")
	is.NoErr(err)
	is.Equal(resp.message, "move-budget: 200ms")

	resp, err = run(t, sc, "set")
	is.NoErr(err)
	assert.Contains(t, resp.message, "strategy: mcts")

	_, err = run(t, sc, "set no-such-key 3")
	is.True(err != nil)
}

func TestHelpAndUnknown(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	resp, err := run(t, sc, "help")
	is.NoErr(err)
	assert.Contains(t, resp.message, "autoplay stop")
	resp, err = run(t, sc, "help search")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "search [strategy]"))
	resp, err = run(t, sc, "help nothing")
	is.NoErr(err)
	assert.Contains(t, resp.message, "no help text")

	_, err = run(t, sc, "frobnicate")
	is.True(err != nil)
}

func TestExit(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	sig := make(chan os.Signal, 1)
	_, err := sc.standardModeSwitch("exit", sig)
	is.Equal(err, errQuit)
	is.Equal(<-sig, os.Signal(syscall.SIGINT))
}

func TestAutoplayCommand(t *testing.T) {
	is := is.New(t)
	sc, out := testController(t)
	sc.config.Set(config.ConfigHusMaxTurns, 4)
	sc.config.Set(config.ConfigMoveBudget, "5ms")
	sc.config.Set(config.ConfigFirstMoveBudget, "5ms")
	sc.config.Set(config.ConfigOpponentStrategy, "alphabeta")

	_, err := run(t, sc, "autoplay stop")
	is.True(err != nil)

	resp, err := run(t, sc, "autoplay 50 -threads 1 -logfile "+t.TempDir()+"/turns.csv")
	is.NoErr(err)
	assert.Contains(t, resp.message, "autoplay started")
	_, err = run(t, sc, "autoplay 2")
	is.True(err != nil)
	// settings are shared with the running games
	_, err = run(t, sc, "set strategy mcts")
	is.True(err != nil)
	is.Equal(sc.config.GetString(config.ConfigStrategy), "alphabeta")
	resp, err = run(t, sc, "set strategy")
	is.NoErr(err)
	is.Equal(resp.message, "strategy: alphabeta")

	sc.stopAutoplay()
	assert.Contains(t, out.String(), "Games played:")
}

func TestCompleter(t *testing.T) {
	sc, _ := testController(t)
	c := &ShellCompleter{sc: sc}
	got, n := c.Do([]rune("sea"), 3)
	assert.Equal(t, 3, n)
	assert.Equal(t, [][]rune{[]rune("rch")}, got)

	got, _ = c.Do([]rune("search -evaluator ca"), 20)
	assert.Equal(t, [][]rune{[]rune("pture")}, got)

	got, n = c.Do([]rune("search "), 7)
	assert.Equal(t, 0, n)
	assert.Len(t, got, 2)
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.lua")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScriptCommand(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	path := writeScript(t, `
local json = require("json")
local r = anytime_new("40")
if string.sub(r, 1, 6) == "ERROR:" then error(r) end
r = anytime_search("alphabeta 50ms")
if string.sub(r, 1, 9) ~= "Best move" then error(r) end
local d, err = anytime_decide("alphabeta 50ms -evaluator capture")
if d == nil then error(err) end
r = anytime_play(tostring(d.pit))
if string.sub(r, 1, 6) == "ERROR:" then error(r) end
return json.encode({agent = d.agent, branching = d.diagnostics.branching_factor})
`)
	resp, err := run(t, sc, "script "+path)
	is.NoErr(err)
	assert.Contains(t, resp.message, `"agent":"alphabeta/capture"`)
	assert.Contains(t, resp.message, `"branching":32`)
	is.Equal(sc.board.MaxTurns(), 40)
	is.Equal(len(sc.history), 1)
	is.Equal(sc.board.TurnOf(), game.PlayerID(1))
}

func TestScriptCommandErrors(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	_, err := run(t, sc, "script")
	is.True(err != nil)

	// command failures come back to the script as strings
	path := writeScript(t, `
local r = anytime_play("99")
local d, err = anytime_decide("dice")
return r .. "|" .. tostring(d) .. "|" .. err
`)
	resp, err := run(t, sc, "script "+path)
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "ERROR: "))
	assert.Contains(t, resp.message, "|nil|")
	is.Equal(len(sc.history), 0)

	path = writeScript(t, `error("boom")`)
	_, err = run(t, sc, "script "+path)
	is.True(err != nil)
	assert.Contains(t, err.Error(), "boom")
}
