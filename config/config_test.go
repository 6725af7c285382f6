package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetString(ConfigStrategy), "alphabeta")
	is.Equal(cfg.GetString(ConfigEvaluator), "basic")
	is.Equal(cfg.GetDuration(ConfigFirstMoveBudget), 29*time.Second)
	is.Equal(cfg.GetDuration(ConfigMoveBudget), 1900*time.Millisecond)
	is.Equal(cfg.GetFloat64(ConfigMCTSExploration), 1.5)
	is.Equal(cfg.GetInt(ConfigAlphaBetaMaxDepth), 5)
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	err := cfg.Load([]string{"--strategy", "mcts", "--move-budget", "250ms", "--debug"})
	is.NoErr(err)
	is.Equal(cfg.GetString(ConfigStrategy), "mcts")
	is.Equal(cfg.GetDuration(ConfigMoveBudget), 250*time.Millisecond)
	is.True(cfg.GetBool(ConfigDebug))
	// untouched keys keep their defaults
	is.Equal(cfg.GetDuration(ConfigFirstMoveBudget), 29*time.Second)
}

func TestLoadEnv(t *testing.T) {
	is := is.New(t)
	t.Setenv("ANYTIME_EVALUATOR", "capture")
	t.Setenv("ANYTIME_ALPHABETA_MAX_DEPTH", "7")
	cfg := &Config{}
	is.NoErr(cfg.Load(nil))
	is.Equal(cfg.GetString(ConfigEvaluator), "capture")
	is.Equal(cfg.GetInt(ConfigAlphaBetaMaxDepth), 7)
}

func TestLoadFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "anytime.yaml")
	is.NoErr(os.WriteFile(path, []byte("mcts-exploration: 0.7\nautoplay-games: 12\n"), 0o644))
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--config", path}))
	is.Equal(cfg.GetFloat64(ConfigMCTSExploration), 0.7)
	is.Equal(cfg.GetInt(ConfigAutoplayGames), 12)
}

func TestValidate(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.True(cfg.Load([]string{"--move-budget", "0s"}) != nil)
	is.True(cfg.Load([]string{"--mcts-memory-fraction", "1.5"}) != nil)
	is.True(cfg.Load([]string{"--autoplay-threads", "0"}) != nil)
	is.True(cfg.Load([]string{"--no-such-flag"}) != nil)
}

func TestAdjustRelativePaths(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--evaluator-weights-path", "./weights.yaml", "--autoplay-db", "/abs/games.db"}))
	cfg.AdjustRelativePaths("/opt/anytime")
	is.Equal(cfg.GetString(ConfigEvaluatorWeights), "/opt/anytime/weights.yaml")
	is.Equal(cfg.GetString(ConfigAutoplayDB), "/abs/games.db")
}
