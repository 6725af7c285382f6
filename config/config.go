package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug               = "debug"
	ConfigStrategy            = "strategy"
	ConfigEvaluator           = "evaluator"
	ConfigEvaluatorWeights    = "evaluator-weights-path"
	ConfigAlphaBetaMaxDepth   = "alphabeta-max-depth"
	ConfigFirstMoveBudget     = "first-move-budget"
	ConfigMoveBudget          = "move-budget"
	ConfigMCTSExploration     = "mcts-exploration"
	ConfigMCTSMaxNodes        = "mcts-max-nodes"
	ConfigMCTSMemoryFraction  = "mcts-memory-fraction"
	ConfigMCTSMaxRolloutPlies = "mcts-max-rollout-plies"
	ConfigHusMaxTurns         = "hus-max-turns"
	ConfigNatsURL             = "nats-url"
	ConfigBotChannel          = "bot-channel"
	ConfigAutoplayGames       = "autoplay-games"
	ConfigAutoplayThreads     = "autoplay-threads"
	ConfigAutoplayLogfile     = "autoplay-logfile"
	ConfigAutoplayDB          = "autoplay-db"
	ConfigAutoplayRandomPlies = "autoplay-random-plies"
	ConfigOpponentStrategy    = "opponent-strategy"
	ConfigOpponentEvaluator   = "opponent-evaluator"
	ConfigCPUProfile          = "cpu-profile"
)

// Config wraps a viper instance. Settings come from, in increasing
// priority: defaults, a config file, ANYTIME_* environment variables and
// command-line flags.
type Config struct {
	viper.Viper
}

func DefaultConfig() *Config {
	c := &Config{Viper: *viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigStrategy, "alphabeta")
	c.SetDefault(ConfigEvaluator, "basic")
	c.SetDefault(ConfigEvaluatorWeights, "")
	c.SetDefault(ConfigAlphaBetaMaxDepth, 5)
	c.SetDefault(ConfigFirstMoveBudget, 29*time.Second)
	c.SetDefault(ConfigMoveBudget, 1900*time.Millisecond)
	c.SetDefault(ConfigMCTSExploration, 1.5)
	c.SetDefault(ConfigMCTSMaxNodes, 0)
	c.SetDefault(ConfigMCTSMemoryFraction, 0.05)
	c.SetDefault(ConfigMCTSMaxRolloutPlies, 2000)
	c.SetDefault(ConfigHusMaxTurns, 500)
	c.SetDefault(ConfigNatsURL, "nats://localhost:4222")
	c.SetDefault(ConfigBotChannel, "anytime.bot")
	c.SetDefault(ConfigAutoplayGames, 100)
	c.SetDefault(ConfigAutoplayThreads, 4)
	c.SetDefault(ConfigAutoplayLogfile, "/tmp/autoplay.csv")
	c.SetDefault(ConfigAutoplayDB, "")
	c.SetDefault(ConfigAutoplayRandomPlies, 2)
	c.SetDefault(ConfigOpponentStrategy, "mcts")
	c.SetDefault(ConfigOpponentEvaluator, "basic")
	c.SetDefault(ConfigCPUProfile, "")
}

// Load resets c and fills it from defaults, command-line args and the
// environment. A --config flag names an optional YAML/TOML/JSON settings
// file.
func (c *Config) Load(args []string) error {
	c.Viper = *viper.New()
	c.setDefaults()
	fs := pflag.NewFlagSet("anytime", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, c.GetBool(ConfigDebug), "debug logging on")
	fs.String(ConfigStrategy, c.GetString(ConfigStrategy), "search strategy: alphabeta or mcts")
	fs.String(ConfigEvaluator, c.GetString(ConfigEvaluator), "evaluator: basic, improved, branching or capture")
	fs.String(ConfigEvaluatorWeights, c.GetString(ConfigEvaluatorWeights), "YAML file with evaluator weights")
	fs.Int(ConfigAlphaBetaMaxDepth, c.GetInt(ConfigAlphaBetaMaxDepth), "maximum alpha-beta depth")
	fs.Duration(ConfigFirstMoveBudget, c.GetDuration(ConfigFirstMoveBudget), "time budget for the first decision")
	fs.Duration(ConfigMoveBudget, c.GetDuration(ConfigMoveBudget), "time budget for later decisions")
	fs.Float64(ConfigMCTSExploration, c.GetFloat64(ConfigMCTSExploration), "UCB1 exploration constant")
	fs.Int(ConfigMCTSMaxNodes, c.GetInt(ConfigMCTSMaxNodes), "MCTS node cap, 0 to size from memory")
	fs.Float64(ConfigMCTSMemoryFraction, c.GetFloat64(ConfigMCTSMemoryFraction), "fraction of memory for the MCTS tree")
	fs.Int(ConfigMCTSMaxRolloutPlies, c.GetInt(ConfigMCTSMaxRolloutPlies), "longest MCTS rollout")
	fs.Int(ConfigHusMaxTurns, c.GetInt(ConfigHusMaxTurns), "turns before a Hus game is drawn")
	fs.String(ConfigNatsURL, c.GetString(ConfigNatsURL), "NATS server URL")
	fs.String(ConfigBotChannel, c.GetString(ConfigBotChannel), "NATS subject the bot listens on")
	fs.Int(ConfigAutoplayGames, c.GetInt(ConfigAutoplayGames), "number of self-play games")
	fs.Int(ConfigAutoplayThreads, c.GetInt(ConfigAutoplayThreads), "self-play worker goroutines")
	fs.String(ConfigAutoplayLogfile, c.GetString(ConfigAutoplayLogfile), "CSV turn log for self-play")
	fs.String(ConfigAutoplayDB, c.GetString(ConfigAutoplayDB), "SQLite file for self-play results")
	fs.Int(ConfigAutoplayRandomPlies, c.GetInt(ConfigAutoplayRandomPlies), "random opening plies per self-play game")
	fs.String(ConfigOpponentStrategy, c.GetString(ConfigOpponentStrategy), "second agent's strategy in self-play")
	fs.String(ConfigOpponentEvaluator, c.GetString(ConfigOpponentEvaluator), "second agent's evaluator in self-play")
	fs.String(ConfigCPUProfile, c.GetString(ConfigCPUProfile), "write a CPU profile here")
	cfgFile := fs.String("config", "", "settings file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix("anytime")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if *cfgFile != "" {
		c.SetConfigFile(*cfgFile)
		if err := c.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("reading %s: %w", *cfgFile, err)
			}
		}
	}
	return c.validate()
}

func (c *Config) validate() error {
	if c.GetDuration(ConfigFirstMoveBudget) <= 0 || c.GetDuration(ConfigMoveBudget) <= 0 {
		return errors.New("move budgets must be positive")
	}
	if f := c.GetFloat64(ConfigMCTSMemoryFraction); f <= 0 || f > 1 {
		return fmt.Errorf("%s must be in (0, 1], got %v", ConfigMCTSMemoryFraction, f)
	}
	if c.GetInt(ConfigAutoplayThreads) < 1 {
		return fmt.Errorf("%s must be at least 1", ConfigAutoplayThreads)
	}
	return nil
}

// AdjustRelativePaths makes relative file settings relative to basepath,
// normally the executable's directory.
func (c *Config) AdjustRelativePaths(basepath string) {
	for _, key := range []string{ConfigEvaluatorWeights, ConfigAutoplayDB} {
		p := c.GetString(key)
		if p != "" && !filepath.IsAbs(p) && strings.HasPrefix(p, "./") {
			c.Set(key, filepath.Join(basepath, p))
		}
	}
}

// SanitizedSettings returns all settings for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
