package evaluator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/anytime/game"
)

const (
	BasicName     = "basic"
	ImprovedName  = "improved"
	BranchingName = "branching"
	CaptureName   = "capture"
)

// Names lists the built-in evaluators. The first entry is the default.
var Names = []string{BasicName, ImprovedName, BranchingName, CaptureName}

// Weights tunes the weighted evaluators.
type Weights struct {
	Outer        float64 `yaml:"outer"`
	Inner        float64 `yaml:"inner"`
	CaptureBonus int     `yaml:"capture_bonus"`
}

func DefaultWeights() Weights {
	return Weights{Outer: 1.1, Inner: 0.9, CaptureBonus: 1}
}

// LoadWeights reads a YAML weights file. An empty path or a missing file
// yields DefaultWeights. Keys absent from the file keep their defaults.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if path == "" {
		return w, nil
	}
	contents, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", path).Msg("weights-file-missing-using-defaults")
		return w, nil
	}
	if err != nil {
		return w, err
	}
	if err := yaml.Unmarshal(contents, &w); err != nil {
		return DefaultWeights(), fmt.Errorf("parsing weights %s: %w", path, err)
	}
	return w, nil
}

type basic struct{}

func (basic) Name() string { return BasicName }

func (basic) Score(p game.PlayerID, s game.State) int {
	return Material(p, mustBoard(s))
}

type improved struct {
	outer, inner float64
}

func (improved) Name() string { return ImprovedName }

func (e improved) Score(p game.PlayerID, s game.State) int {
	return Regional(p, mustBoard(s), e.outer, e.inner)
}

type branching struct{}

func (branching) Name() string { return BranchingName }

func (branching) Score(p game.PlayerID, s game.State) int {
	return Material(p, mustBoard(s)) + Mobility(p, s)
}

type capture struct {
	bonus int
}

func (capture) Name() string { return CaptureName }

func (e capture) Score(p game.PlayerID, s game.State) int {
	b := mustBoard(s)
	return Material(p, b) + NearCapture(p, b, e.bonus)
}

// ByName returns the named evaluator with default weights. Unknown names
// resolve to the basic evaluator.
func ByName(name string) Evaluator {
	return ByNameWithWeights(name, DefaultWeights())
}

// ByNameWithWeights is ByName with explicit weights for the weighted
// variants.
func ByNameWithWeights(name string, w Weights) Evaluator {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BasicName:
		return basic{}
	case ImprovedName:
		return improved{outer: w.Outer, inner: w.Inner}
	case BranchingName:
		return branching{}
	case CaptureName:
		return capture{bonus: w.CaptureBonus}
	}
	log.Debug().Str("name", name).Msg("unknown-evaluator-using-basic")
	return basic{}
}
