package orchestrator

import (
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// AxisConfig is the YAML-facing form of ParamAxis.
type AxisConfig struct {
	Name       string          `yaml:"name"`
	Values     []any           `yaml:"values"`
	Continuous bool            `yaml:"continuous"`
	Min        decimal.Decimal `yaml:"min"`
	Max        decimal.Decimal `yaml:"max"`
}

// WalkForwardConfig is the YAML-facing form of a walk-forward roll,
// durations spelled the way time.ParseDuration accepts them (e.g. "720h").
type WalkForwardConfig struct {
	Start     time.Time `yaml:"start"`
	End       time.Time `yaml:"end"`
	TrainSpan string    `yaml:"train_span"`
	TestSpan  string    `yaml:"test_span"`
	Step      string    `yaml:"step"`
}

// Windows parses the config's durations and computes the walk-forward
// roll via WalkForwardWindows.
func (c WalkForwardConfig) Windows() ([]WalkForwardWindow, error) {
	trainSpan, err := time.ParseDuration(c.TrainSpan)
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeWalkForwardInvalid, "invalid train_span", err)
	}

	testSpan, err := time.ParseDuration(c.TestSpan)
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeWalkForwardInvalid, "invalid test_span", err)
	}

	step, err := time.ParseDuration(c.Step)
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeWalkForwardInvalid, "invalid step", err)
	}

	return WalkForwardWindows(c.Start, c.End, trainSpan, testSpan, step)
}

// SweepConfig is the on-disk description of a parameter sweep: its axes,
// sampling strategy, and an optional walk-forward roll. It mirrors
// internal/config's EngineConfig YAML-loading pattern so cmd/sweep can
// read its whole job description from one file, the way cmd/backtest
// reads its engine config.
type SweepConfig struct {
	Axes        []AxisConfig       `yaml:"axes"`
	Mode        string             `yaml:"mode"`
	Samples     int                `yaml:"samples"`
	Seed        uint64             `yaml:"seed"`
	WalkForward *WalkForwardConfig `yaml:"walk_forward"`

	// Score names the metrics.Summary field the sweep's ranked report
	// (and, for a walk-forward roll, each fold's train-segment
	// parameter selection) sorts by. Empty defaults to Sharpe ratio.
	Score ScoreField `yaml:"score"`
}

// LoadSweepConfig reads and parses a SweepConfig YAML file.
func LoadSweepConfig(path string) (SweepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SweepConfig{}, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "failed to read sweep config %s", path)
	}

	var config SweepConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return SweepConfig{}, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "failed to parse sweep config %s", path)
	}

	return config, nil
}

// ParamSpace converts the config's axes into a ParamSpace.
func (c SweepConfig) ParamSpace() ParamSpace {
	axes := make([]ParamAxis, len(c.Axes))
	for i, axis := range c.Axes {
		axes[i] = ParamAxis{Name: axis.Name, Values: axis.Values, Continuous: axis.Continuous, Min: axis.Min, Max: axis.Max}
	}

	return ParamSpace{Axes: axes}
}

// ParamSets draws the configured parameter sets: an exhaustive grid, or
// n random/Latin-hypercube samples depending on Mode.
func (c SweepConfig) ParamSets() ([]map[string]any, error) {
	space := c.ParamSpace()

	switch c.Mode {
	case "random":
		return space.Random(c.Samples, c.Seed)
	case "latin_hypercube":
		return space.LatinHypercube(c.Samples, c.Seed)
	default:
		return space.Grid()
	}
}
