package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SweepConfigTestSuite struct {
	suite.Suite
}

func TestSweepConfigSuite(t *testing.T) {
	suite.Run(t, new(SweepConfigTestSuite))
}

func (suite *SweepConfigTestSuite) TestLoadSweepConfigGridParamSets() {
	path := filepath.Join(suite.T().TempDir(), "sweep.yaml")
	doc := `
mode: grid
axes:
  - name: fast
    values: [2, 4]
  - name: slow
    values: [10, 20]
`
	suite.Require().NoError(os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadSweepConfig(path)
	suite.Require().NoError(err)

	sets, err := cfg.ParamSets()
	suite.Require().NoError(err)
	suite.Len(sets, 4)
}

func (suite *SweepConfigTestSuite) TestLoadSweepConfigRandomParamSetsIsDeterministic() {
	path := filepath.Join(suite.T().TempDir(), "sweep.yaml")
	doc := `
mode: random
samples: 5
seed: 42
axes:
  - name: threshold
    continuous: true
    min: "0"
    max: "1"
`
	suite.Require().NoError(os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadSweepConfig(path)
	suite.Require().NoError(err)

	first, err := cfg.ParamSets()
	suite.Require().NoError(err)

	second, err := cfg.ParamSets()
	suite.Require().NoError(err)

	suite.Equal(first, second)
	suite.Len(first, 5)
}

func (suite *SweepConfigTestSuite) TestWalkForwardConfigWindowsParsesDurations() {
	wf := WalkForwardConfig{
		TrainSpan: "48h",
		TestSpan:  "24h",
		Step:      "72h",
	}
	start, err := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	suite.Require().NoError(err)
	end, err := time.Parse(time.RFC3339, "2024-01-10T00:00:00Z")
	suite.Require().NoError(err)

	wf.Start = start
	wf.End = end

	windows, err := wf.Windows()
	suite.Require().NoError(err)
	suite.NotEmpty(windows)
}

func (suite *SweepConfigTestSuite) TestLoadSweepConfigRejectsMissingFile() {
	_, err := LoadSweepConfig(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.Error(err)
}
