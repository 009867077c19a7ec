package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestDefaultValidates() {
	suite.NoError(Default().Validate())
}

func (suite *ConfigTestSuite) TestValidateRejectsNonPositiveCapital() {
	cfg := Default()
	cfg.InitialCapital = 0
	suite.Error(cfg.Validate())
}

func (suite *ConfigTestSuite) TestValidateRejectsUnknownGapPolicy() {
	cfg := Default()
	cfg.GapPolicy = "ignore"
	suite.Error(cfg.Validate())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLLiftsOptionalWindow() {
	yamlDoc := `
initial_capital: 5000
commission_rate: 0.001
slippage_bps: 5
gap_policy: abort
annualization_basis: "365"
warmup_bars: 30
start_time: 2024-01-01T00:00:00Z
`
	var cfg EngineConfig
	suite.Require().NoError(yaml.Unmarshal([]byte(yamlDoc), &cfg))

	suite.Equal(5000.0, cfg.InitialCapital)
	suite.Equal(GapPolicyAbort, cfg.GapPolicy)
	suite.True(cfg.StartTime.IsSome())
	suite.True(cfg.StartTime.Unwrap().Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	suite.False(cfg.EndTime.IsSome())

	suite.NoError(cfg.Validate())
}

func (suite *ConfigTestSuite) TestToEngineConfigConvertsRates() {
	cfg := Default()
	cfg.CommissionRate = 0.002

	engineCfg := cfg.ToEngineConfig()
	suite.InDelta(cfg.InitialCapital, engineCfg.InitialCapital.InexactFloat64(), 1e-9)
	suite.InDelta(0.002, engineCfg.CommissionRateOverride.InexactFloat64(), 1e-9)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSONProducesNonEmptyDocument() {
	schemaJSON, err := GenerateSchemaJSON()
	suite.NoError(err)
	suite.NotEmpty(schemaJSON)
}

func (suite *ConfigTestSuite) TestLoadEngineConfigFileReadsYAML() {
	path := filepath.Join(suite.T().TempDir(), "engine.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("initial_capital: 25000\ngap_policy: skip\nannualization_basis: auto\n"), 0o644))

	cfg, err := LoadEngineConfigFile(path)
	suite.Require().NoError(err)
	suite.Equal(25000.0, cfg.InitialCapital)
	suite.NoError(cfg.Validate())
}

func (suite *ConfigTestSuite) TestLoadEngineConfigFileRejectsMissingFile() {
	_, err := LoadEngineConfigFile(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.Error(err)
}
