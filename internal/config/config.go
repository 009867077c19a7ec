// Package config defines the validated, YAML-serializable configuration
// for a single engine run: a flat struct with a custom YAML unmarshaler
// for its optional start/end window, struct-tag validation via
// go-playground/validator, and a JSON-schema generator for tooling.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	validator "github.com/go-playground/validator/v10"

	"github.com/sirily11/argo-backtest-core/internal/engine"
	"github.com/sirily11/argo-backtest-core/internal/feed"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// GapPolicyName is the YAML-facing spelling of feed.GapPolicy.
type GapPolicyName string

const (
	GapPolicySkip  GapPolicyName = "skip"
	GapPolicyAbort GapPolicyName = "abort"
)

// AnnualizationBasisName selects the metrics day-count convention;
// "auto" defers to the per-asset-kind default (365 crypto / 252 A-share).
type AnnualizationBasisName string

const (
	AnnualizationBasisAuto AnnualizationBasisName = "auto"
	AnnualizationBasis365  AnnualizationBasisName = "365"
	AnnualizationBasis252  AnnualizationBasisName = "252"
)

// EngineConfig is the validated input to internal/engine.Run.
type EngineConfig struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting cash for the run,minimum=0" validate:"gt=0"`

	CommissionRate float64 `yaml:"commission_rate" json:"commission_rate" jsonschema:"title=Commission Rate,description=Override of the asset kind's default commission rate; zero means use the default" validate:"gte=0,lt=1"`

	SlippageBps int64 `yaml:"slippage_bps" json:"slippage_bps" jsonschema:"title=Slippage (bps),description=Unfavorable price perturbation applied to every fill" validate:"gte=0"`

	GapPolicy GapPolicyName `yaml:"gap_policy" json:"gap_policy" jsonschema:"title=Gap Policy,description=How the scheduler reacts to a missing bar" validate:"oneof=skip abort"`

	AnnualizationBasis AnnualizationBasisName `yaml:"annualization_basis" json:"annualization_basis" jsonschema:"title=Annualization Basis,description=Day-count convention for annualized metrics" validate:"oneof=auto 365 252"`

	MaxLeverage decimal.Decimal `yaml:"max_leverage" json:"max_leverage" jsonschema:"title=Max Leverage,description=crypto_perp leverage ceiling; zero means use the instrument spec's own MaxLeverage"`

	MaintenanceMarginRate float64 `yaml:"maintenance_margin_rate" json:"maintenance_margin_rate" jsonschema:"title=Maintenance Margin Rate,description=crypto_perp maintenance margin ratio; zero means use the default" validate:"gte=0,lt=1"`

	LiquidationPenaltyBps int64 `yaml:"liquidation_penalty_bps" json:"liquidation_penalty_bps" jsonschema:"title=Liquidation Penalty (bps),description=crypto_perp forced-liquidation penalty; zero means use the default" validate:"gte=0"`

	WarmupBars int `yaml:"warmup_bars" json:"warmup_bars" jsonschema:"title=Warm-up Bars,description=Minimum trailing bars before the strategy is invoked; raised to the strategy's own requirement if larger" validate:"gte=0"`

	StrategyTolerant bool `yaml:"strategy_tolerant" json:"strategy_tolerant" jsonschema:"title=Strategy Tolerant,description=Treat a failing on_bar call as emitting no signals instead of aborting the run"`

	StartTime optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional lower bound on history; parsed only: ToEngineConfig does not pass it on and the run replays every supplied bar"`
	EndTime   optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional upper bound on history; parsed only: ToEngineConfig does not pass it on and the run replays every supplied bar"`
}

// UnmarshalYAML implements custom unmarshaling for EngineConfig's
// optional start/end window: a plain *time.Time in the wire struct,
// lifted into optional.Option after decode.
func (c *EngineConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type wireConfig struct {
		InitialCapital        float64                `yaml:"initial_capital"`
		CommissionRate        float64                `yaml:"commission_rate"`
		SlippageBps           int64                  `yaml:"slippage_bps"`
		GapPolicy             GapPolicyName          `yaml:"gap_policy"`
		AnnualizationBasis    AnnualizationBasisName `yaml:"annualization_basis"`
		MaxLeverage           decimal.Decimal        `yaml:"max_leverage"`
		MaintenanceMarginRate float64                `yaml:"maintenance_margin_rate"`
		LiquidationPenaltyBps int64                  `yaml:"liquidation_penalty_bps"`
		WarmupBars            int                    `yaml:"warmup_bars"`
		StrategyTolerant      bool                   `yaml:"strategy_tolerant"`
		StartTime             *time.Time             `yaml:"start_time"`
		EndTime               *time.Time             `yaml:"end_time"`
	}

	var wire wireConfig
	if err := unmarshal(&wire); err != nil {
		return err
	}

	c.InitialCapital = wire.InitialCapital
	c.CommissionRate = wire.CommissionRate
	c.SlippageBps = wire.SlippageBps
	c.GapPolicy = wire.GapPolicy
	c.AnnualizationBasis = wire.AnnualizationBasis
	c.MaxLeverage = wire.MaxLeverage
	c.MaintenanceMarginRate = wire.MaintenanceMarginRate
	c.LiquidationPenaltyBps = wire.LiquidationPenaltyBps
	c.WarmupBars = wire.WarmupBars
	c.StrategyTolerant = wire.StrategyTolerant

	if wire.StartTime != nil {
		c.StartTime = optional.Some(*wire.StartTime)
	}

	if wire.EndTime != nil {
		c.EndTime = optional.Some(*wire.EndTime)
	}

	return nil
}

// Default returns a config with the engine's reference defaults: a 5bps
// slippage model, skip-on-gap, and auto annualization.
func Default() EngineConfig {
	return EngineConfig{
		InitialCapital:     10000,
		SlippageBps:        5,
		GapPolicy:          GapPolicySkip,
		AnnualizationBasis: AnnualizationBasisAuto,
		WarmupBars:         0,
	}
}

// LoadEngineConfigFile reads and parses an EngineConfig from a YAML
// file up front, before constructing the engine.
func LoadEngineConfigFile(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "failed to read engine config %s", path)
	}

	var config EngineConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return EngineConfig{}, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "failed to parse engine config %s", path)
	}

	return config, nil
}

// Validate runs struct-tag validation.
func (c EngineConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeInvalidConfig, "invalid engine config", err)
	}

	return nil
}

// FeedGapPolicy translates the YAML-facing name to feed.GapPolicy.
func (c EngineConfig) FeedGapPolicy() feed.GapPolicy {
	if c.GapPolicy == GapPolicyAbort {
		return feed.GapPolicyAbort
	}

	return feed.GapPolicySkip
}

// AnnualizationBasisDays returns the day-count override for
// internal/metrics, or zero to defer to the per-asset-kind default.
func (c EngineConfig) AnnualizationBasisDays() float64 {
	switch c.AnnualizationBasis {
	case AnnualizationBasis365:
		return 365
	case AnnualizationBasis252:
		return 252
	default:
		return 0
	}
}

// ToEngineConfig converts the validated YAML config into the engine's
// own Config, resolving bps/rate overrides to decimal.Decimal.
func (c EngineConfig) ToEngineConfig() engine.Config {
	return engine.Config{
		InitialCapital:         decimal.NewFromFloat(c.InitialCapital),
		SlippageBps:            c.SlippageBps,
		GapPolicy:              c.FeedGapPolicy(),
		AnnualizationBasis:     c.AnnualizationBasisDays(),
		WarmupBars:             c.WarmupBars,
		CommissionRateOverride: decimal.NewFromFloat(c.CommissionRate),
		MaxLeverage:            c.MaxLeverage,
		MaintenanceMarginRate:  decimal.NewFromFloat(c.MaintenanceMarginRate),
		LiquidationPenaltyBps:  c.LiquidationPenaltyBps,
		Tolerant:               c.StrategyTolerant,
	}
}

// GenerateSchema produces a JSON schema for EngineConfig using a
// required-from-tags, expanded-struct reflector setup.
func GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(&EngineConfig{})
	schema.Title = "argo-backtest-core-engine-config"
	schema.Description = "Configuration schema for a single backtest engine run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON renders GenerateSchema as indented JSON.
func GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", coreerrors.Wrap(coreerrors.ErrCodeInvalidConfig, "failed to marshal engine config schema", err)
	}

	return string(schemaBytes), nil
}
