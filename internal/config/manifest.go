package config

import (
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sirily11/argo-backtest-core/internal/feed"
	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// InstrumentEntry binds one bar file (CSV or Parquet) to an instrument identity, its
// timeframe, and its contract spec. Manifest is the on-disk (YAML) form
// of the per-instrument wiring cmd/backtest and cmd/sweep both need,
// letting a multi-instrument run give each file an explicit spec
// instead of hardcoding one symbol.
type InstrumentEntry struct {
	Path string `yaml:"path"`
	// Format selects the bar file's on-disk encoding: "csv" (default)
	// or "parquet" (read via DuckDB's read_parquet, the counterpart to
	// internal/writer's Parquet export).
	Format    string `yaml:"format"`
	Venue     string `yaml:"venue"`
	Base      string `yaml:"base"`
	Quote     string `yaml:"quote"`
	AssetKind string `yaml:"asset_kind"`
	Timeframe int64  `yaml:"timeframe_seconds"`

	PriceTick          decimal.Decimal `yaml:"price_tick"`
	LotStep            decimal.Decimal `yaml:"lot_step"`
	LotMinimum         decimal.Decimal `yaml:"lot_minimum"`
	SettlementCurrency string          `yaml:"settlement_currency"`
	MinLeverage        decimal.Decimal `yaml:"min_leverage"`
	MaxLeverage        decimal.Decimal `yaml:"max_leverage"`
	Board              string          `yaml:"board"`
	IsST               bool            `yaml:"is_st"`
}

// Manifest is the top-level file cmd/backtest and cmd/sweep load to
// learn which bar files back which instruments.
type Manifest struct {
	Instruments []InstrumentEntry `yaml:"instruments"`
}

// LoadManifest reads and parses a manifest YAML file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "failed to read manifest %s", path)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "failed to parse manifest %s", path)
	}

	return manifest, nil
}

func (e InstrumentEntry) id() types.InstrumentID {
	return types.InstrumentID{Venue: e.Venue, Base: e.Base, Quote: e.Quote, AssetKind: types.AssetKind(e.AssetKind)}
}

func (e InstrumentEntry) spec() types.InstrumentSpec {
	return types.InstrumentSpec{
		ID:                 e.id(),
		PriceTick:          e.PriceTick,
		LotStep:            e.LotStep,
		LotMinimum:         e.LotMinimum,
		SettlementCurrency: e.SettlementCurrency,
		MinLeverage:        e.MinLeverage,
		MaxLeverage:        e.MaxLeverage,
		Board:              types.Board(e.Board),
		IsST:               e.IsST,
	}
}

// LoadSources loads every manifest entry's bar file into a feed.Source
// and returns the parallel InstrumentSpecs map the engine needs to
// validate orders against.
func (m Manifest) LoadSources() ([]feed.Source, types.InstrumentSpecs, error) {
	sources := make([]feed.Source, 0, len(m.Instruments))
	specs := make(types.InstrumentSpecs, len(m.Instruments))

	for _, entry := range m.Instruments {
		var (
			source feed.Source
			err    error
		)

		switch entry.Format {
		case "parquet":
			source, err = feed.LoadParquetSource(entry.Path, entry.id(), types.Timeframe(entry.Timeframe))
		default:
			source, err = feed.LoadCSVSource(entry.Path, entry.id(), types.Timeframe(entry.Timeframe))
		}

		if err != nil {
			return nil, nil, err
		}

		sources = append(sources, source)
		specs[entry.id()] = entry.spec()
	}

	return sources, specs, nil
}
