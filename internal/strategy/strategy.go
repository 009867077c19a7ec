// Package strategy defines the sole place alpha lives: the Strategy
// interface strategies implement and the typed parameter schema used to
// validate their configuration once at startup: each strategy declares a
// ParamSchema that checks the keys, types, and bounds of its params map.
package strategy

import (
	"github.com/sirily11/argo-backtest-core/internal/log"
	"github.com/sirily11/argo-backtest-core/internal/marker"
	"github.com/sirily11/argo-backtest-core/internal/types"
	"github.com/sirily11/argo-backtest-core/internal/version"
)

// Metadata describes a strategy's declared requirements, read by the
// engine before the run starts to size history windows and validate
// instrument/timeframe compatibility.
type Metadata struct {
	Name          string
	EngineVersion string
	// RequiredHistory is the minimum count of prior closed bars the
	// scheduler must accumulate before invoking OnBar (the warm-up
	// period).
	RequiredHistory int
	Instruments     []types.InstrumentID
	Timeframes      []types.Timeframe
	AllowShort      bool
}

// Context is the read-only facility passed to a strategy alongside each
// bar: logging and marking, both purely observational with no callbacks
// into the engine.
type Context struct {
	Log    log.Log
	Marker marker.Marker
}

// Strategy is the interface every strategy implements. Configure is
// called once before the run; OnBar is called once per warmed-up tick;
// OnFill is optional and must not issue orders.
type Strategy interface {
	Metadata() Metadata
	Configure(params map[string]any) error
	OnBar(frame types.BarFrame, ctx Context) ([]types.Signal, error)
}

// FillAware is implemented by strategies that want post-fill
// notification. It is checked with a type assertion by the engine; a
// strategy that only implements Strategy simply never receives fills.
type FillAware interface {
	OnFill(fill types.Fill) error
}

// CheckEngineCompatible validates a strategy's declared engine version
// against the running engine version, using a major/minor-must-match,
// patch-may-differ semver rule.
func CheckEngineCompatible(m Metadata) error {
	return version.CheckVersionCompatibility(version.GetVersion(), m.EngineVersion)
}
