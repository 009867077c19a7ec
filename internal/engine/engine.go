// Package engine implements the single-backtest run loop: scheduler →
// strategy → translator → rule gate → matching → ledger → metrics, run
// synchronously over one logical clock. It is exposed as the pure
// function Run(config, sources, specs, strategy), rather than a
// stateful, multi-phase Initialize/Run object.
package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/clock"
	"github.com/sirily11/argo-backtest-core/internal/feed"
	"github.com/sirily11/argo-backtest-core/internal/ledger"
	"github.com/sirily11/argo-backtest-core/internal/log"
	"github.com/sirily11/argo-backtest-core/internal/marker"
	"github.com/sirily11/argo-backtest-core/internal/matching"
	"github.com/sirily11/argo-backtest-core/internal/metrics"
	"github.com/sirily11/argo-backtest-core/internal/rules"
	"github.com/sirily11/argo-backtest-core/internal/strategy"
	"github.com/sirily11/argo-backtest-core/internal/translate"
	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// Config holds the enumerated engine options.
type Config struct {
	InitialCapital decimal.Decimal
	SlippageBps    int64
	GapPolicy      feed.GapPolicy

	// AnnualizationBasis overrides the per-asset-kind default (365 for
	// crypto, 252 for A-share) when non-zero.
	AnnualizationBasis float64

	// WarmupBars overrides the strategy's declared RequiredHistory when
	// larger.
	WarmupBars int

	// HistoryWindow bounds how many closed bars are retained per
	// instrument for BarFrame.History; if zero it defaults to the larger
	// of WarmupBars and the strategy's RequiredHistory (at least 1).
	HistoryWindow int

	// CommissionRateOverride, MaintenanceMarginRate, and
	// LiquidationPenaltyBps override internal/rules' asset-kind
	// defaults when set; the run's gate resolver is built from these.
	// MaxLeverage, when positive, replaces every crypto_perp instrument
	// spec's MaxLeverage for the run.
	CommissionRateOverride  decimal.Decimal
	MaxLeverage             decimal.Decimal
	MaintenanceMarginRate   decimal.Decimal
	LiquidationPenaltyBps   int64

	// Tolerant enables StrategyFault's tolerant mode: a
	// failing on_bar call is treated as emitting no signals instead of
	// aborting the run.
	Tolerant bool

	// Clock dates A-share T+1 lock rollovers; a nil Clock defaults to
	// clock.ShanghaiClock{}. Tests inject a clock.Fixed date to exercise
	// a rollover without needing bars that actually span a real
	// Shanghai midnight.
	Clock clock.Clock

	Log    log.Log
	Marker marker.Marker
}

// Result is the core's output.
type Result struct {
	Summary      metrics.Summary
	EquitySeries []types.EquityPoint
	Fills        []types.Fill
	Rejections   []types.Rejection
	Trades       []types.Trade
}

// Run replays history bar-by-bar against strat and produces a Result.
// It is the pure core entry point: synchronous, single-threaded, and
// deterministic for identical inputs. strat must
// already be Configure'd; Run never touches strategy parameters itself,
// so the same strategy value can be reused across a parameter sweep by
// reconfiguring it between independent Run calls (internal/orchestrator
// instead constructs one fresh strategy per job, so even that reuse
// never happens across concurrent goroutines).
func Run(config Config, sources []feed.Source, specs types.InstrumentSpecs, strat strategy.Strategy) (Result, error) {
	metadata := strat.Metadata()
	if err := strategy.CheckEngineCompatible(metadata); err != nil {
		return Result{}, err
	}

	warmup := config.WarmupBars
	if metadata.RequiredHistory > warmup {
		warmup = metadata.RequiredHistory
	}

	historyWindow := config.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = warmup
	}

	if historyWindow <= 0 {
		historyWindow = 1
	}

	if config.MaxLeverage.IsPositive() {
		capped := make(types.InstrumentSpecs, len(specs))
		for id, spec := range specs {
			if id.AssetKind == types.AssetKindCryptoPerp {
				spec.MaxLeverage = config.MaxLeverage
			}

			capped[id] = spec
		}

		specs = capped
	}

	gateResolver := config.buildGateResolver()

	scheduler := feed.NewScheduler(sources, warmup, config.GapPolicy)
	window := feed.NewWindow(historyWindow)
	matcher := matching.NewMatcher(config.SlippageBps, gateResolver)

	clk := config.Clock
	if clk == nil {
		clk = clock.ShanghaiClock{}
	}

	portfolio := ledger.NewPortfolioWithClock(config.InitialCapital, clk)

	logger := config.Log
	if logger == nil {
		logger = log.NewInMemoryLog()
	}

	markerImpl := config.Marker
	if markerImpl == nil {
		markerImpl = marker.NewInMemoryMarker()
	}

	strategyCtx := strategy.Context{Log: logger, Marker: markerImpl}

	fillAware, isFillAware := strat.(strategy.FillAware)

	lastClose := make(map[types.InstrumentID]decimal.Decimal)
	pending := make(map[types.InstrumentID][]types.Order)

	seq := 0
	nextSeq := func() int { seq++; return seq }

	var allFills []types.Fill
	var allRejections []types.Rejection

	var timeframeSeconds int64

	for {
		tick, ok, err := scheduler.Next()
		if err != nil {
			return Result{}, err
		}

		if !ok {
			break
		}

		bar := tick.Bar
		instrument := bar.Instrument

		if timeframeSeconds == 0 {
			timeframeSeconds = int64(bar.Timeframe)
		}

		portfolio.RollTPlusOne(instrument, bar.TOpen)

		nextOpens := map[types.InstrumentID]decimal.Decimal{instrument: bar.Open}
		refCloses := map[types.InstrumentID]decimal.Decimal{instrument: lastClose[instrument]}

		liquidations, err := matcher.CheckLiquidations(portfolio.Snapshot(), specs, nextOpens, tick.BarIndex, bar.TOpen)
		if err != nil {
			return Result{}, err
		}

		for _, fill := range liquidations {
			if _, err := portfolio.ApplyFill(fill, specs); err != nil {
				return Result{}, err
			}

			allFills = append(allFills, fill)

			if isFillAware {
				if err := fillAware.OnFill(fill); err != nil && !config.Tolerant {
					return Result{}, coreerrors.Wrapf(coreerrors.ErrCodeStrategyFault, err, "strategy OnFill failed")
				}
			}
		}

		if queued := pending[instrument]; len(queued) > 0 {
			fills, rejections, err := matcher.Match(queued, specs, portfolio.Snapshot(), nextOpens, refCloses, bar.TOpen)
			if err != nil {
				return Result{}, err
			}

			for _, fill := range fills {
				if _, err := portfolio.ApplyFill(fill, specs); err != nil {
					return Result{}, err
				}

				allFills = append(allFills, fill)

				if isFillAware {
					if err := fillAware.OnFill(fill); err != nil && !config.Tolerant {
						return Result{}, coreerrors.Wrapf(coreerrors.ErrCodeStrategyFault, err, "strategy OnFill failed")
					}
				}
			}

			allRejections = append(allRejections, rejections...)
			pending[instrument] = nil
		}

		lastClose[instrument] = bar.Close
		portfolio.Mark(lastClose, specs, bar.TClose(), tick.BarIndex)

		if tick.WarmedUp {
			frame := types.BarFrame{
				Instrument: instrument,
				Timeframe:  bar.Timeframe,
				Current:    bar,
				History:    window.History(instrument),
				Ledger:     portfolio.Snapshot(),
				BarIndex:   tick.BarIndex,
			}

			signals, err := strat.OnBar(frame, strategyCtx)
			if err != nil {
				if !config.Tolerant {
					return Result{}, coreerrors.Wrapf(coreerrors.ErrCodeStrategyFault, err, "strategy OnBar failed")
				}

				signals = nil
			}

			orders, rejections, err := translate.Translate(signals, portfolio.Snapshot(), tick.BarIndex, nextSeq)
			if err != nil {
				return Result{}, err
			}

			allRejections = append(allRejections, rejections...)
			pending[instrument] = append(pending[instrument], orders...)
		}

		window.Add(bar)
	}

	equitySeries := portfolio.EquitySeries()
	trades := portfolio.Trades()

	barsPerYear := BarsPerYear(config.AnnualizationBasis, timeframeSeconds, specs)
	summary := metrics.Compute(equitySeries, allFills, trades, barsPerYear)

	return Result{
		Summary:      summary,
		EquitySeries: equitySeries,
		Fills:        allFills,
		Rejections:   allRejections,
		Trades:       trades,
	}, nil
}

// BarsPerYear derives the annualization factor metrics.Compute needs
// from override (zero defers to the dominant instrument's asset-kind
// default) and the run's bar timeframe. internal/orchestrator reuses it
// to annualize a walk-forward's concatenated out-of-sample series the
// same way a single run annualizes its own.
func BarsPerYear(override float64, timeframeSeconds int64, specs types.InstrumentSpecs) float64 {
	if timeframeSeconds <= 0 {
		return 0
	}

	daysPerYear := override
	if daysPerYear == 0 {
		daysPerYear = metrics.DaysPerYear(dominantAssetKind(specs))
	}

	secondsPerDay := float64(24 * time.Hour / time.Second)

	return daysPerYear * secondsPerDay / float64(timeframeSeconds)
}

func dominantAssetKind(specs types.InstrumentSpecs) types.AssetKind {
	if len(specs) == 0 {
		return types.AssetKindCryptoSpot
	}

	ids := make([]types.InstrumentID, 0, len(specs))
	for id := range specs {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].Symbol() < ids[j].Symbol() })

	return ids[0].AssetKind
}

func (c Config) buildGateResolver() matching.GateResolver {
	return func(kind types.AssetKind) (rules.Gate, error) {
		switch kind {
		case types.AssetKindCryptoSpot:
			rate := c.CommissionRateOverride
			if rate.IsZero() {
				return rules.GetGate(kind)
			}

			return rules.NewCryptoSpotGate(rate), nil
		case types.AssetKindCryptoPerp:
			if c.CommissionRateOverride.IsZero() && c.MaintenanceMarginRate.IsZero() && c.LiquidationPenaltyBps == 0 {
				return rules.GetGate(kind)
			}

			rate := c.CommissionRateOverride
			if rate.IsZero() {
				rate = decimal.NewFromFloat(0.0010)
			}

			maintenance := c.MaintenanceMarginRate
			if maintenance.IsZero() {
				maintenance = decimal.NewFromFloat(0.005)
			}

			penalty := decimal.NewFromInt(c.LiquidationPenaltyBps).Div(decimal.NewFromInt(10000))
			if c.LiquidationPenaltyBps == 0 {
				penalty = decimal.NewFromFloat(0.01)
			}

			return rules.NewCryptoPerpGate(rate, maintenance, penalty), nil
		default:
			return rules.GetGate(kind)
		}
	}
}
