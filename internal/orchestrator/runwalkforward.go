package orchestrator

import (
	"github.com/google/uuid"

	"github.com/sirily11/argo-backtest-core/internal/engine"
	"github.com/sirily11/argo-backtest-core/internal/feed"
	"github.com/sirily11/argo-backtest-core/internal/metrics"
	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// WalkForwardRequest is RunWalkForward's input: the shared engine
// config and full history a sweep would otherwise use unsliced, the
// full candidate parameter space to tune per fold, the folds
// themselves, and the scoring field train-segment selection ranks by
// (default Sharpe ratio).
type WalkForwardRequest struct {
	Config      engine.Config
	Sources     []feed.Source
	Specs       types.InstrumentSpecs
	NewStrategy StrategyFactory
	ParamSets   []map[string]any
	Windows     []WalkForwardWindow
	Score       ScoreField
	MaxWorkers  int
}

// WalkForwardFold is one window's outcome: the parameter set the
// training sweep selected, the score it trained at, and the single
// backtest run out-of-sample against the fold's test segment with
// those parameters held fixed.
type WalkForwardFold struct {
	Window     WalkForwardWindow
	BestParams map[string]any
	TrainScore float64
	TestResult engine.Result
}

// WalkForwardReport is RunWalkForward's output: every fold plus the
// out-of-sample series concatenated across folds in window order, with
// one aggregate metrics.Summary computed over that concatenation
// rather than averaged per-fold.
type WalkForwardReport struct {
	Folds []WalkForwardFold

	EquitySeries []types.EquityPoint
	Fills        []types.Fill
	Rejections   []types.Rejection
	Trades       []types.Trade
	Summary      metrics.Summary
}

// RunWalkForward tunes and evaluates req.ParamSets fold by fold: for
// each window it sweeps every parameter set over the fold's train
// segment, selects the highest-scoring one, then runs a single
// engine.Run against the fold's test segment with that parameter set
// held fixed. The out-of-sample fills, rejections, trades, and equity
// points from every fold are concatenated in window order and reduced
// to one aggregate summary, so the report reflects genuine
// out-of-sample performance rather than the in-sample best score a
// plain parameter crossing would report.
func RunWalkForward(req WalkForwardRequest) (WalkForwardReport, error) {
	if len(req.Windows) == 0 {
		return WalkForwardReport{}, coreerrors.New(coreerrors.ErrCodeWalkForwardInvalid, "walk-forward requires at least one window")
	}

	if len(req.ParamSets) == 0 {
		return WalkForwardReport{}, coreerrors.New(coreerrors.ErrCodeParamSpaceInvalid, "walk-forward requires at least one parameter set")
	}

	if req.NewStrategy == nil {
		return WalkForwardReport{}, coreerrors.New(coreerrors.ErrCodeParamSpaceInvalid, "walk-forward requires a StrategyFactory")
	}

	var timeframeSeconds int64
	for _, source := range req.Sources {
		if bars := source.Bars(); len(bars) > 0 {
			timeframeSeconds = int64(bars[0].Timeframe)
			break
		}
	}

	report := WalkForwardReport{Folds: make([]WalkForwardFold, 0, len(req.Windows))}

	for i, window := range req.Windows {
		trainJobs := make([]Job, 0, len(req.ParamSets))

		for j, params := range req.ParamSets {
			w := window
			trainJobs = append(trainJobs, Job{ID: uuid.NewString(), Index: j, Params: params, Window: &w, Segment: "train"})
		}

		trainResults, err := RunSweep(SweepRequest{
			Config:      req.Config,
			Sources:     req.Sources,
			Specs:       req.Specs,
			NewStrategy: req.NewStrategy,
			Jobs:        trainJobs,
			MaxWorkers:  req.MaxWorkers,
		})
		if err != nil {
			return WalkForwardReport{}, coreerrors.Wrapf(coreerrors.ErrCodeWalkForwardInvalid, err, "fold %d: training sweep failed", i)
		}

		best, err := BestResult(trainResults, req.Score)
		if err != nil {
			return WalkForwardReport{}, coreerrors.Wrapf(coreerrors.ErrCodeWalkForwardInvalid, err, "fold %d: no parameter set trained successfully", i)
		}

		strat := req.NewStrategy()
		if err := strat.Configure(best.Job.Params); err != nil {
			return WalkForwardReport{}, coreerrors.Wrapf(coreerrors.ErrCodeInvalidParameter, err, "fold %d: best parameter set rejected on test segment", i)
		}

		testSources := SliceSources(req.Sources, window.TestStart, window.TestEnd)

		testResult, err := engine.Run(req.Config, testSources, req.Specs, strat)
		if err != nil {
			return WalkForwardReport{}, coreerrors.Wrapf(coreerrors.ErrCodeEngineNotReady, err, "fold %d: out-of-sample run failed", i)
		}

		report.Folds = append(report.Folds, WalkForwardFold{
			Window:     window,
			BestParams: best.Job.Params,
			TrainScore: req.Score.Value(best.Result.Summary),
			TestResult: testResult,
		})

		report.EquitySeries = append(report.EquitySeries, testResult.EquitySeries...)
		report.Fills = append(report.Fills, testResult.Fills...)
		report.Rejections = append(report.Rejections, testResult.Rejections...)
		report.Trades = append(report.Trades, testResult.Trades...)
	}

	barsPerYear := engine.BarsPerYear(req.Config.AnnualizationBasis, timeframeSeconds, req.Specs)
	report.Summary = metrics.Compute(report.EquitySeries, report.Fills, report.Trades, barsPerYear)

	return report, nil
}
