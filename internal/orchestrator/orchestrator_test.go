package orchestrator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/sirily11/argo-backtest-core/internal/engine"
	"github.com/sirily11/argo-backtest-core/internal/feed"
	"github.com/sirily11/argo-backtest-core/internal/strategy"
	"github.com/sirily11/argo-backtest-core/internal/types"
)

type OrchestratorTestSuite struct {
	suite.Suite
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func (suite *OrchestratorTestSuite) instrument() types.InstrumentID {
	return types.InstrumentID{Venue: "binance", Base: "BTC", Quote: "USDT", AssetKind: types.AssetKindCryptoSpot}
}

func (suite *OrchestratorTestSuite) specs(instrument types.InstrumentID) types.InstrumentSpecs {
	return types.InstrumentSpecs{instrument: {
		ID:                 instrument,
		PriceTick:          decimal.NewFromFloat(0.01),
		LotStep:            decimal.NewFromFloat(0.0001),
		LotMinimum:         decimal.NewFromFloat(0.0001),
		SettlementCurrency: "USDT",
	}}
}

func (suite *OrchestratorTestSuite) bars(instrument types.InstrumentID, closes []float64) []types.Bar {
	bars := make([]types.Bar, 0, len(closes))

	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		bars = append(bars, types.Bar{
			Instrument: instrument,
			Timeframe:  types.Timeframe(3600),
			TOpen:      time.Unix(int64(i)*3600, 0),
			Open:       p, High: p, Low: p, Close: p,
			Volume: decimal.NewFromInt(1),
		})
	}

	return bars
}

func (suite *OrchestratorTestSuite) TestRunSweepCoversEveryParamSetAndPreservesOrder() {
	instrument := suite.instrument()
	closes := []float64{100, 100, 100, 100, 100, 200, 200, 200, 100, 100, 100, 100}
	source := feed.NewInMemorySource(instrument, types.Timeframe(3600), suite.bars(instrument, closes))

	space := ParamSpace{Axes: []ParamAxis{
		{Name: "fast", Values: []any{2, 3}},
		{Name: "slow", Values: []any{4, 6}},
	}}

	paramSets, err := space.Grid()
	suite.Require().NoError(err)

	for i := range paramSets {
		paramSets[i]["position_size"] = decimal.NewFromInt(1)
		paramSets[i]["allow_short"] = false
	}

	jobs := NewJobs(paramSets, nil)
	suite.Require().Len(jobs, 4)

	req := SweepRequest{
		Config:      engine.Config{InitialCapital: decimal.NewFromInt(10000), SlippageBps: 0},
		Sources:     []feed.Source{source},
		Specs:       suite.specs(instrument),
		NewStrategy: func() strategy.Strategy { return strategy.NewDualMACrossover() },
		Jobs:        jobs,
		MaxWorkers:  2,
	}

	results, err := RunSweep(req)
	suite.Require().NoError(err)
	suite.Require().Len(results, 4)

	for i, result := range results {
		suite.Equal(i, result.Job.Index)
		suite.NoError(result.Err)
	}
}

func (suite *OrchestratorTestSuite) TestRunSweepRejectsEmptyJobs() {
	req := SweepRequest{NewStrategy: func() strategy.Strategy { return strategy.NewDualMACrossover() }}

	_, err := RunSweep(req)
	suite.Error(err)
}

func (suite *OrchestratorTestSuite) TestRunSweepPropagatesPerJobConfigureFailure() {
	instrument := suite.instrument()
	source := feed.NewInMemorySource(instrument, types.Timeframe(3600), suite.bars(instrument, []float64{100, 101, 102}))

	jobs := []Job{
		{ID: "bad", Index: 0, Params: map[string]any{"fast": 10, "slow": 2}},
	}

	req := SweepRequest{
		Config:      engine.Config{InitialCapital: decimal.NewFromInt(10000)},
		Sources:     []feed.Source{source},
		Specs:       suite.specs(instrument),
		NewStrategy: func() strategy.Strategy { return strategy.NewDualMACrossover() },
		Jobs:        jobs,
	}

	results, err := RunSweep(req)
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Error(results[0].Err)
}

func (suite *OrchestratorTestSuite) TestRunSweepSlicesSourcesPerWalkForwardWindow() {
	instrument := suite.instrument()
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}

	source := feed.NewInMemorySource(instrument, types.Timeframe(3600), suite.bars(instrument, closes))

	window := WalkForwardWindow{
		TrainStart: time.Unix(0, 0),
		TrainEnd:   time.Unix(5*3600, 0),
		TestStart:  time.Unix(5*3600, 0),
		TestEnd:    time.Unix(10*3600, 0),
	}

	jobs := NewJobs([]map[string]any{{"fast": 2, "slow": 4, "position_size": decimal.NewFromInt(1), "allow_short": false}}, []WalkForwardWindow{window})
	suite.Require().Len(jobs, 1)
	suite.Equal("test", jobs[0].Segment)

	req := SweepRequest{
		Config:      engine.Config{InitialCapital: decimal.NewFromInt(10000)},
		Sources:     []feed.Source{source},
		Specs:       suite.specs(instrument),
		NewStrategy: func() strategy.Strategy { return strategy.NewDualMACrossover() },
		Jobs:        jobs,
	}

	results, err := RunSweep(req)
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.NoError(results[0].Err)
}
