package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/sirily11/argo-backtest-core/internal/clock"
	"github.com/sirily11/argo-backtest-core/internal/feed"
	"github.com/sirily11/argo-backtest-core/internal/strategy"
	"github.com/sirily11/argo-backtest-core/internal/types"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) instrument() types.InstrumentID {
	return types.InstrumentID{Venue: "binance", Base: "BTC", Quote: "USDT", AssetKind: types.AssetKindCryptoSpot}
}

func (suite *EngineTestSuite) specs(instrument types.InstrumentID) types.InstrumentSpecs {
	return types.InstrumentSpecs{instrument: {
		ID:                 instrument,
		PriceTick:          decimal.NewFromFloat(0.01),
		LotStep:            decimal.NewFromFloat(0.0001),
		LotMinimum:         decimal.NewFromFloat(0.0001),
		SettlementCurrency: "USDT",
	}}
}

func barsAt(instrument types.InstrumentID, closes []float64) []types.Bar {
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

func (suite *EngineTestSuite) TestFlatMarketDualMAProducesNoTradesAndNoDrawdown() {
	instrument := suite.instrument()
	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 100
	}

	source := feed.NewInMemorySource(instrument, types.Timeframe(3600), barsAt(instrument, flat))

	strat := strategy.NewDualMACrossover()
	suite.Require().NoError(strat.Configure(map[string]any{"fast": 2, "slow": 5, "position_size": decimal.NewFromInt(1)}))

	result, err := Run(Config{InitialCapital: decimal.NewFromInt(10000), SlippageBps: 5}, []feed.Source{source}, suite.specs(instrument), strat)

	suite.Require().NoError(err)
	suite.Empty(result.Fills)
	suite.Equal(0, result.Summary.TotalTrades)
	suite.InDelta(0, result.Summary.MaxDrawdown, 1e-9)
}

func (suite *EngineTestSuite) TestSingleRoundTripFillsNextBarOpenWithSlippage() {
	instrument := suite.instrument()
	closes := []float64{100, 100, 100, 100, 100, 200, 200, 200, 100, 100, 100, 100}
	source := feed.NewInMemorySource(instrument, types.Timeframe(3600), barsAt(instrument, closes))

	strat := strategy.NewDualMACrossover()
	suite.Require().NoError(strat.Configure(map[string]any{"fast": 2, "slow": 4, "position_size": decimal.NewFromInt(1)}))

	result, err := Run(Config{InitialCapital: decimal.NewFromInt(10000), SlippageBps: 5}, []feed.Source{source}, suite.specs(instrument), strat)

	suite.Require().NoError(err)
	suite.NotEmpty(result.Fills)

	for _, fill := range result.Fills {
		suite.True(fill.FillPrice.GreaterThan(decimal.Zero))
	}

	// The up-cross is signalled on bar 5's close and the down-cross on bar
	// 8's close; each fills at the following bar's open (200, then 100)
	// moved 5bps against the order's side.
	suite.Require().Len(result.Fills, 2)
	suite.Equal(6, result.Fills[0].FillBarIndex)
	suite.True(result.Fills[0].FillPrice.Equal(decimal.NewFromFloat(200.1)), "got %s", result.Fills[0].FillPrice)
	suite.Equal(9, result.Fills[1].FillBarIndex)
	suite.True(result.Fills[1].FillPrice.Equal(decimal.NewFromFloat(99.95)), "got %s", result.Fills[1].FillPrice)
}

func (suite *EngineTestSuite) TestLimitOrderNeverFillsOnABarItWasSubmitted() {
	instrument := suite.instrument()
	closes := []float64{100, 101, 102, 103, 104}
	source := feed.NewInMemorySource(instrument, types.Timeframe(3600), barsAt(instrument, closes))

	// The limit of 101 is met by the submitting bar's own close (101) but
	// not by the next bar's open (102), so the order expires unfilled.
	strat := &fixedSignalStrategy{
		instrument: instrument,
		onBarIndex: 1,
		signal: types.LimitOrder(instrument, types.OrderSideBuy, decimal.NewFromInt(1), decimal.NewFromInt(101), "test"),
	}

	result, err := Run(Config{InitialCapital: decimal.NewFromInt(10000), SlippageBps: 0}, []feed.Source{source}, suite.specs(instrument), strat)

	suite.Require().NoError(err)
	suite.Empty(result.Fills)
	suite.NotEmpty(result.Rejections)
	suite.Equal(types.ReasonLimitExpired, result.Rejections[0].Reason)
}

// fixedSignalStrategy emits one fixed signal on a chosen bar index, for
// exercising the translator/matcher pipeline without a real alpha model.
type fixedSignalStrategy struct {
	instrument types.InstrumentID
	onBarIndex int
	signal     types.Signal
	emitted    bool
}

func (s *fixedSignalStrategy) Metadata() strategy.Metadata {
	return strategy.Metadata{Name: "fixed_signal", EngineVersion: "v0.1.0", RequiredHistory: 0}
}

func (s *fixedSignalStrategy) Configure(map[string]any) error { return nil }

func (s *fixedSignalStrategy) OnBar(frame types.BarFrame, _ strategy.Context) ([]types.Signal, error) {
	if s.emitted || frame.BarIndex != s.onBarIndex {
		return nil, nil
	}

	s.emitted = true

	return []types.Signal{s.signal}, nil
}

var _ strategy.Strategy = (*fixedSignalStrategy)(nil)

// scriptedStrategy emits a fixed signal on each listed bar index,
// for exercising the ledger/rule-gate wiring across several ticks of
// one scripted trade sequence instead of a real alpha model.
type scriptedStrategy struct {
	signals map[int]types.Signal
}

func (s *scriptedStrategy) Metadata() strategy.Metadata {
	return strategy.Metadata{Name: "scripted", EngineVersion: "v0.1.0", RequiredHistory: 0}
}

func (s *scriptedStrategy) Configure(map[string]any) error { return nil }

func (s *scriptedStrategy) OnBar(frame types.BarFrame, _ strategy.Context) ([]types.Signal, error) {
	sig, ok := s.signals[frame.BarIndex]
	if !ok {
		return nil, nil
	}

	return []types.Signal{sig}, nil
}

var _ strategy.Strategy = (*scriptedStrategy)(nil)

func barWithOpenClose(instrument types.InstrumentID, tOpen time.Time, timeframe types.Timeframe, open, close float64) types.Bar {
	o := decimal.NewFromFloat(open)
	c := decimal.NewFromFloat(close)

	return types.Bar{
		Instrument: instrument, Timeframe: timeframe, TOpen: tOpen,
		Open: o, High: decimal.Max(o, c), Low: decimal.Min(o, c), Close: c,
		Volume: decimal.NewFromInt(1),
	}
}

func (suite *EngineTestSuite) aShareInstrument() types.InstrumentID {
	return types.InstrumentID{Venue: "sse", Base: "600001", Quote: "CNY", AssetKind: types.AssetKindStockAShare}
}

func (suite *EngineTestSuite) aShareSpecs(instrument types.InstrumentID) types.InstrumentSpecs {
	return types.InstrumentSpecs{instrument: {
		ID:                 instrument,
		PriceTick:          decimal.NewFromFloat(0.01),
		LotStep:            decimal.NewFromInt(100),
		LotMinimum:         decimal.NewFromInt(100),
		SettlementCurrency: "CNY",
		Board:              types.BoardMain,
	}}
}

func (suite *EngineTestSuite) perpInstrument() types.InstrumentID {
	return types.InstrumentID{Venue: "binance", Base: "BTC", Quote: "USDT", AssetKind: types.AssetKindCryptoPerp}
}

func (suite *EngineTestSuite) perpSpecs(instrument types.InstrumentID) types.InstrumentSpecs {
	return types.InstrumentSpecs{instrument: {
		ID:                 instrument,
		PriceTick:          decimal.NewFromFloat(0.01),
		LotStep:            decimal.NewFromFloat(0.001),
		LotMinimum:         decimal.NewFromFloat(0.001),
		SettlementCurrency: "USDT",
		MinLeverage:        decimal.NewFromInt(10),
		MaxLeverage:        decimal.NewFromInt(10),
	}}
}

// TestAShareSellRejectedSameDayThenFillsAtNextTradingDayOpen exercises
// T+1: a buy fill locks its quantity until the Shanghai calendar date
// rolls over, rejecting a same-day sell and accepting the identical
// sell the instant the bar stream crosses into the next trading day —
// at that day's first bar, not its second.
func (suite *EngineTestSuite) TestAShareSellRejectedSameDayThenFillsAtNextTradingDayOpen() {
	instrument := suite.aShareInstrument()
	timeframe := types.Timeframe(3600)

	bars := []types.Bar{
		barWithOpenClose(instrument, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), timeframe, 10, 10),
		barWithOpenClose(instrument, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), timeframe, 10, 10),
		barWithOpenClose(instrument, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), timeframe, 10, 10),
		barWithOpenClose(instrument, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), timeframe, 10, 10),
		barWithOpenClose(instrument, time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC), timeframe, 10, 10),
	}

	source := feed.NewInMemorySource(instrument, timeframe, bars)

	strat := &scriptedStrategy{signals: map[int]types.Signal{
		0: types.MarketOrder(instrument, types.OrderSideBuy, decimal.NewFromInt(100), "open"),
		1: types.MarketOrder(instrument, types.OrderSideSell, decimal.NewFromInt(100), "same day exit attempt"),
		2: types.MarketOrder(instrument, types.OrderSideSell, decimal.NewFromInt(100), "next day exit"),
	}}

	config := Config{
		InitialCapital: decimal.NewFromInt(100000),
		Clock:          clock.FromFunc(func(t time.Time) string { return t.Format("2006-01-02") }),
	}

	result, err := Run(config, []feed.Source{source}, suite.aShareSpecs(instrument), strat)
	suite.Require().NoError(err)

	suite.Require().Len(result.Rejections, 1)
	suite.Equal(types.ReasonTPlusOne, result.Rejections[0].Reason)
	suite.Equal(1, result.Rejections[0].BarIndex)

	suite.Require().Len(result.Fills, 2)
	suite.Equal(types.OrderSideBuy, result.Fills[0].Side)
	suite.Equal(1, result.Fills[0].FillBarIndex)
	suite.Equal(types.OrderSideSell, result.Fills[1].Side)
	// Bar index 3 is the first bar of 2024-01-02; the lock must already
	// be clear by the time this bar's pending orders are matched, not
	// only by the next bar after it.
	suite.Equal(3, result.Fills[1].FillBarIndex)
}

// TestUpLimitRejectsBuyAtOrAboveBand exercises the A-share price-limit
// band: a buy queued against a flat reference close is rejected once
// the next bar opens at or above the board's up-limit price.
func (suite *EngineTestSuite) TestUpLimitRejectsBuyAtOrAboveBand() {
	instrument := suite.aShareInstrument()
	timeframe := types.Timeframe(3600)

	bars := []types.Bar{
		barWithOpenClose(instrument, time.Unix(0, 0), timeframe, 10, 10),
		barWithOpenClose(instrument, time.Unix(3600, 0), timeframe, 11.5, 11.5),
	}

	source := feed.NewInMemorySource(instrument, timeframe, bars)

	strat := &scriptedStrategy{signals: map[int]types.Signal{
		0: types.MarketOrder(instrument, types.OrderSideBuy, decimal.NewFromInt(100), "breakout entry"),
	}}

	result, err := Run(Config{InitialCapital: decimal.NewFromInt(100000)}, []feed.Source{source}, suite.aShareSpecs(instrument), strat)
	suite.Require().NoError(err)

	suite.Empty(result.Fills)
	suite.Require().Len(result.Rejections, 1)
	suite.Equal(types.ReasonUpLimit, result.Rejections[0].Reason)
}

// TestPerpPositionLiquidatedWhenEquityFallsBelowMaintenanceMargin
// exercises cross-margin liquidation: a 10x long is force-closed with a
// synthetic fill once a crash bar drives account equity below the
// maintenance margin requirement.
func (suite *EngineTestSuite) TestPerpPositionLiquidatedWhenEquityFallsBelowMaintenanceMargin() {
	instrument := suite.perpInstrument()
	timeframe := types.Timeframe(3600)

	bars := []types.Bar{
		barWithOpenClose(instrument, time.Unix(0, 0), timeframe, 100, 100),
		barWithOpenClose(instrument, time.Unix(3600, 0), timeframe, 100, 100),
		barWithOpenClose(instrument, time.Unix(7200, 0), timeframe, 50, 50),
	}

	source := feed.NewInMemorySource(instrument, timeframe, bars)

	strat := &scriptedStrategy{signals: map[int]types.Signal{
		0: types.MarketOrder(instrument, types.OrderSideBuy, decimal.NewFromInt(500), "leveraged entry"),
	}}

	result, err := Run(Config{InitialCapital: decimal.NewFromInt(10000)}, []feed.Source{source}, suite.perpSpecs(instrument), strat)
	suite.Require().NoError(err)

	var liquidation *types.Fill

	for i := range result.Fills {
		if result.Fills[i].Reason == types.ReasonLiquidation {
			liquidation = &result.Fills[i]
		}
	}

	suite.Require().NotNil(liquidation, "expected a liquidation fill")
	suite.Equal(types.OrderSideSell, liquidation.Side)
	suite.True(liquidation.FillQuantity.Equal(decimal.NewFromInt(500)))
	suite.Equal(2, liquidation.FillBarIndex)

	suite.Require().Len(result.Trades, 1)
	suite.True(result.Trades[0].RealizedPnL.IsNegative())
}

// TestEngineResultsAreIdenticalRegardlessOfSourceOrder exercises the
// scheduler's ascending-symbol tie-break: two instruments with bars
// sharing identical open timestamps produce byte-identical fills,
// rejections, trades, and equity series no matter which order their
// sources are passed in.
func (suite *EngineTestSuite) TestEngineResultsAreIdenticalRegardlessOfSourceOrder() {
	instrumentA := types.InstrumentID{Venue: "binance", Base: "AAA", Quote: "USDT", AssetKind: types.AssetKindCryptoSpot}
	instrumentB := types.InstrumentID{Venue: "binance", Base: "BBB", Quote: "USDT", AssetKind: types.AssetKindCryptoSpot}

	closesA := []float64{100, 100, 100, 100, 100, 200, 200, 200, 100, 100, 100, 100}
	closesB := []float64{50, 50, 50, 50, 50, 25, 25, 25, 50, 50, 50, 50}

	sourceA := feed.NewInMemorySource(instrumentA, types.Timeframe(3600), barsAt(instrumentA, closesA))
	sourceB := feed.NewInMemorySource(instrumentB, types.Timeframe(3600), barsAt(instrumentB, closesB))

	specs := types.InstrumentSpecs{
		instrumentA: {ID: instrumentA, PriceTick: decimal.NewFromFloat(0.01), LotStep: decimal.NewFromFloat(0.0001), LotMinimum: decimal.NewFromFloat(0.0001), SettlementCurrency: "USDT"},
		instrumentB: {ID: instrumentB, PriceTick: decimal.NewFromFloat(0.01), LotStep: decimal.NewFromFloat(0.0001), LotMinimum: decimal.NewFromFloat(0.0001), SettlementCurrency: "USDT"},
	}

	newStrategy := func() strategy.Strategy {
		strat := strategy.NewDualMACrossover()
		suite.Require().NoError(strat.Configure(map[string]any{"fast": 2, "slow": 4, "position_size": decimal.NewFromInt(1)}))

		return strat
	}

	config := Config{InitialCapital: decimal.NewFromInt(10000), SlippageBps: 5}

	forward, err := Run(config, []feed.Source{sourceA, sourceB}, specs, newStrategy())
	suite.Require().NoError(err)

	reversed, err := Run(config, []feed.Source{sourceB, sourceA}, specs, newStrategy())
	suite.Require().NoError(err)

	suite.NotEmpty(forward.Fills)
	suite.Equal(forward.Fills, reversed.Fills)
	suite.Equal(forward.Rejections, reversed.Rejections)
	suite.Equal(forward.Trades, reversed.Trades)
	suite.Equal(forward.EquitySeries, reversed.EquitySeries)
}
