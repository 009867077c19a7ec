package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/sirily11/argo-backtest-core/internal/clock"
	"github.com/sirily11/argo-backtest-core/internal/types"
)

type LedgerTestSuite struct {
	suite.Suite
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (suite *LedgerTestSuite) spotInstrument() types.InstrumentID {
	return types.InstrumentID{Venue: "binance", Base: "BTC", Quote: "USDT", AssetKind: types.AssetKindCryptoSpot}
}

func (suite *LedgerTestSuite) specs(instrument types.InstrumentID) types.InstrumentSpecs {
	return types.InstrumentSpecs{instrument: {ID: instrument}}
}

func (suite *LedgerTestSuite) TestApplyFillOpensLongPosition() {
	instrument := suite.spotInstrument()
	portfolio := NewPortfolio(decimal.NewFromInt(10000))
	specs := suite.specs(instrument)

	trade, err := portfolio.ApplyFill(types.Fill{
		Instrument: instrument, Side: types.OrderSideBuy,
		FillQuantity: decimal.NewFromInt(1), FillPrice: decimal.NewFromInt(100),
		FeeAmount: decimal.NewFromFloat(0.1), FillBarIndex: 1,
	}, specs)

	suite.NoError(err)
	suite.Nil(trade)

	snapshot := portfolio.Mark(map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(100)}, specs, time.Time{}, 1)
	suite.True(snapshot.Cash.Equal(decimal.NewFromFloat(9899.9)))
	suite.True(snapshot.Positions[instrument].Quantity.Equal(decimal.NewFromInt(1)))
	suite.True(snapshot.Equity.Equal(decimal.NewFromFloat(9999.9)))
}

func (suite *LedgerTestSuite) TestApplyFillClosesAndBooksRealizedPnL() {
	instrument := suite.spotInstrument()
	portfolio := NewPortfolio(decimal.NewFromInt(10000))
	specs := suite.specs(instrument)

	_, err := portfolio.ApplyFill(types.Fill{
		Instrument: instrument, Side: types.OrderSideBuy,
		FillQuantity: decimal.NewFromInt(1), FillPrice: decimal.NewFromInt(100), FillBarIndex: 1,
	}, specs)
	suite.NoError(err)

	trade, err := portfolio.ApplyFill(types.Fill{
		Instrument: instrument, Side: types.OrderSideSell,
		FillQuantity: decimal.NewFromInt(1), FillPrice: decimal.NewFromInt(110), FillBarIndex: 2,
	}, specs)

	suite.NoError(err)
	suite.Require().NotNil(trade)
	suite.True(trade.RealizedPnL.Equal(decimal.NewFromInt(10)))

	snapshot := portfolio.Mark(map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(110)}, specs, time.Time{}, 2)
	suite.True(snapshot.Positions[instrument].IsFlat())
	suite.True(snapshot.Equity.Equal(decimal.NewFromInt(10010)))
}

func (suite *LedgerTestSuite) TestMarkTracksDrawdown() {
	instrument := suite.spotInstrument()
	portfolio := NewPortfolio(decimal.NewFromInt(10000))
	specs := suite.specs(instrument)

	_, err := portfolio.ApplyFill(types.Fill{
		Instrument: instrument, Side: types.OrderSideBuy,
		FillQuantity: decimal.NewFromInt(10), FillPrice: decimal.NewFromInt(100), FillBarIndex: 1,
	}, specs)
	suite.NoError(err)

	portfolio.Mark(map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(100)}, specs, time.Time{}, 1)
	snapshot := portfolio.Mark(map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(90)}, specs, time.Time{}, 2)

	suite.True(snapshot.Drawdown.IsPositive())
	suite.Len(portfolio.EquitySeries(), 2)
}

func (suite *LedgerTestSuite) TestApplyFillPerpOpensWithMargin() {
	instrument := types.InstrumentID{Venue: "binance", Base: "BTC", Quote: "USDT", AssetKind: types.AssetKindCryptoPerp}
	portfolio := NewPortfolio(decimal.NewFromInt(10000))
	specs := types.InstrumentSpecs{instrument: {ID: instrument}}

	_, err := portfolio.ApplyFill(types.Fill{
		Instrument: instrument, Side: types.OrderSideBuy,
		FillQuantity: decimal.NewFromInt(1), FillPrice: decimal.NewFromInt(1000),
		Leverage: decimal.NewFromInt(10), FillBarIndex: 1,
	}, specs)
	suite.NoError(err)

	snapshot := portfolio.Mark(map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(1000)}, specs, time.Time{}, 1)
	suite.True(snapshot.Cash.Equal(decimal.NewFromInt(9900)))
	suite.True(snapshot.Equity.Equal(decimal.NewFromInt(10000)))
}

func (suite *LedgerTestSuite) TestApplyFillUnknownInstrumentErrors() {
	portfolio := NewPortfolio(decimal.NewFromInt(10000))
	_, err := portfolio.ApplyFill(types.Fill{Instrument: suite.spotInstrument(), FillQuantity: decimal.NewFromInt(1), FillPrice: decimal.NewFromInt(1)}, types.InstrumentSpecs{})
	suite.Error(err)
}

func (suite *LedgerTestSuite) aShareInstrument() types.InstrumentID {
	return types.InstrumentID{Venue: "sse", Base: "600000", Quote: "CNY", AssetKind: types.AssetKindStockAShare}
}

func (suite *LedgerTestSuite) TestApplyFillLocksAShareBuyUntilNextDay() {
	instrument := suite.aShareInstrument()
	portfolio := NewPortfolioWithClock(decimal.NewFromInt(10000), clock.Fixed("2024-01-02"))
	specs := suite.specs(instrument)

	day1 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

	_, err := portfolio.ApplyFill(types.Fill{
		Instrument: instrument, Side: types.OrderSideBuy,
		FillQuantity: decimal.NewFromInt(100), FillPrice: decimal.NewFromInt(10),
		TFill: day1, FillBarIndex: 1,
	}, specs)
	suite.NoError(err)

	snapshot := portfolio.Mark(map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(10)}, specs, day1, 1)
	position := snapshot.Positions[instrument]
	suite.True(position.LockedToday.Equal(decimal.NewFromInt(100)))
	suite.True(position.SellableQuantity().IsZero())
}

func (suite *LedgerTestSuite) TestRollTPlusOneClearsLockOnNextTradingDay() {
	instrument := suite.aShareInstrument()
	clk := clock.FromFunc(func(t time.Time) string { return t.Format("2006-01-02") })
	portfolio := NewPortfolioWithClock(decimal.NewFromInt(10000), clk)
	specs := suite.specs(instrument)

	day1 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	day2Open := time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)

	_, err := portfolio.ApplyFill(types.Fill{
		Instrument: instrument, Side: types.OrderSideBuy,
		FillQuantity: decimal.NewFromInt(100), FillPrice: decimal.NewFromInt(10),
		TFill: day1, FillBarIndex: 1,
	}, specs)
	suite.NoError(err)

	portfolio.Mark(map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(10)}, specs, day1, 1)

	// RollTPlusOne is the engine's per-bar call, made against the
	// incoming bar's own open and ahead of matching that bar's pending
	// orders — not Mark, which only runs after matching.
	portfolio.RollTPlusOne(instrument, day2Open)

	position := portfolio.Snapshot().Positions[instrument]
	suite.True(position.LockedToday.IsZero())
	suite.True(position.SellableQuantity().Equal(decimal.NewFromInt(100)))
}
