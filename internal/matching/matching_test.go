package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/sirily11/argo-backtest-core/internal/rules"
	"github.com/sirily11/argo-backtest-core/internal/types"
)

type MatchingTestSuite struct {
	suite.Suite
}

func TestMatchingSuite(t *testing.T) {
	suite.Run(t, new(MatchingTestSuite))
}

func (suite *MatchingTestSuite) instrument() types.InstrumentID {
	return types.InstrumentID{Venue: "binance", Base: "BTC", Quote: "USDT", AssetKind: types.AssetKindCryptoSpot}
}

func (suite *MatchingTestSuite) specs(instrument types.InstrumentID) types.InstrumentSpecs {
	return types.InstrumentSpecs{
		instrument: {ID: instrument, LotStep: decimal.NewFromFloat(0.001)},
	}
}

func (suite *MatchingTestSuite) TestFillPriceAppliesSlippageFavoringSeller() {
	matcher := NewMatcher(5, nil) // 5 bps
	buyPrice := matcher.fillPrice(types.OrderSideBuy, decimal.NewFromInt(100))
	sellPrice := matcher.fillPrice(types.OrderSideSell, decimal.NewFromInt(100))

	suite.True(buyPrice.Equal(decimal.NewFromFloat(100.05)))
	suite.True(sellPrice.Equal(decimal.NewFromFloat(99.95)))
}

func (suite *MatchingTestSuite) TestMatchFillsAcceptedMarketOrder() {
	instrument := suite.instrument()
	matcher := NewMatcher(5, nil)
	specs := suite.specs(instrument)
	ledger := types.LedgerSnapshot{Cash: decimal.NewFromInt(100000)}

	orders := []types.Order{{
		Instrument: instrument, Side: types.OrderSideBuy, Quantity: decimal.NewFromInt(1),
		Type: types.OrderTypeMarket, SubmitBarIndex: 0, SubmitSeq: 1,
	}}

	nextOpens := map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(100)}
	refCloses := map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(100)}

	fills, rejections, err := matcher.Match(orders, specs, ledger, nextOpens, refCloses, time.Time{})
	suite.NoError(err)
	suite.Empty(rejections)
	suite.Require().Len(fills, 1)
	suite.True(fills[0].FillPrice.Equal(decimal.NewFromFloat(100.05)))
	suite.Equal(1, fills[0].FillBarIndex)
}

func (suite *MatchingTestSuite) TestMatchExpiresUnsatisfiedLimitOrder() {
	instrument := suite.instrument()
	matcher := NewMatcher(0, nil)
	specs := suite.specs(instrument)
	ledger := types.LedgerSnapshot{Cash: decimal.NewFromInt(100000)}

	orders := []types.Order{{
		Instrument: instrument, Side: types.OrderSideBuy, Quantity: decimal.NewFromInt(1),
		Type: types.OrderTypeLimit, HasLimit: true, LimitPrice: decimal.NewFromInt(90),
		SubmitBarIndex: 0, SubmitSeq: 1,
	}}

	nextOpens := map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(100)}
	refCloses := map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(100)}

	fills, rejections, err := matcher.Match(orders, specs, ledger, nextOpens, refCloses, time.Time{})
	suite.NoError(err)
	suite.Empty(fills)
	suite.Require().Len(rejections, 1)
	suite.Equal(types.ReasonLimitExpired, rejections[0].Reason)
}

func (suite *MatchingTestSuite) TestMatchRejectsThroughGate() {
	instrument := suite.instrument()
	matcher := NewMatcher(0, nil)
	specs := suite.specs(instrument)
	ledger := types.LedgerSnapshot{Cash: decimal.NewFromInt(10)}

	orders := []types.Order{{
		Instrument: instrument, Side: types.OrderSideBuy, Quantity: decimal.NewFromInt(10),
		Type: types.OrderTypeMarket, SubmitBarIndex: 0, SubmitSeq: 1,
	}}

	nextOpens := map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(100)}
	refCloses := map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(100)}

	fills, rejections, err := matcher.Match(orders, specs, ledger, nextOpens, refCloses, time.Time{})
	suite.NoError(err)
	suite.Empty(fills)
	suite.Require().Len(rejections, 1)
	suite.Equal(types.ReasonInsufficientCash, rejections[0].Reason)
}

func (suite *MatchingTestSuite) TestCheckLiquidationsProducesSyntheticFill() {
	instrument := types.InstrumentID{Venue: "binance", Base: "BTC", Quote: "USDT", AssetKind: types.AssetKindCryptoPerp}
	resolve := func(kind types.AssetKind) (rules.Gate, error) {
		return rules.NewCryptoPerpGate(decimal.NewFromFloat(0.001), decimal.NewFromFloat(0.05), decimal.NewFromFloat(0.01)), nil
	}
	matcher := NewMatcher(0, resolve)

	specs := types.InstrumentSpecs{instrument: {ID: instrument}}
	ledger := types.LedgerSnapshot{
		Cash: decimal.Zero,
		Positions: map[types.InstrumentID]types.Position{
			instrument: {Instrument: instrument, Quantity: decimal.NewFromInt(1), AverageEntryPrice: decimal.NewFromInt(50000), MarginEngaged: decimal.NewFromInt(1000)},
		},
	}
	nextOpens := map[types.InstrumentID]decimal.Decimal{instrument: decimal.NewFromInt(40000)}

	fills, err := matcher.CheckLiquidations(ledger, specs, nextOpens, 5, time.Time{})
	suite.NoError(err)
	suite.Require().Len(fills, 1)
	suite.Equal(types.ReasonLiquidation, fills[0].Reason)
	suite.Equal(types.OrderSideSell, fills[0].Side)
	suite.True(fills[0].FillQuantity.Equal(decimal.NewFromInt(1)))
}
