// Package ledger owns all mutable account state: cash, positions, the
// equity curve, and the closed-trade ledger. Position average-entry/exit
// pricing and decimal PnL accounting are tracked on one signed-quantity
// record per instrument rather than split long/short fields.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/clock"
	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// Portfolio is the backtest's single mutable account. It is not safe for
// concurrent use; the core that drives it is single-threaded.
type Portfolio struct {
	cash decimal.Decimal

	positions map[types.InstrumentID]types.Position

	highWaterMark decimal.Decimal
	latest        types.LedgerSnapshot

	equitySeries []types.EquityPoint
	trades       []types.Trade

	clock clock.Clock
}

// NewPortfolio starts a ledger with initialCash and no open positions,
// dating A-share T+1 locks against the real Asia/Shanghai calendar.
func NewPortfolio(initialCash decimal.Decimal) *Portfolio {
	return NewPortfolioWithClock(initialCash, clock.ShanghaiClock{})
}

// NewPortfolioWithClock is NewPortfolio with an injectable Clock, letting
// tests pin the calendar date A-share T+1 locks roll over on.
func NewPortfolioWithClock(initialCash decimal.Decimal, clk clock.Clock) *Portfolio {
	p := &Portfolio{
		cash:          initialCash,
		positions:     make(map[types.InstrumentID]types.Position),
		highWaterMark: initialCash,
		clock:         clk,
	}

	p.latest = types.LedgerSnapshot{Cash: initialCash, Equity: initialCash, HighWaterMark: initialCash}

	return p
}

// ApplyFill adjusts position quantity, weighted-average basis, cash, and
// realized PnL for one fill. It returns the realized Trade if the fill
// closed all or part of an existing position, or nil if the fill only
// opened or added to one.
func (p *Portfolio) ApplyFill(fill types.Fill, specs types.InstrumentSpecs) (*types.Trade, error) {
	if _, ok := specs.Get(fill.Instrument); !ok {
		return nil, coreerrors.Newf(coreerrors.ErrCodeUnknownInstrument, "no instrument spec for %s", fill.Instrument.Symbol())
	}

	position := p.positions[fill.Instrument]
	if position.Instrument.Venue == "" {
		position.Instrument = fill.Instrument
	}

	signedFillQty := fill.FillQuantity
	if fill.Side == types.OrderSideSell {
		signedFillQty = signedFillQty.Neg()
	}

	isPerp := fill.Instrument.AssetKind == types.AssetKindCryptoPerp

	var trade *types.Trade

	switch {
	case position.Quantity.IsZero() || sameSign(position.Quantity, signedFillQty):
		p.openOrAdd(&position, fill, signedFillQty, isPerp)
	default:
		closingQty := decimal.Min(position.Quantity.Abs(), fill.FillQuantity)
		trade = p.closePortion(&position, fill, closingQty, isPerp)

		remainder := fill.FillQuantity.Sub(closingQty)
		if remainder.IsPositive() {
			remainderPortion := remainder.Div(fill.FillQuantity)
			flipFill := fill
			flipFill.FillQuantity = remainder
			flipFill.FeeAmount = fill.FeeAmount.Mul(remainderPortion)
			flipFill.TaxAmount = fill.TaxAmount.Mul(remainderPortion)
			p.openOrAdd(&position, flipFill, signOf(signedFillQty).Mul(remainder), isPerp)
		}
	}

	if !isPerp {
		p.cash = p.cash.Sub(signedFillQty.Mul(fill.FillPrice)).Sub(fill.FeeAmount).Sub(fill.TaxAmount)
	}

	p.positions[fill.Instrument] = position

	return trade, nil
}

// openOrAdd extends position in signedDelta's direction, recomputing the
// weighted-average basis (or setting it outright when opening from flat).
func (p *Portfolio) openOrAdd(position *types.Position, fill types.Fill, signedDelta decimal.Decimal, isPerp bool) {
	oldAbs := position.Quantity.Abs()
	addedAbs := signedDelta.Abs()
	newAbs := oldAbs.Add(addedAbs)

	if newAbs.IsPositive() {
		position.AverageEntryPrice = oldAbs.Mul(position.AverageEntryPrice).Add(addedAbs.Mul(fill.FillPrice)).Div(newAbs)
	}

	if position.Quantity.IsZero() {
		position.OpenedAt = fill.TFill
		position.OpenBarIndex = fill.FillBarIndex
	}

	position.Quantity = position.Quantity.Add(signedDelta)

	if fill.Instrument.AssetKind == types.AssetKindStockAShare && signedDelta.IsPositive() {
		p.lockTPlusOne(position, signedDelta, fill.TFill)
	}

	if isPerp {
		addedNotional := addedAbs.Mul(fill.FillPrice)

		leverage := fill.Leverage
		if leverage.Sign() <= 0 {
			leverage = decimal.NewFromInt(1)
		}

		addedMargin := addedNotional.Div(leverage)
		position.MarginEngaged = position.MarginEngaged.Add(addedMargin)
		position.Leverage = leverage
		p.cash = p.cash.Sub(addedMargin).Sub(fill.FeeAmount).Sub(fill.TaxAmount)
	}
}

// closePortion releases closingQty of position's basis against fill,
// books realized PnL, and returns the resulting Trade.
func (p *Portfolio) closePortion(position *types.Position, fill types.Fill, closingQty decimal.Decimal, isPerp bool) *types.Trade {
	longSign := signOf(position.Quantity)

	realized := closingQty.Mul(fill.FillPrice.Sub(position.AverageEntryPrice)).Mul(longSign)

	portion := closingQty.Div(fill.FillQuantity)
	allocatedFee := fill.FeeAmount.Mul(portion)
	allocatedTax := fill.TaxAmount.Mul(portion)

	trade := &types.Trade{
		Instrument:    fill.Instrument,
		EntryPrice:    position.AverageEntryPrice,
		ExitPrice:     fill.FillPrice,
		Quantity:      closingQty.Mul(longSign),
		FeeAmount:     allocatedFee,
		TaxAmount:     allocatedTax,
		RealizedPnL:   realized.Sub(allocatedFee).Sub(allocatedTax),
		OpenedAt:      position.OpenedAt,
		ClosedAt:      fill.TFill,
		OpenBarIndex:  position.OpenBarIndex,
		CloseBarIndex: fill.FillBarIndex,
	}

	position.RealizedPnL = position.RealizedPnL.Add(trade.RealizedPnL)
	position.Quantity = position.Quantity.Sub(closingQty.Mul(longSign))

	if isPerp {
		releaseFraction := decimal.Zero

		totalAbsBefore := position.Quantity.Abs().Add(closingQty)
		if totalAbsBefore.IsPositive() {
			releaseFraction = closingQty.Div(totalAbsBefore)
		}

		releasedMargin := position.MarginEngaged.Mul(releaseFraction)
		position.MarginEngaged = position.MarginEngaged.Sub(releasedMargin)
		p.cash = p.cash.Add(releasedMargin).Add(realized).Sub(allocatedFee).Sub(allocatedTax)
	}

	if position.Quantity.IsZero() {
		position.AverageEntryPrice = decimal.Zero
		position.MarginEngaged = decimal.Zero
	}

	p.trades = append(p.trades, *trade)

	return trade
}

// lockTPlusOne adds boughtQty to position's same-day T+1 lock, rolling
// the lock over to the fill's own date first if it lands on a later
// trading day than whatever was previously locked.
func (p *Portfolio) lockTPlusOne(position *types.Position, boughtQty decimal.Decimal, tFill time.Time) {
	date := p.clock.Date(tFill)

	if position.LockedTodayDate != date {
		position.LockedToday = decimal.Zero
		position.LockedTodayDate = date
	}

	position.LockedToday = position.LockedToday.Add(boughtQty)
}

// rollTPlusOne clears a position's T+1 lock once asOf's trading date has
// advanced past the date the lock was stamped on.
func (p *Portfolio) rollTPlusOne(position *types.Position, asOf time.Time) {
	if position.LockedTodayDate == "" || position.LockedToday.IsZero() {
		return
	}

	if p.clock.Date(asOf) != position.LockedTodayDate {
		position.LockedToday = decimal.Zero
		position.LockedTodayDate = ""
	}
}

// RollTPlusOne clears instrument's A-share T+1 lock, if any, once asOf's
// trading date has advanced past the date it was stamped on. The caller
// rolls each instrument against its own bar's open before matching that
// bar's pending orders, so a sell queued against a prior bar sees the
// unlock the moment the new trading day opens rather than one bar late.
// It refreshes both the live position and the last snapshot so a
// same-tick Match call observes the unlock immediately.
func (p *Portfolio) RollTPlusOne(instrument types.InstrumentID, asOf time.Time) {
	position, ok := p.positions[instrument]
	if !ok {
		return
	}

	p.rollTPlusOne(&position, asOf)
	p.positions[instrument] = position

	if p.latest.Positions != nil {
		if _, ok := p.latest.Positions[instrument]; ok {
			p.latest.Positions[instrument] = position
		}
	}
}

func sameSign(a, b decimal.Decimal) bool {
	return a.Sign() == b.Sign()
}

func signOf(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.NewFromInt(-1)
	}

	return decimal.NewFromInt(1)
}

// Mark updates unrealized PnL and account equity using prices (typically
// the bar's close), appends one equity-curve point, and returns the
// refreshed snapshot.
func (p *Portfolio) Mark(prices map[types.InstrumentID]decimal.Decimal, specs types.InstrumentSpecs, tAsOf time.Time, barIndex int) types.LedgerSnapshot {
	equity := p.cash
	gross := decimal.Zero
	net := decimal.Zero

	for id, position := range p.positions {
		if position.IsFlat() {
			continue
		}

		price, ok := prices[id]
		if !ok {
			continue
		}

		if id.AssetKind == types.AssetKindCryptoPerp {
			equity = equity.Add(position.MarginEngaged).Add(position.UnrealizedPnL(price))
		} else {
			equity = equity.Add(position.MarketValue(price))
		}

		marketValue := position.MarketValue(price)
		gross = gross.Add(marketValue.Abs())
		net = net.Add(marketValue)
	}

	if equity.GreaterThan(p.highWaterMark) {
		p.highWaterMark = equity
	}

	drawdown := p.highWaterMark.Sub(equity)
	if drawdown.IsNegative() {
		drawdown = decimal.Zero
	}

	positionsCopy := make(map[types.InstrumentID]types.Position, len(p.positions))
	for id, pos := range p.positions {
		positionsCopy[id] = pos
	}

	p.latest = types.LedgerSnapshot{
		TAsOf:         tAsOf,
		BarIndex:      barIndex,
		Cash:          p.cash,
		Positions:     positionsCopy,
		GrossExposure: gross,
		NetExposure:   net,
		Equity:        equity,
		HighWaterMark: p.highWaterMark,
		Drawdown:      drawdown,
	}

	p.equitySeries = append(p.equitySeries, types.EquityPoint{
		TAsOf:    tAsOf,
		BarIndex: barIndex,
		Equity:   equity,
		Cash:     p.cash,
		Drawdown: drawdown,
	})

	return p.latest
}

// Snapshot returns the most recently marked ledger state.
func (p *Portfolio) Snapshot() types.LedgerSnapshot {
	return p.latest
}

// EquitySeries returns the append-only equity curve recorded so far.
func (p *Portfolio) EquitySeries() []types.EquityPoint {
	out := make([]types.EquityPoint, len(p.equitySeries))
	copy(out, p.equitySeries)

	return out
}

// Trades returns the closed-trade ledger recorded so far.
func (p *Portfolio) Trades() []types.Trade {
	out := make([]types.Trade, len(p.trades))
	copy(out, p.trades)

	return out
}
