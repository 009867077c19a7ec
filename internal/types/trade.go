package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade records a closing or partially-closing fill paired with the
// position's average basis at the time, for realized PnL accounting and
// the metrics layer's trade-level statistics.
type Trade struct {
	Instrument InstrumentID

	// EntryPrice is the average basis of the quantity being closed;
	// ExitPrice is this fill's price.
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Quantity   decimal.Decimal // signed: positive closed a long, negative closed a short

	FeeAmount decimal.Decimal
	TaxAmount decimal.Decimal

	RealizedPnL decimal.Decimal

	OpenedAt time.Time
	ClosedAt time.Time

	OpenBarIndex  int
	CloseBarIndex int
}

// Return reports the trade's realized return on the capital it closed,
// net of fee and tax.
func (t Trade) Return() decimal.Decimal {
	basis := t.EntryPrice.Mul(t.Quantity.Abs())
	if basis.IsZero() {
		return decimal.Zero
	}

	return t.RealizedPnL.Div(basis)
}

// IsWin reports whether the trade closed with positive realized PnL.
func (t Trade) IsWin() bool {
	return t.RealizedPnL.IsPositive()
}
