package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the per-instrument holding record. Quantity is signed: positive
// is long, negative is short. Flat positions are represented by zero
// quantity with realized PnL preserved.
type Position struct {
	Instrument InstrumentID

	// Quantity is the current signed holding.
	Quantity decimal.Decimal
	// AverageEntryPrice is the weighted-average basis of the current
	// open quantity (see DESIGN.md's open-question decision on costing).
	AverageEntryPrice decimal.Decimal
	// RealizedPnL accumulates across the position's lifetime, including
	// through flat-then-reopen cycles.
	RealizedPnL decimal.Decimal

	// MarginEngaged / Leverage apply to crypto_perp only.
	MarginEngaged decimal.Decimal
	Leverage      decimal.Decimal

	// LockedToday is the A-share T+1 quantity bought on the current
	// calendar date and not yet sellable.
	LockedToday     decimal.Decimal
	LockedTodayDate string // YYYY-MM-DD in Asia/Shanghai, empty if none

	OpenedAt     time.Time
	OpenBarIndex int
}

// IsFlat reports whether the position currently holds zero quantity.
func (p Position) IsFlat() bool {
	return p.Quantity.IsZero()
}

// SellableQuantity returns the long quantity eligible for sale right now,
// net of any A-share T+1 lock. Only meaningful for long (non-negative)
// positions; crypto positions never lock.
func (p Position) SellableQuantity() decimal.Decimal {
	sellable := p.Quantity.Sub(p.LockedToday)
	if sellable.IsNegative() {
		return decimal.Zero
	}

	return sellable
}

// UnrealizedPnL marks the position at the given price.
func (p Position) UnrealizedPnL(markPrice decimal.Decimal) decimal.Decimal {
	if p.Quantity.IsZero() {
		return decimal.Zero
	}

	return markPrice.Sub(p.AverageEntryPrice).Mul(p.Quantity)
}

// MarketValue returns quantity * markPrice, the contribution this position
// makes to equity beyond cash.
func (p Position) MarketValue(markPrice decimal.Decimal) decimal.Decimal {
	return p.Quantity.Mul(markPrice)
}
