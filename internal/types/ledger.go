package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerSnapshot is the portfolio state observable at a bar boundary,
// exposed to strategies read-only via BarFrame.Ledger.
type LedgerSnapshot struct {
	TAsOf    time.Time
	BarIndex int

	Cash decimal.Decimal

	// Positions is keyed by instrument; flat instruments may be omitted.
	Positions map[InstrumentID]Position

	// GrossExposure sums |market value| across positions; NetExposure
	// sums signed market value.
	GrossExposure decimal.Decimal
	NetExposure   decimal.Decimal

	Equity        decimal.Decimal
	HighWaterMark decimal.Decimal
	// Drawdown is the absolute currency amount max(0, HighWaterMark -
	// Equity), not a fraction; divide by HighWaterMark for a percentage.
	Drawdown decimal.Decimal
}

// PositionOf returns the position for an instrument, or a zero-value flat
// position if none is held.
func (s LedgerSnapshot) PositionOf(id InstrumentID) Position {
	if p, ok := s.Positions[id]; ok {
		return p
	}

	return Position{Instrument: id}
}

// EquityPoint is one row of the equity curve produced by the engine for
// the metrics layer and the writer.
type EquityPoint struct {
	TAsOf    time.Time
	BarIndex int
	Equity   decimal.Decimal
	Cash     decimal.Decimal
	// Drawdown is the absolute currency amount max(0, running high -
	// Equity), matching LedgerSnapshot.Drawdown.
	Drawdown decimal.Decimal
}
