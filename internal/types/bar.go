package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe is a fixed-width bucket expressed in seconds.
type Timeframe int64

// Bar is a fixed-width OHLCV aggregate for one instrument and timeframe.
// A bar is aligned to an integer multiple of its timeframe from the UNIX
// epoch; t_close = t_open + timeframe.
type Bar struct {
	Instrument InstrumentID
	Timeframe  Timeframe
	TOpen      time.Time

	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// TClose returns the bar's close timestamp.
func (b Bar) TClose() time.Time {
	return b.TOpen.Add(time.Duration(b.Timeframe) * time.Second)
}

// Validate checks the OHLC invariants: low <= min(open, close), high >= max(open, close), low <= high, volume >= 0.
func (b Bar) Validate() error {
	if b.Low.GreaterThan(decimal.Min(b.Open, b.Close)) {
		return newMalformedBar(b, "low exceeds min(open, close)")
	}

	if b.High.LessThan(decimal.Max(b.Open, b.Close)) {
		return newMalformedBar(b, "high below max(open, close)")
	}

	if b.Low.GreaterThan(b.High) {
		return newMalformedBar(b, "low exceeds high")
	}

	if b.Volume.IsNegative() {
		return newMalformedBar(b, "negative volume")
	}

	return nil
}

// BarFrame is what a strategy receives at each tick: the current bar, a
// bounded left-truncated window of previously closed bars for the same
// (instrument, timeframe), and a ledger snapshot for position queries.
type BarFrame struct {
	Instrument InstrumentID
	Timeframe  Timeframe
	Current    Bar
	// History holds up to N prior closed bars, oldest first. It never
	// includes Current or any future bar.
	History []Bar
	// Ledger is an immutable snapshot of account state as of the close
	// of the bar preceding Current.
	Ledger LedgerSnapshot
	// BarIndex is the position of Current in the global chronological
	// tick sequence, used for order submit/fill bookkeeping.
	BarIndex int
}
