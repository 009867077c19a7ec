package feed

import (
	"github.com/sirily11/argo-backtest-core/internal/types"
)

// Source supplies one instrument's complete, already-sorted bar history to
// the scheduler. A run loads one Source per instrument ahead of time; the
// engine itself never touches a live exchange or database.
type Source interface {
	Instrument() types.InstrumentID
	Timeframe() types.Timeframe
	Bars() []types.Bar
}

// InMemorySource is a Source backed by a preloaded, already-sorted slice
// of bars, the form history arrives in once LoadCSVSource or
// LoadParquetSource has read it from disk.
type InMemorySource struct {
	instrument types.InstrumentID
	timeframe  types.Timeframe
	bars       []types.Bar
}

// NewInMemorySource wraps a bar slice as a Source. bars must already be
// sorted ascending by TOpen; the scheduler does not re-sort within a
// single instrument's stream.
func NewInMemorySource(instrument types.InstrumentID, timeframe types.Timeframe, bars []types.Bar) *InMemorySource {
	return &InMemorySource{instrument: instrument, timeframe: timeframe, bars: bars}
}

func (s *InMemorySource) Instrument() types.InstrumentID { return s.instrument }
func (s *InMemorySource) Timeframe() types.Timeframe     { return s.timeframe }
func (s *InMemorySource) Bars() []types.Bar              { return s.bars }
