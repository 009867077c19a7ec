// Package feed implements the history feed and scheduler stage of the
// pipeline: merging per-instrument bar streams into one deterministic
// chronological tick sequence and maintaining each instrument's bounded
// trailing window of closed bars.
package feed

import (
	"sort"

	"github.com/sirily11/argo-backtest-core/internal/types"
)

// Window is a bounded, per-instrument ring of closed bars ordered oldest
// first. A single engine run is single-threaded, so Window carries no
// mutex; concurrent orchestrator workers each own an independent engine
// run with its own Window.
type Window struct {
	maxSize int
	data    map[types.InstrumentID][]types.Bar
}

// NewWindow creates a Window retaining up to maxSize trailing bars per
// instrument.
func NewWindow(maxSize int) *Window {
	return &Window{
		maxSize: maxSize,
		data:    make(map[types.InstrumentID][]types.Bar),
	}
}

// Add appends a newly closed bar for its instrument, evicting the oldest
// entry once the window exceeds maxSize. Bars must be added in
// non-decreasing TOpen order per instrument; this is guaranteed by the
// scheduler's chronological merge.
func (w *Window) Add(b types.Bar) {
	if w.maxSize <= 0 {
		return
	}

	series := w.data[b.Instrument]
	series = append(series, b)

	if len(series) > w.maxSize {
		series = series[len(series)-w.maxSize:]
	}

	w.data[b.Instrument] = series
}

// History returns up to maxSize prior closed bars for the instrument,
// oldest first. The returned slice is a copy; callers may not mutate the
// window's internal state through it.
func (w *Window) History(id types.InstrumentID) []types.Bar {
	series := w.data[id]
	out := make([]types.Bar, len(series))
	copy(out, series)

	return out
}

// Len returns the number of bars currently retained for an instrument.
func (w *Window) Len(id types.InstrumentID) int {
	return len(w.data[id])
}

// sortedInstruments returns the instruments currently tracked, in a
// stable deterministic order (by Symbol). No code in this module calls
// it.
func (w *Window) sortedInstruments() []types.InstrumentID {
	ids := make([]types.InstrumentID, 0, len(w.data))
	for id := range w.data {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Symbol() < ids[j].Symbol()
	})

	return ids
}
