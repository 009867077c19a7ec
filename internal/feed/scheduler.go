package feed

import (
	"sort"

	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// GapPolicy controls scheduler behavior when an instrument's next bar does
// not immediately follow the previous one's close.
type GapPolicy int

const (
	// GapPolicySkip silently advances past the gap; the instrument simply
	// has no tick for the missing interval.
	GapPolicySkip GapPolicy = iota
	// GapPolicyAbort fails the run with ErrCodeDataGap the first time a
	// gap is observed.
	GapPolicyAbort
)

// Tick is one scheduler emission: a single instrument's next closed bar,
// in global chronological order, plus whether it has accumulated enough
// trailing history to leave warm-up.
type Tick struct {
	Bar      types.Bar
	BarIndex int
	WarmedUp bool
}

type cursor struct {
	instrument types.InstrumentID
	timeframe  types.Timeframe
	bars       []types.Bar
	pos        int
	emitted    int
	lastClose  types.Bar
	hasLast    bool
}

// Scheduler merges multiple per-instrument bar streams into one
// deterministic chronological sequence. Ties (bars sharing an identical
// TOpen) are broken first by ascending timeframe in seconds, then by
// ascending instrument symbol, so the same input always produces the
// same emission order.
type Scheduler struct {
	cursors    []*cursor
	warmupBars int
	gapPolicy  GapPolicy
	barIndex   int
}

// NewScheduler builds a Scheduler over the given sources. warmupBars is
// the minimum count of prior closed bars an instrument must have had
// emitted (counted per instrument by the scheduler itself) before a
// Tick is marked WarmedUp.
func NewScheduler(sources []Source, warmupBars int, gapPolicy GapPolicy) *Scheduler {
	cursors := make([]*cursor, 0, len(sources))
	for _, s := range sources {
		cursors = append(cursors, &cursor{
			instrument: s.Instrument(),
			timeframe:  s.Timeframe(),
			bars:       s.Bars(),
		})
	}

	sort.Slice(cursors, func(i, j int) bool {
		if cursors[i].timeframe != cursors[j].timeframe {
			return cursors[i].timeframe < cursors[j].timeframe
		}

		return cursors[i].instrument.Symbol() < cursors[j].instrument.Symbol()
	})

	return &Scheduler{cursors: cursors, warmupBars: warmupBars, gapPolicy: gapPolicy}
}

// Next returns the next Tick in chronological order, or ok=false once
// every source is exhausted.
func (s *Scheduler) Next() (Tick, bool, error) {
	best := -1

	for i, c := range s.cursors {
		if c.pos >= len(c.bars) {
			continue
		}

		if best == -1 {
			best = i
			continue
		}

		candidate := c.bars[c.pos]
		current := s.cursors[best].bars[s.cursors[best].pos]

		switch {
		case candidate.TOpen.Before(current.TOpen):
			best = i
		case candidate.TOpen.Equal(current.TOpen) && c.timeframe != s.cursors[best].timeframe:
			if c.timeframe < s.cursors[best].timeframe {
				best = i
			}
		case candidate.TOpen.Equal(current.TOpen) && c.instrument.Symbol() < s.cursors[best].instrument.Symbol():
			best = i
		}
	}

	if best == -1 {
		return Tick{}, false, nil
	}

	c := s.cursors[best]
	b := c.bars[c.pos]

	if err := b.Validate(); err != nil {
		return Tick{}, false, err
	}

	if c.hasLast && !b.TOpen.Equal(c.lastClose.TClose()) {
		if s.gapPolicy == GapPolicyAbort {
			return Tick{}, false, coreerrors.Newf(coreerrors.ErrCodeDataGap,
				"data gap for %s: bar at %s does not follow close of prior bar at %s",
				b.Instrument.Symbol(), b.TOpen, c.lastClose.TClose())
		}
	}

	c.pos++
	c.lastClose = b
	c.hasLast = true
	c.emitted++

	tick := Tick{
		Bar:      b,
		BarIndex: s.barIndex,
		WarmedUp: c.emitted > s.warmupBars,
	}

	s.barIndex++

	return tick, true, nil
}
