// Package marker lets a strategy annotate specific bars with a signal and
// a human-readable reason, independent of the log stream, so a report
// renderer can overlay "why did it trade here" markers on a price chart.
package marker

import (
	"time"

	"github.com/sirily11/argo-backtest-core/internal/types"
)

// Mark is one annotated point in the run.
type Mark struct {
	TAsOf      time.Time
	BarIndex   int
	Instrument types.InstrumentID
	Signal     types.Signal
	Reason     string
}

// Marker is the interface strategies use to annotate bars.
type Marker interface {
	Mark(mark Mark) error
	Marks() ([]Mark, error)
}
