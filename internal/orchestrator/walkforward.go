package orchestrator

import (
	"time"

	"github.com/sirily11/argo-backtest-core/internal/feed"
	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// WalkForwardWindow is one train/test split of the replayed history: a
// strategy is parameterized (or fit) against [TrainStart, TrainEnd) and
// evaluated out-of-sample against [TestStart, TestEnd).
type WalkForwardWindow struct {
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
}

// WalkForwardWindows slices [start, end) into consecutive
// train/test folds: each fold's train segment has length trainSpan, its
// test segment immediately follows with length testSpan, and the next
// fold's train segment starts step after the previous one's. A
// non-overlapping rolling sweep sets step == trainSpan+testSpan; an
// overlapping one sets step smaller.
func WalkForwardWindows(start, end time.Time, trainSpan, testSpan, step time.Duration) ([]WalkForwardWindow, error) {
	if !end.After(start) {
		return nil, coreerrors.Newf(coreerrors.ErrCodeWalkForwardInvalid, "end %s must be after start %s", end, start)
	}

	if trainSpan <= 0 || testSpan <= 0 {
		return nil, coreerrors.Newf(coreerrors.ErrCodeWalkForwardInvalid, "train span %s and test span %s must both be positive", trainSpan, testSpan)
	}

	if step <= 0 {
		return nil, coreerrors.Newf(coreerrors.ErrCodeWalkForwardInvalid, "step %s must be positive", step)
	}

	var windows []WalkForwardWindow

	for trainStart := start; ; trainStart = trainStart.Add(step) {
		trainEnd := trainStart.Add(trainSpan)
		testEnd := trainEnd.Add(testSpan)

		if testEnd.After(end) {
			break
		}

		windows = append(windows, WalkForwardWindow{
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  trainEnd,
			TestEnd:    testEnd,
		})
	}

	if len(windows) == 0 {
		return nil, coreerrors.Newf(coreerrors.ErrCodeWalkForwardInvalid, "history span %s to %s is too short for a single train(%s)+test(%s) fold", start, end, trainSpan, testSpan)
	}

	return windows, nil
}

// SliceSources bounds every source's bar stream to [start, end), for
// running an independent engine.Run over one walk-forward fold's train
// or test segment. Sources (and their instrument/timeframe identity)
// are otherwise preserved; only the bar slice changes.
func SliceSources(sources []feed.Source, start, end time.Time) []feed.Source {
	sliced := make([]feed.Source, 0, len(sources))

	for _, source := range sources {
		bars := source.Bars()
		windowed := make([]types.Bar, 0, len(bars))

		for _, bar := range bars {
			if bar.TOpen.Before(start) || !bar.TOpen.Before(end) {
				continue
			}

			windowed = append(windowed, bar)
		}

		sliced = append(sliced, feed.NewInMemorySource(source.Instrument(), source.Timeframe(), windowed))
	}

	return sliced
}
