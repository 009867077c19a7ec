package indicator

import (
	"github.com/shopspring/decimal"

	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// ZScore returns (last - mean) / stddev over the trailing period window,
// the basis for the mean-reversion strategy family. A zero-variance
// window (flat prices) yields zero rather than a division error.
func ZScore(closes []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, coreerrors.Newf(coreerrors.ErrCodeInvalidParameter, "zscore period must be positive, got %d", period)
	}

	if len(closes) < period {
		return decimal.Zero, coreerrors.NewInsufficientDataErrorf(period, len(closes), "", "zscore requires %d closes, got %d", period, len(closes))
	}

	window := closes[len(closes)-period:]

	mean, err := SMA(closes, period)
	if err != nil {
		return decimal.Zero, err
	}

	stddev := populationStdDev(window, mean)
	if stddev.IsZero() {
		return decimal.Zero, nil
	}

	last := window[len(window)-1]

	return last.Sub(mean).DivRound(stddev, 16), nil
}
