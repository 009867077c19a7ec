package indicator

import (
	"github.com/shopspring/decimal"

	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// BollingerBandsResult holds the middle (SMA), upper, and lower bands.
type BollingerBandsResult struct {
	Middle decimal.Decimal
	Upper  decimal.Decimal
	Lower  decimal.Decimal
}

// BollingerBands computes the middle, upper, and lower bands over the
// trailing period, using a decimal mean with a float64 crossing only
// for the square root (see stddev.go).
func BollingerBands(closes []decimal.Decimal, period int, numStdDev decimal.Decimal) (BollingerBandsResult, error) {
	if period <= 0 {
		return BollingerBandsResult{}, coreerrors.Newf(coreerrors.ErrCodeInvalidParameter, "bollinger period must be positive, got %d", period)
	}

	if len(closes) < period {
		return BollingerBandsResult{}, coreerrors.NewInsufficientDataErrorf(period, len(closes), "", "bollinger bands require %d closes, got %d", period, len(closes))
	}

	window := closes[len(closes)-period:]

	middle, err := SMA(closes, period)
	if err != nil {
		return BollingerBandsResult{}, err
	}

	stddev := populationStdDev(window, middle)
	band := stddev.Mul(numStdDev)

	return BollingerBandsResult{
		Middle: middle,
		Upper:  middle.Add(band),
		Lower:  middle.Sub(band),
	}, nil
}
