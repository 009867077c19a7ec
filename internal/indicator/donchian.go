package indicator

import (
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// DonchianChannelResult holds the channel extremes over the lookback
// window.
type DonchianChannelResult struct {
	High decimal.Decimal
	Low  decimal.Decimal
}

// DonchianChannel returns the highest high and lowest low over the
// trailing period bars (oldest first), the breakout strategy's core
// signal input.
func DonchianChannel(bars []types.Bar, period int) (DonchianChannelResult, error) {
	if period <= 0 {
		return DonchianChannelResult{}, coreerrors.Newf(coreerrors.ErrCodeInvalidParameter, "donchian period must be positive, got %d", period)
	}

	if len(bars) < period {
		return DonchianChannelResult{}, coreerrors.NewInsufficientDataErrorf(period, len(bars), "", "donchian channel requires %d bars, got %d", period, len(bars))
	}

	window := bars[len(bars)-period:]

	high := window[0].High
	low := window[0].Low

	for _, b := range window[1:] {
		if b.High.GreaterThan(high) {
			high = b.High
		}

		if b.Low.LessThan(low) {
			low = b.Low
		}
	}

	return DonchianChannelResult{High: high, Low: low}, nil
}
