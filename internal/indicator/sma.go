// Package indicator provides the deterministic, decimal-based technical
// indicators available to strategies through internal/strategy. Every
// function here is pure: given the same closed-bar window it returns the
// same value, with no hidden state and no wall-clock dependency.
package indicator

import (
	"github.com/shopspring/decimal"

	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// SMA returns the arithmetic mean of the last period closes. closes must be
// ordered oldest first; only the trailing period-length window is used.
func SMA(closes []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, coreerrors.Newf(coreerrors.ErrCodeInvalidParameter, "sma period must be positive, got %d", period)
	}

	if len(closes) < period {
		return decimal.Zero, coreerrors.NewInsufficientDataErrorf(period, len(closes), "", "sma requires %d closes, got %d", period, len(closes))
	}

	window := closes[len(closes)-period:]

	sum := decimal.Zero
	for _, c := range window {
		sum = sum.Add(c)
	}

	return sum.DivRound(decimal.NewFromInt(int64(period)), 16), nil
}
