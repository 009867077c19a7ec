package indicator

import (
	"github.com/shopspring/decimal"

	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// RSI returns the Relative Strength Index over the trailing period,
// using Wilder's smoothing method over gain/loss accumulation in exact
// decimal arithmetic throughout.
func RSI(closes []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, coreerrors.Newf(coreerrors.ErrCodeInvalidParameter, "rsi period must be positive, got %d", period)
	}

	if len(closes) < period+1 {
		return decimal.Zero, coreerrors.NewInsufficientDataErrorf(period+1, len(closes), "", "rsi requires %d closes, got %d", period+1, len(closes))
	}

	gains := make([]decimal.Decimal, 0, len(closes)-1)
	losses := make([]decimal.Decimal, 0, len(closes)-1)

	for i := 1; i < len(closes); i++ {
		change := closes[i].Sub(closes[i-1])
		if change.IsPositive() {
			gains = append(gains, change)
			losses = append(losses, decimal.Zero)
		} else {
			gains = append(gains, decimal.Zero)
			losses = append(losses, change.Neg())
		}
	}

	periodDec := decimal.NewFromInt(int64(period))

	avgGain := decimal.Zero
	avgLoss := decimal.Zero

	for i := 0; i < period; i++ {
		avgGain = avgGain.Add(gains[i])
		avgLoss = avgLoss.Add(losses[i])
	}

	avgGain = avgGain.DivRound(periodDec, 16)
	avgLoss = avgLoss.DivRound(periodDec, 16)

	periodMinusOne := decimal.NewFromInt(int64(period - 1))

	for i := period; i < len(gains); i++ {
		avgGain = avgGain.Mul(periodMinusOne).Add(gains[i]).DivRound(periodDec, 16)
		avgLoss = avgLoss.Mul(periodMinusOne).Add(losses[i]).DivRound(periodDec, 16)
	}

	if avgLoss.IsZero() {
		return hundred, nil
	}

	rs := avgGain.DivRound(avgLoss, 16)

	return hundred.Sub(hundred.DivRound(decimal.NewFromInt(1).Add(rs), 16)), nil
}
