package indicator

import (
	"github.com/shopspring/decimal"

	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// EMA returns the exponential moving average over closes (oldest first),
// seeded with the SMA of the first period values. Multiplier = 2 / (period+1).
func EMA(closes []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, coreerrors.Newf(coreerrors.ErrCodeInvalidParameter, "ema period must be positive, got %d", period)
	}

	if len(closes) < period {
		return decimal.Zero, coreerrors.NewInsufficientDataErrorf(period, len(closes), "", "ema requires %d closes, got %d", period, len(closes))
	}

	seed := decimal.Zero
	for i := 0; i < period; i++ {
		seed = seed.Add(closes[i])
	}

	seed = seed.DivRound(decimal.NewFromInt(int64(period)), 16)

	alpha := decimal.NewFromInt(2).DivRound(decimal.NewFromInt(int64(period+1)), 16)
	oneMinusAlpha := decimal.NewFromInt(1).Sub(alpha)

	ema := seed
	for i := period; i < len(closes); i++ {
		ema = closes[i].Mul(alpha).Add(ema.Mul(oneMinusAlpha))
	}

	return ema, nil
}

// EMASeries returns the EMA value at every index from period-1 onward,
// oldest first, for strategies that need the full trailing series (e.g.
// a dual moving-average crossover comparing this bar's and the prior
// bar's fast/slow EMA).
func EMASeries(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period <= 0 {
		return nil, coreerrors.Newf(coreerrors.ErrCodeInvalidParameter, "ema period must be positive, got %d", period)
	}

	if len(closes) < period {
		return nil, coreerrors.NewInsufficientDataErrorf(period, len(closes), "", "ema requires %d closes, got %d", period, len(closes))
	}

	seed := decimal.Zero
	for i := 0; i < period; i++ {
		seed = seed.Add(closes[i])
	}

	seed = seed.DivRound(decimal.NewFromInt(int64(period)), 16)

	alpha := decimal.NewFromInt(2).DivRound(decimal.NewFromInt(int64(period+1)), 16)
	oneMinusAlpha := decimal.NewFromInt(1).Sub(alpha)

	series := make([]decimal.Decimal, 0, len(closes)-period+1)
	series = append(series, seed)

	ema := seed
	for i := period; i < len(closes); i++ {
		ema = closes[i].Mul(alpha).Add(ema.Mul(oneMinusAlpha))
		series = append(series, ema)
	}

	return series, nil
}
