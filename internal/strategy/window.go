package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/types"
)

// closesIncludingCurrent returns the trailing closed-bar closes followed
// by the current bar's close, the series a strategy decides against at
// this bar's close.
func closesIncludingCurrent(frame types.BarFrame) []decimal.Decimal {
	closes := make([]decimal.Decimal, 0, len(frame.History)+1)
	for _, b := range frame.History {
		closes = append(closes, b.Close)
	}

	return append(closes, frame.Current.Close)
}

// closesExcludingCurrent returns only the trailing closed-bar closes, the
// series as of the bar immediately before Current — used to recover the
// "previous" value of an indicator for crossover detection.
func closesExcludingCurrent(frame types.BarFrame) []decimal.Decimal {
	closes := make([]decimal.Decimal, len(frame.History))
	for i, b := range frame.History {
		closes[i] = b.Close
	}

	return closes
}
