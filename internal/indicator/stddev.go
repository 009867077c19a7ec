package indicator

import (
	"math"

	"github.com/shopspring/decimal"
)

// populationStdDev returns the population standard deviation of window
// around the supplied mean. Variance accumulates in decimal; the square
// root crosses into float64, consistent with reserving float64 for
// derived statistics rather than cash or position arithmetic.
func populationStdDev(window []decimal.Decimal, mean decimal.Decimal) decimal.Decimal {
	variance := decimal.Zero
	for _, v := range window {
		diff := v.Sub(mean)
		variance = variance.Add(diff.Mul(diff))
	}

	variance = variance.DivRound(decimal.NewFromInt(int64(len(window))), 16)

	stddev := math.Sqrt(variance.InexactFloat64())

	return decimal.NewFromFloat(stddev)
}
