// Package metrics computes the end-of-run summary statistics from the
// equity series, fill ledger, and closed-trade records: a
// flat, YAML-serializable summary struct extended with Sharpe/Sortino/
// Calmar. Every field here is a derived statistic, so (unlike the rest
// of the core) this package works in float64 rather than
// decimal.Decimal.
package metrics

import (
	"math"

	"github.com/sirily11/argo-backtest-core/internal/types"
)

// Summary is the deterministic function of an equity series, fill
// ledger, and closed-trade ledger.
type Summary struct {
	TotalReturn          float64 `yaml:"total_return"`
	AnnualizedReturn     float64 `yaml:"annualized_return"`
	AnnualizedVolatility float64 `yaml:"annualized_volatility"`
	SharpeRatio          float64 `yaml:"sharpe_ratio"`
	SortinoRatio         float64 `yaml:"sortino_ratio"`
	CalmarRatio          float64 `yaml:"calmar_ratio"`
	MaxDrawdown          float64 `yaml:"max_drawdown"`

	WinRate        float64 `yaml:"win_rate"`
	ProfitFactor   float64 `yaml:"profit_factor"`
	AvgTradeReturn float64 `yaml:"avg_trade_return"`
	TotalTrades    int     `yaml:"total_trades"`

	Turnover float64 `yaml:"turnover"`

	TotalFees  float64 `yaml:"total_fees"`
	TotalTaxes float64 `yaml:"total_taxes"`
}

// DaysPerYear returns the annualization day-count basis per asset
// kind: 365 for always-on crypto venues, 252 for A-share's trading-day
// calendar.
func DaysPerYear(kind types.AssetKind) float64 {
	if kind == types.AssetKindStockAShare {
		return 252
	}

	return 365
}

// Compute derives the full summary. barsPerYear is
// (daysPerYear*secondsPerDay)/timeframeSeconds, supplied by the caller
// since it depends on the run's bar timeframe and asset-class calendar.
func Compute(equity []types.EquityPoint, fills []types.Fill, trades []types.Trade, barsPerYear float64) Summary {
	summary := Summary{TotalTrades: len(trades)}

	if len(equity) == 0 {
		return summary
	}

	initial := equity[0].Equity.InexactFloat64()
	final := equity[len(equity)-1].Equity.InexactFloat64()

	if initial != 0 {
		summary.TotalReturn = final/initial - 1
	}

	returns := barReturns(equity)

	numBars := float64(len(returns))
	if numBars > 0 && barsPerYear > 0 {
		summary.AnnualizedReturn = annualize(summary.TotalReturn, barsPerYear, numBars)
	}

	meanReturn, stdDev := meanAndStdDev(returns)

	if barsPerYear > 0 {
		summary.AnnualizedVolatility = stdDev * math.Sqrt(barsPerYear)

		if stdDev > 0 {
			summary.SharpeRatio = meanReturn / stdDev * math.Sqrt(barsPerYear)
		}

		downside := downsideDeviation(returns)
		if downside > 0 {
			summary.SortinoRatio = meanReturn / downside * math.Sqrt(barsPerYear)
		}
	}

	summary.MaxDrawdown = maxDrawdown(equity)

	if summary.MaxDrawdown != 0 {
		summary.CalmarRatio = summary.AnnualizedReturn / math.Abs(summary.MaxDrawdown)
	}

	summary.WinRate, summary.ProfitFactor, summary.AvgTradeReturn = tradeStats(trades)

	summary.Turnover = turnover(fills, equity)
	summary.TotalFees, summary.TotalTaxes = feeTaxTotals(fills)

	return summary
}

func barReturns(equity []types.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equity)-1)

	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity.InexactFloat64()
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}

		curr := equity[i].Equity.InexactFloat64()
		returns = append(returns, curr/prev-1)
	}

	return returns
}

func annualize(totalReturn, barsPerYear, numBars float64) float64 {
	base := 1 + totalReturn
	if base <= 0 {
		return -1
	}

	return math.Pow(base, barsPerYear/numBars) - 1
}

func meanAndStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	mean = sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}

	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}

func downsideDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sumSquares := 0.0

	for _, v := range values {
		if v < 0 {
			sumSquares += v * v
		}
	}

	return math.Sqrt(sumSquares / float64(len(values)))
}

func maxDrawdown(equity []types.EquityPoint) float64 {
	peak := 0.0
	worst := 0.0

	for i, point := range equity {
		value := point.Equity.InexactFloat64()
		if i == 0 || value > peak {
			peak = value
		}

		if peak <= 0 {
			continue
		}

		drawdown := (peak - value) / peak
		if drawdown > worst {
			worst = drawdown
		}
	}

	return worst
}

func tradeStats(trades []types.Trade) (winRate, profitFactor, avgReturn float64) {
	if len(trades) == 0 {
		return 0, 0, 0
	}

	wins := 0
	grossProfit := 0.0
	grossLoss := 0.0
	returnSum := 0.0

	for _, t := range trades {
		pnl := t.RealizedPnL.InexactFloat64()
		if t.IsWin() {
			wins++
			grossProfit += pnl
		} else if pnl < 0 {
			grossLoss += -pnl
		}

		returnSum += t.Return().InexactFloat64()
	}

	winRate = float64(wins) / float64(len(trades))
	avgReturn = returnSum / float64(len(trades))

	if grossLoss > 0 {
		profitFactor = grossProfit / grossLoss
	}

	return winRate, profitFactor, avgReturn
}

func turnover(fills []types.Fill, equity []types.EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}

	notional := 0.0

	for _, f := range fills {
		notional += f.FillQuantity.Mul(f.FillPrice).Abs().InexactFloat64()
	}

	avgEquity := 0.0

	for _, e := range equity {
		avgEquity += e.Equity.InexactFloat64()
	}

	avgEquity /= float64(len(equity))

	if avgEquity == 0 {
		return 0
	}

	return notional / avgEquity
}

func feeTaxTotals(fills []types.Fill) (fees, taxes float64) {
	for _, f := range fills {
		fees += f.FeeAmount.InexactFloat64()
		taxes += f.TaxAmount.InexactFloat64()
	}

	return fees, taxes
}
