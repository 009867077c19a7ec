package orchestrator

import (
	"sort"

	"github.com/sirily11/argo-backtest-core/internal/metrics"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// ScoreField names the metrics.Summary field a sweep or walk-forward
// fold ranks results by. The zero value is ScoreSharpeRatio.
type ScoreField string

const (
	ScoreSharpeRatio      ScoreField = "sharpe_ratio"
	ScoreSortinoRatio     ScoreField = "sortino_ratio"
	ScoreCalmarRatio      ScoreField = "calmar_ratio"
	ScoreTotalReturn      ScoreField = "total_return"
	ScoreAnnualizedReturn ScoreField = "annualized_return"
	ScoreProfitFactor     ScoreField = "profit_factor"
	ScoreWinRate          ScoreField = "win_rate"
	// ScoreMaxDrawdown ranks by the smallest drawdown: Value negates
	// Summary.MaxDrawdown so higher is still better, matching every
	// other field.
	ScoreMaxDrawdown ScoreField = "max_drawdown"
)

// Value extracts the score metrics.Summary contributes for field,
// higher-is-better in every case (MaxDrawdown is negated so the same
// ordering logic applies uniformly). An empty field defaults to Sharpe.
func (f ScoreField) Value(summary metrics.Summary) float64 {
	switch f {
	case "", ScoreSharpeRatio:
		return summary.SharpeRatio
	case ScoreSortinoRatio:
		return summary.SortinoRatio
	case ScoreCalmarRatio:
		return summary.CalmarRatio
	case ScoreTotalReturn:
		return summary.TotalReturn
	case ScoreAnnualizedReturn:
		return summary.AnnualizedReturn
	case ScoreProfitFactor:
		return summary.ProfitFactor
	case ScoreWinRate:
		return summary.WinRate
	case ScoreMaxDrawdown:
		return -summary.MaxDrawdown
	default:
		return summary.SharpeRatio
	}
}

// Valid reports whether field names a recognized score.
func (f ScoreField) Valid() bool {
	switch f {
	case "", ScoreSharpeRatio, ScoreSortinoRatio, ScoreCalmarRatio, ScoreTotalReturn,
		ScoreAnnualizedReturn, ScoreProfitFactor, ScoreWinRate, ScoreMaxDrawdown:
		return true
	default:
		return false
	}
}

// RankResults sorts a copy of results by field descending (best first),
// defaulting to Sharpe ratio. Jobs that errored carry no usable score
// and sort after every successful job, in their original index order.
func RankResults(results []JobResult, field ScoreField) ([]JobResult, error) {
	if !field.Valid() {
		return nil, coreerrors.Newf(coreerrors.ErrCodeParamSpaceInvalid, "unknown score field %q", field)
	}

	ranked := make([]JobResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		if a.Err != nil || b.Err != nil {
			if a.Err == nil {
				return true
			}

			if b.Err == nil {
				return false
			}

			return a.Job.Index < b.Job.Index
		}

		return field.Value(a.Result.Summary) > field.Value(b.Result.Summary)
	})

	return ranked, nil
}

// BestResult returns the single highest-scoring successful job in
// results, or an error if none succeeded.
func BestResult(results []JobResult, field ScoreField) (JobResult, error) {
	ranked, err := RankResults(results, field)
	if err != nil {
		return JobResult{}, err
	}

	for _, result := range ranked {
		if result.Err == nil {
			return result, nil
		}
	}

	return JobResult{}, coreerrors.New(coreerrors.ErrCodeParamSpaceInvalid, "no successful job to select a best result from")
}
