// Package orchestrator runs independent backtests around the pure
// internal/engine core: parameter sweeps (grid, random, Latin
// hypercube) and walk-forward train/test slicing, over a bounded worker
// pool. The core itself stays single-threaded; only this layer
// introduces concurrency, and only across wholly independent engine.Run
// calls that share no mutable state.
package orchestrator

import (
	"math/rand/v2"
	"sort"

	"github.com/shopspring/decimal"

	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// ParamAxis is one strategy parameter's sweep domain: either a discrete
// enumerated set (Values) or a continuous [Min, Max] range sampled by
// Random/LatinHypercube.
type ParamAxis struct {
	Name       string
	Values     []any
	Continuous bool
	Min        decimal.Decimal
	Max        decimal.Decimal
}

// ParamSpace is the full sweep domain across every axis.
type ParamSpace struct {
	Axes []ParamAxis
}

// Grid enumerates the full cartesian product of every axis's discrete
// Values. Continuous axes are rejected; Grid is for exhaustive discrete
// sweeps only.
func (s ParamSpace) Grid() ([]map[string]any, error) {
	for _, axis := range s.Axes {
		if axis.Continuous {
			return nil, coreerrors.Newf(coreerrors.ErrCodeParamSpaceInvalid, "axis %q is continuous; grid search requires discrete Values", axis.Name)
		}

		if len(axis.Values) == 0 {
			return nil, coreerrors.Newf(coreerrors.ErrCodeParamSpaceInvalid, "axis %q has no values", axis.Name)
		}
	}

	combos := []map[string]any{{}}

	for _, axis := range s.Axes {
		next := make([]map[string]any, 0, len(combos)*len(axis.Values))

		for _, combo := range combos {
			for _, value := range axis.Values {
				extended := make(map[string]any, len(combo)+1)
				for k, v := range combo {
					extended[k] = v
				}

				extended[axis.Name] = value
				next = append(next, extended)
			}
		}

		combos = next
	}

	return combos, nil
}

// Random draws n independent samples, each axis sampled uniformly and
// independently (discrete axes pick one of Values; continuous axes pick
// a uniform point in [Min, Max]). Sampling is seeded, so identical
// (space, n, seed) always produces identical draws, so a sweep's own
// randomness is as reproducible as the engine run it drives.
func (s ParamSpace) Random(n int, seed uint64) ([]map[string]any, error) {
	if n <= 0 {
		return nil, coreerrors.Newf(coreerrors.ErrCodeParamSpaceInvalid, "sample count must be positive, got %d", n)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	samples := make([]map[string]any, n)

	for i := 0; i < n; i++ {
		sample := make(map[string]any, len(s.Axes))

		for _, axis := range s.Axes {
			value, err := sampleAxis(axis, rng)
			if err != nil {
				return nil, err
			}

			sample[axis.Name] = value
		}

		samples[i] = sample
	}

	return samples, nil
}

// LatinHypercube draws n samples stratified per continuous axis: each
// axis's [Min, Max] range is divided into n equal strata, one stratum
// consumed (in a random order, without replacement) per sample, so the
// marginal distribution along every axis is evenly covered even for
// small n. Discrete axes fall back to independent uniform draws, since
// stratification is meaningless over an unordered enumeration.
func (s ParamSpace) LatinHypercube(n int, seed uint64) ([]map[string]any, error) {
	if n <= 0 {
		return nil, coreerrors.Newf(coreerrors.ErrCodeParamSpaceInvalid, "sample count must be positive, got %d", n)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	perAxisOrder := make([][]int, len(s.Axes))

	for axisIdx, axis := range s.Axes {
		if axis.Continuous && axis.Max.LessThanOrEqual(axis.Min) {
			return nil, coreerrors.Newf(coreerrors.ErrCodeParamSpaceInvalid, "axis %q has non-positive range [%s, %s]", axis.Name, axis.Min, axis.Max)
		}

		order := make([]int, n)
		for i := range order {
			order[i] = i
		}

		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		perAxisOrder[axisIdx] = order
	}

	strataWidth := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(n)))

	samples := make([]map[string]any, n)

	for i := 0; i < n; i++ {
		sample := make(map[string]any, len(s.Axes))

		for axisIdx, axis := range s.Axes {
			if !axis.Continuous {
				value, err := sampleAxis(axis, rng)
				if err != nil {
					return nil, err
				}

				sample[axis.Name] = value

				continue
			}

			stratum := perAxisOrder[axisIdx][i]
			low := decimal.NewFromInt(int64(stratum)).Mul(strataWidth)
			jitter := decimal.NewFromFloat(rng.Float64()).Mul(strataWidth)
			fraction := low.Add(jitter)

			sample[axis.Name] = axis.Min.Add(axis.Max.Sub(axis.Min).Mul(fraction))
		}

		samples[i] = sample
	}

	return samples, nil
}

func sampleAxis(axis ParamAxis, rng *rand.Rand) (any, error) {
	if axis.Continuous {
		if axis.Max.LessThanOrEqual(axis.Min) {
			return nil, coreerrors.Newf(coreerrors.ErrCodeParamSpaceInvalid, "axis %q has non-positive range [%s, %s]", axis.Name, axis.Min, axis.Max)
		}

		fraction := decimal.NewFromFloat(rng.Float64())

		return axis.Min.Add(axis.Max.Sub(axis.Min).Mul(fraction)), nil
	}

	if len(axis.Values) == 0 {
		return nil, coreerrors.Newf(coreerrors.ErrCodeParamSpaceInvalid, "axis %q has no values", axis.Name)
	}

	return axis.Values[rng.IntN(len(axis.Values))], nil
}

// sortedAxisNames returns the space's axis names in ascending order, a
// stable column order for rendering sweep results. No code in this
// module calls it.
func (s ParamSpace) sortedAxisNames() []string {
	names := make([]string, 0, len(s.Axes))
	for _, axis := range s.Axes {
		names = append(names, axis.Name)
	}

	sort.Strings(names)

	return names
}
