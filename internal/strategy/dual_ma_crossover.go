package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/indicator"
	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// DualMACrossover is the dual moving-average crossover reference
// strategy: long on a fast-over-slow SMA cross, flat (or reversed, if
// AllowShort) on the opposite cross.
type DualMACrossover struct {
	fast         int
	slow         int
	positionSize decimal.Decimal
	allowShort   bool
}

// NewDualMACrossover constructs the strategy with its parameter schema
// unresolved; call Configure before use.
func NewDualMACrossover() *DualMACrossover {
	return &DualMACrossover{fast: 10, slow: 30, positionSize: decimal.NewFromInt(1)}
}

// DualMACrossoverParamSchema is this strategy's typed parameter
// declaration.
func DualMACrossoverParamSchema() ParamSchema {
	return ParamSchema{
		{Name: "fast", Kind: ParamKindInt, Default: 10, HasMin: true, Min: decimal.NewFromInt(1)},
		{Name: "slow", Kind: ParamKindInt, Default: 30, HasMin: true, Min: decimal.NewFromInt(2)},
		{Name: "position_size", Kind: ParamKindDecimal, Default: decimal.NewFromInt(1), HasMin: true, Min: decimal.Zero},
		{Name: "allow_short", Kind: ParamKindBool, Default: false},
	}
}

func (s *DualMACrossover) Metadata() Metadata {
	return Metadata{
		Name:            "dual_ma_crossover",
		EngineVersion:   "v0.1.0",
		RequiredHistory: s.slow,
		AllowShort:      s.allowShort,
	}
}

func (s *DualMACrossover) Configure(params map[string]any) error {
	resolved, err := DualMACrossoverParamSchema().Resolve(params)
	if err != nil {
		return err
	}

	s.fast = resolved["fast"].(int)
	s.slow = resolved["slow"].(int)
	s.positionSize = resolved["position_size"].(decimal.Decimal)
	s.allowShort = resolved["allow_short"].(bool)

	if s.fast >= s.slow {
		return coreerrors.New(coreerrors.ErrCodeInvalidParameter, "parameter \"fast\" must be strictly less than \"slow\"")
	}

	return nil
}

func (s *DualMACrossover) OnBar(frame types.BarFrame, _ Context) ([]types.Signal, error) {
	prevCloses := closesExcludingCurrent(frame)
	currCloses := closesIncludingCurrent(frame)

	if len(prevCloses) < s.slow {
		return nil, nil
	}

	prevFast, err := indicator.SMA(prevCloses, s.fast)
	if err != nil {
		return nil, nil
	}

	prevSlow, err := indicator.SMA(prevCloses, s.slow)
	if err != nil {
		return nil, nil
	}

	currFast, err := indicator.SMA(currCloses, s.fast)
	if err != nil {
		return nil, err
	}

	currSlow, err := indicator.SMA(currCloses, s.slow)
	if err != nil {
		return nil, err
	}

	wasBelow := prevFast.LessThanOrEqual(prevSlow)
	isAbove := currFast.GreaterThan(currSlow)
	wasAbove := prevFast.GreaterThanOrEqual(prevSlow)
	isBelow := currFast.LessThan(currSlow)

	switch {
	case wasBelow && isAbove:
		return []types.Signal{
			types.TargetPosition(frame.Instrument, s.positionSize, "fast SMA crossed above slow SMA"),
		}, nil

	case wasAbove && isBelow:
		target := decimal.Zero
		if s.allowShort {
			target = s.positionSize.Neg()
		}

		return []types.Signal{
			types.TargetPosition(frame.Instrument, target, "fast SMA crossed below slow SMA"),
		}, nil
	}

	return nil, nil
}

var _ Strategy = (*DualMACrossover)(nil)
