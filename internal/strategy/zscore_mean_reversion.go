package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/indicator"
	"github.com/sirily11/argo-backtest-core/internal/types"
)

// ZScoreMeanReversion is the Z-score reference strategy: long when the
// normalized deviation from the rolling mean drops below -entryZ, flat
// once it crosses back past ±exitZ.
type ZScoreMeanReversion struct {
	period  int
	entryZ  decimal.Decimal
	exitZ   decimal.Decimal
	sizePos decimal.Decimal
}

func NewZScoreMeanReversion() *ZScoreMeanReversion {
	return &ZScoreMeanReversion{
		period:  20,
		entryZ:  decimal.NewFromInt(2),
		exitZ:   decimal.NewFromFloat(0.5),
		sizePos: decimal.NewFromInt(1),
	}
}

func ZScoreMeanReversionParamSchema() ParamSchema {
	return ParamSchema{
		{Name: "period", Kind: ParamKindInt, Default: 20, HasMin: true, Min: decimal.NewFromInt(2)},
		{Name: "entry_z", Kind: ParamKindDecimal, Default: decimal.NewFromInt(2), HasMin: true, Min: decimal.Zero},
		{Name: "exit_z", Kind: ParamKindDecimal, Default: decimal.NewFromFloat(0.5), HasMin: true, Min: decimal.Zero},
		{Name: "position_size", Kind: ParamKindDecimal, Default: decimal.NewFromInt(1), HasMin: true, Min: decimal.Zero},
	}
}

func (s *ZScoreMeanReversion) Metadata() Metadata {
	return Metadata{
		Name:            "zscore_mean_reversion",
		EngineVersion:   "v0.1.0",
		RequiredHistory: s.period,
	}
}

func (s *ZScoreMeanReversion) Configure(params map[string]any) error {
	resolved, err := ZScoreMeanReversionParamSchema().Resolve(params)
	if err != nil {
		return err
	}

	s.period = resolved["period"].(int)
	s.entryZ = resolved["entry_z"].(decimal.Decimal)
	s.exitZ = resolved["exit_z"].(decimal.Decimal)
	s.sizePos = resolved["position_size"].(decimal.Decimal)

	return nil
}

func (s *ZScoreMeanReversion) OnBar(frame types.BarFrame, _ Context) ([]types.Signal, error) {
	closes := closesIncludingCurrent(frame)
	if len(closes) < s.period {
		return nil, nil
	}

	z, err := indicator.ZScore(closes, s.period)
	if err != nil {
		return nil, nil
	}

	if z.LessThan(s.entryZ.Neg()) {
		return []types.Signal{
			types.TargetPosition(frame.Instrument, s.sizePos, "z-score below negative entry threshold"),
		}, nil
	}

	if z.Abs().LessThanOrEqual(s.exitZ) {
		return []types.Signal{
			types.TargetPosition(frame.Instrument, decimal.Zero, "z-score crossed back within exit band"),
		}, nil
	}

	return nil, nil
}

var _ Strategy = (*ZScoreMeanReversion)(nil)
