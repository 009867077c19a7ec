package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/indicator"
	"github.com/sirily11/argo-backtest-core/internal/types"
)

// BollingerMeanReversion is the Bollinger bands mean-reversion reference
// strategy: long on a touch of the lower band, flat on a touch of the
// middle or upper band.
type BollingerMeanReversion struct {
	period       int
	stdDev       decimal.Decimal
	positionSize decimal.Decimal
}

func NewBollingerMeanReversion() *BollingerMeanReversion {
	return &BollingerMeanReversion{period: 20, stdDev: decimal.NewFromInt(2), positionSize: decimal.NewFromInt(1)}
}

func BollingerMeanReversionParamSchema() ParamSchema {
	return ParamSchema{
		{Name: "period", Kind: ParamKindInt, Default: 20, HasMin: true, Min: decimal.NewFromInt(2)},
		{Name: "std_dev", Kind: ParamKindDecimal, Default: decimal.NewFromInt(2), HasMin: true, Min: decimal.Zero},
		{Name: "position_size", Kind: ParamKindDecimal, Default: decimal.NewFromInt(1), HasMin: true, Min: decimal.Zero},
	}
}

func (s *BollingerMeanReversion) Metadata() Metadata {
	return Metadata{
		Name:            "bollinger_mean_reversion",
		EngineVersion:   "v0.1.0",
		RequiredHistory: s.period,
	}
}

func (s *BollingerMeanReversion) Configure(params map[string]any) error {
	resolved, err := BollingerMeanReversionParamSchema().Resolve(params)
	if err != nil {
		return err
	}

	s.period = resolved["period"].(int)
	s.stdDev = resolved["std_dev"].(decimal.Decimal)
	s.positionSize = resolved["position_size"].(decimal.Decimal)

	return nil
}

func (s *BollingerMeanReversion) OnBar(frame types.BarFrame, _ Context) ([]types.Signal, error) {
	closes := closesIncludingCurrent(frame)
	if len(closes) < s.period {
		return nil, nil
	}

	bands, err := indicator.BollingerBands(closes, s.period, s.stdDev)
	if err != nil {
		return nil, nil
	}

	close := frame.Current.Close

	if close.LessThanOrEqual(bands.Lower) {
		return []types.Signal{
			types.TargetPosition(frame.Instrument, s.positionSize, "touched lower Bollinger band"),
		}, nil
	}

	if close.GreaterThanOrEqual(bands.Middle) {
		return []types.Signal{
			types.TargetPosition(frame.Instrument, decimal.Zero, "touched middle or upper Bollinger band"),
		}, nil
	}

	return nil, nil
}

var _ Strategy = (*BollingerMeanReversion)(nil)
