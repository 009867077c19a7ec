package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/indicator"
	"github.com/sirily11/argo-backtest-core/internal/types"
)

// RSIMeanReversion is the RSI mean-reversion reference strategy: long
// below the oversold threshold, flat above overbought.
type RSIMeanReversion struct {
	period       int
	oversold     decimal.Decimal
	overbought   decimal.Decimal
	positionSize decimal.Decimal
}

func NewRSIMeanReversion() *RSIMeanReversion {
	return &RSIMeanReversion{
		period:       14,
		oversold:     decimal.NewFromInt(30),
		overbought:   decimal.NewFromInt(70),
		positionSize: decimal.NewFromInt(1),
	}
}

func RSIMeanReversionParamSchema() ParamSchema {
	return ParamSchema{
		{Name: "period", Kind: ParamKindInt, Default: 14, HasMin: true, Min: decimal.NewFromInt(2)},
		{Name: "oversold", Kind: ParamKindDecimal, Default: decimal.NewFromInt(30), HasMin: true, Min: decimal.Zero, HasMax: true, Max: decimal.NewFromInt(100)},
		{Name: "overbought", Kind: ParamKindDecimal, Default: decimal.NewFromInt(70), HasMin: true, Min: decimal.Zero, HasMax: true, Max: decimal.NewFromInt(100)},
		{Name: "position_size", Kind: ParamKindDecimal, Default: decimal.NewFromInt(1), HasMin: true, Min: decimal.Zero},
	}
}

func (s *RSIMeanReversion) Metadata() Metadata {
	return Metadata{
		Name:            "rsi_mean_reversion",
		EngineVersion:   "v0.1.0",
		RequiredHistory: s.period + 1,
	}
}

func (s *RSIMeanReversion) Configure(params map[string]any) error {
	resolved, err := RSIMeanReversionParamSchema().Resolve(params)
	if err != nil {
		return err
	}

	s.period = resolved["period"].(int)
	s.oversold = resolved["oversold"].(decimal.Decimal)
	s.overbought = resolved["overbought"].(decimal.Decimal)
	s.positionSize = resolved["position_size"].(decimal.Decimal)

	return nil
}

func (s *RSIMeanReversion) OnBar(frame types.BarFrame, _ Context) ([]types.Signal, error) {
	closes := closesIncludingCurrent(frame)
	if len(closes) < s.period+1 {
		return nil, nil
	}

	rsi, err := indicator.RSI(closes, s.period)
	if err != nil {
		return nil, nil
	}

	if rsi.LessThan(s.oversold) {
		return []types.Signal{
			types.TargetPosition(frame.Instrument, s.positionSize, "RSI below oversold threshold"),
		}, nil
	}

	if rsi.GreaterThan(s.overbought) {
		return []types.Signal{
			types.TargetPosition(frame.Instrument, decimal.Zero, "RSI above overbought threshold"),
		}, nil
	}

	return nil, nil
}

var _ Strategy = (*RSIMeanReversion)(nil)
