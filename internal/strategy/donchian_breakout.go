package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/indicator"
	"github.com/sirily11/argo-backtest-core/internal/types"
)

// DonchianBreakout is the Donchian channel breakout reference strategy.
// Channel bounds are computed over History only, so the current bar can
// never break out of its own range.
type DonchianBreakout struct {
	entryPeriod  int
	exitPeriod   int
	positionSize decimal.Decimal
}

func NewDonchianBreakout() *DonchianBreakout {
	return &DonchianBreakout{entryPeriod: 20, exitPeriod: 10, positionSize: decimal.NewFromInt(1)}
}

func DonchianBreakoutParamSchema() ParamSchema {
	return ParamSchema{
		{Name: "entry_period", Kind: ParamKindInt, Default: 20, HasMin: true, Min: decimal.NewFromInt(1)},
		{Name: "exit_period", Kind: ParamKindInt, Default: 10, HasMin: true, Min: decimal.NewFromInt(1)},
		{Name: "position_size", Kind: ParamKindDecimal, Default: decimal.NewFromInt(1), HasMin: true, Min: decimal.Zero},
	}
}

func (s *DonchianBreakout) Metadata() Metadata {
	required := s.entryPeriod
	if s.exitPeriod > required {
		required = s.exitPeriod
	}

	return Metadata{
		Name:            "donchian_breakout",
		EngineVersion:   "v0.1.0",
		RequiredHistory: required,
	}
}

func (s *DonchianBreakout) Configure(params map[string]any) error {
	resolved, err := DonchianBreakoutParamSchema().Resolve(params)
	if err != nil {
		return err
	}

	s.entryPeriod = resolved["entry_period"].(int)
	s.exitPeriod = resolved["exit_period"].(int)
	s.positionSize = resolved["position_size"].(decimal.Decimal)

	return nil
}

func (s *DonchianBreakout) OnBar(frame types.BarFrame, _ Context) ([]types.Signal, error) {
	if len(frame.History) < s.entryPeriod {
		return nil, nil
	}

	entryChannel, err := indicator.DonchianChannel(frame.History, s.entryPeriod)
	if err != nil {
		return nil, nil
	}

	if frame.Current.Close.GreaterThan(entryChannel.High) {
		return []types.Signal{
			types.TargetPosition(frame.Instrument, s.positionSize, "breakout above prior entry-period high"),
		}, nil
	}

	if len(frame.History) >= s.exitPeriod {
		exitChannel, err := indicator.DonchianChannel(frame.History, s.exitPeriod)
		if err == nil && frame.Current.Close.LessThan(exitChannel.Low) {
			return []types.Signal{
				types.TargetPosition(frame.Instrument, decimal.Zero, "breakdown below prior exit-period low"),
			}, nil
		}
	}

	return nil, nil
}

var _ Strategy = (*DonchianBreakout)(nil)
