// Package matching fills accepted orders at the next bar's open with
// slippage and market-specific costs applied. A live-trading engine
// would submit orders to an exchange and read back real fills; this
// engine instead derives the fill price and fees itself, reusing
// internal/rules for commission/tax and order legality.
package matching

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/rules"
	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// GateResolver returns the rule gate for an asset kind. Defaults to
// rules.GetGate but is overridable so callers can inject gates configured
// with non-default commission, maintenance-margin, or liquidation-penalty
// rates. Slippage is not a gate setting; it is Matcher.SlippageBps.
type GateResolver func(types.AssetKind) (rules.Gate, error)

// Matcher fills accepted orders at the next bar's open.
type Matcher struct {
	SlippageBps int64
	resolve     GateResolver
}

func NewMatcher(slippageBps int64, resolve GateResolver) *Matcher {
	if resolve == nil {
		resolve = rules.GetGate
	}

	return &Matcher{SlippageBps: slippageBps, resolve: resolve}
}

func (m *Matcher) slip() decimal.Decimal {
	return decimal.NewFromInt(m.SlippageBps).Div(decimal.NewFromInt(10000))
}

// fillPrice applies the slippage formula: unfavorable perturbation
// against the order's side.
func (m *Matcher) fillPrice(side types.OrderSide, nextOpen decimal.Decimal) decimal.Decimal {
	slip := m.slip()
	if side == types.OrderSideBuy {
		return nextOpen.Mul(decimal.NewFromInt(1).Add(slip))
	}

	return nextOpen.Mul(decimal.NewFromInt(1).Sub(slip))
}

// CheckLiquidations runs the maintenance-margin check against every open
// position in ledger whose asset kind's gate implements rules.Liquidator,
// producing synthetic closing fills for any triggered position. Marking
// positions for liquidation happens before any new order is processed
// on the bar.
func (m *Matcher) CheckLiquidations(ledger types.LedgerSnapshot, specs types.InstrumentSpecs, nextOpens map[types.InstrumentID]decimal.Decimal, barIndex int, tFill time.Time) ([]types.Fill, error) {
	instruments := make([]types.InstrumentID, 0, len(ledger.Positions))
	for id := range ledger.Positions {
		instruments = append(instruments, id)
	}

	sort.Slice(instruments, func(i, j int) bool { return instruments[i].Symbol() < instruments[j].Symbol() })

	fills := make([]types.Fill, 0)

	for _, id := range instruments {
		position := ledger.Positions[id]
		if position.IsFlat() {
			continue
		}

		spec, ok := specs.Get(id)
		if !ok {
			return nil, coreerrors.Newf(coreerrors.ErrCodeUnknownInstrument, "no instrument spec for %s", id.Symbol())
		}

		gate, err := m.resolve(id.AssetKind)
		if err != nil {
			return nil, err
		}

		liquidator, ok := gate.(rules.Liquidator)
		if !ok {
			continue
		}

		markPrice, ok := nextOpens[id]
		if !ok {
			continue
		}

		triggered, penalty := liquidator.CheckLiquidation(position, spec, markPrice, ledger.Cash)
		if !triggered {
			continue
		}

		side := types.OrderSideSell
		if position.Quantity.IsNegative() {
			side = types.OrderSideBuy
		}

		fills = append(fills, types.Fill{
			Instrument:   id,
			Side:         side,
			FillQuantity: position.Quantity.Abs(),
			FillPrice:    markPrice,
			FeeAmount:    penalty,
			TFill:        tFill,
			FillBarIndex: barIndex,
			Reason:       types.ReasonLiquidation,
		})
	}

	return fills, nil
}

// Match validates and fills a bar's pending orders in deterministic
// (instrument, submit_seq) order.
func (m *Matcher) Match(orders []types.Order, specs types.InstrumentSpecs, ledger types.LedgerSnapshot, nextOpens map[types.InstrumentID]decimal.Decimal, refCloses map[types.InstrumentID]decimal.Decimal, tFill time.Time) ([]types.Fill, []types.Rejection, error) {
	sorted := make([]types.Order, len(orders))
	copy(sorted, orders)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Instrument.Symbol() != sorted[j].Instrument.Symbol() {
			return sorted[i].Instrument.Symbol() < sorted[j].Instrument.Symbol()
		}

		return sorted[i].SubmitSeq < sorted[j].SubmitSeq
	})

	fills := make([]types.Fill, 0, len(sorted))
	rejections := make([]types.Rejection, 0)

	for _, order := range sorted {
		spec, ok := specs.Get(order.Instrument)
		if !ok {
			return nil, nil, coreerrors.Newf(coreerrors.ErrCodeUnknownInstrument, "no instrument spec for %s", order.Instrument.Symbol())
		}

		nextOpen, ok := nextOpens[order.Instrument]
		if !ok {
			return nil, nil, coreerrors.Newf(coreerrors.ErrCodeUnknownInstrument, "no next-bar open for %s", order.Instrument.Symbol())
		}

		gate, err := m.resolve(order.Instrument.AssetKind)
		if err != nil {
			return nil, nil, err
		}

		refClose := refCloses[order.Instrument]

		accepted, rejection := gate.Validate(order, spec, ledger, nextOpen, refClose)
		if rejection != nil {
			rejections = append(rejections, *rejection)
			continue
		}

		if accepted.Type == types.OrderTypeLimit && accepted.HasLimit {
			if !limitSatisfied(accepted.Side, nextOpen, accepted.LimitPrice) {
				rejections = append(rejections, types.Rejection{
					OrderID:    accepted.ID,
					Instrument: accepted.Instrument,
					BarIndex:   accepted.SubmitBarIndex,
					Reason:     types.ReasonLimitExpired,
					Message:    "next bar's open did not satisfy the limit price",
				})

				continue
			}
		}

		fillPrice := m.fillPrice(accepted.Side, nextOpen)
		fee := gate.Commission(fillPrice, accepted.Quantity, accepted.Side)
		tax := gate.Tax(fillPrice, accepted.Quantity, accepted.Side)

		fills = append(fills, types.Fill{
			OrderID:      accepted.ID,
			Instrument:   accepted.Instrument,
			Side:         accepted.Side,
			FillQuantity: accepted.Quantity,
			FillPrice:    fillPrice,
			FeeAmount:    fee,
			TaxAmount:    tax,
			Leverage:     accepted.Leverage,
			TFill:        tFill,
			FillBarIndex: accepted.SubmitBarIndex + 1,
			Reason:       accepted.Reason,
		})
	}

	return fills, rejections, nil
}

func limitSatisfied(side types.OrderSide, fillPrice, limitPrice decimal.Decimal) bool {
	if side == types.OrderSideBuy {
		return fillPrice.LessThanOrEqual(limitPrice)
	}

	return fillPrice.GreaterThanOrEqual(limitPrice)
}
