// Package translate converts a bar's strategy signals into concrete
// pending orders against the current ledger. A live-trading strategy
// would call PlaceOrder directly against a running engine; this
// package instead turns declarative signals into orders up front.
package translate

import (
	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// Translate converts one bar's signals into pending orders. ledger
// supplies the current position per instrument (for TargetPosition delta
// computation); barIndex and nextSeq seed Order.SubmitBarIndex/SubmitSeq.
//
// Multiple signals for the same instrument collapse: a TargetPosition
// overrides any earlier intent for that instrument;
// two conflicting OrderIntents for the same instrument are rejected with
// ErrCodeDuplicateSignal rather than silently picking one.
func Translate(signals []types.Signal, ledger types.LedgerSnapshot, barIndex int, nextSeq func() int) ([]types.Order, []types.Rejection, error) {
	byInstrument := make(map[types.InstrumentID][]types.Signal)

	order := make([]types.InstrumentID, 0, len(signals))

	for _, sig := range signals {
		if _, seen := byInstrument[sig.Instrument]; !seen {
			order = append(order, sig.Instrument)
		}

		byInstrument[sig.Instrument] = append(byInstrument[sig.Instrument], sig)
	}

	orders := make([]types.Order, 0, len(signals))
	rejections := make([]types.Rejection, 0)

	for _, instrument := range order {
		group := byInstrument[instrument]

		resolved, err := collapse(group)
		if err != nil {
			rejections = append(rejections, types.Rejection{
				Instrument: instrument,
				BarIndex:   barIndex,
				Reason:     types.ReasonDuplicateSignal,
				Message:    err.Error(),
			})

			continue
		}

		ord, rejection, err := toOrder(resolved, ledger, barIndex, nextSeq)
		if err != nil {
			return nil, nil, err
		}

		if rejection != nil {
			rejections = append(rejections, *rejection)

			continue
		}

		if ord != nil {
			orders = append(orders, *ord)
		}
	}

	return orders, rejections, nil
}

// collapse applies the same-instrument collapsing rule: any
// TargetPosition signal overrides earlier intents; two OrderIntent
// signals for the same instrument conflict.
func collapse(group []types.Signal) (types.Signal, error) {
	var target *types.Signal

	var intent *types.Signal

	for i := range group {
		sig := group[i]

		switch sig.Kind {
		case types.SignalKindTargetPosition:
			target = &sig
		case types.SignalKindOrderIntent:
			if intent != nil {
				return types.Signal{}, coreerrors.Newf(coreerrors.ErrCodeDuplicateSignal,
					"conflicting order intents for %s on the same bar", sig.Instrument.Symbol())
			}

			intent = &sig
		}
	}

	if target != nil {
		return *target, nil
	}

	return *intent, nil
}

func toOrder(sig types.Signal, ledger types.LedgerSnapshot, barIndex int, nextSeq func() int) (*types.Order, *types.Rejection, error) {
	switch sig.Kind {
	case types.SignalKindTargetPosition:
		current := ledger.PositionOf(sig.Instrument).Quantity
		delta := sig.TargetQuantity.Sub(current)

		if delta.IsZero() {
			return nil, nil, nil
		}

		side := types.OrderSideBuy
		if delta.IsNegative() {
			side = types.OrderSideSell
		}

		return &types.Order{
			Instrument:     sig.Instrument,
			Side:           side,
			Quantity:       delta.Abs(),
			Type:           types.OrderTypeMarket,
			SubmitBarIndex: barIndex,
			SubmitSeq:      nextSeq(),
			Reason:         sig.Reason,
		}, nil, nil

	case types.SignalKindOrderIntent:
		if sig.Quantity.Sign() <= 0 {
			return nil, &types.Rejection{
				Instrument: sig.Instrument,
				BarIndex:   barIndex,
				Reason:     types.ReasonInvalidOrder,
				Message:    "order intent quantity must be positive",
			}, nil
		}

		if sig.Type == types.OrderTypeLimit && !sig.HasLimit {
			return nil, &types.Rejection{
				Instrument: sig.Instrument,
				BarIndex:   barIndex,
				Reason:     types.ReasonInvalidOrder,
				Message:    "limit order intent missing limit price",
			}, nil
		}

		return &types.Order{
			Instrument:     sig.Instrument,
			Side:           sig.Side,
			Quantity:       sig.Quantity,
			Type:           sig.Type,
			LimitPrice:     sig.LimitPrice,
			HasLimit:       sig.HasLimit,
			SubmitBarIndex: barIndex,
			SubmitSeq:      nextSeq(),
			Reason:         sig.Reason,
		}, nil, nil

	default:
		return nil, nil, coreerrors.Newf(coreerrors.ErrCodeInvalidSignal, "unknown signal kind %q", sig.Kind)
	}
}

