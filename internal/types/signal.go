package types

import "github.com/shopspring/decimal"

// SignalKind distinguishes the two strategy-output idioms.
type SignalKind string

const (
	SignalKindTargetPosition SignalKind = "target_position"
	SignalKindOrderIntent    SignalKind = "order_intent"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// Signal is strategy output for one instrument on one bar. Exactly one of
// the TargetPosition/OrderIntent field groups is meaningful, selected by
// Kind.
type Signal struct {
	Kind       SignalKind
	Instrument InstrumentID
	Reason     string

	// TargetPosition fields (Kind == SignalKindTargetPosition).
	TargetQuantity decimal.Decimal

	// OrderIntent fields (Kind == SignalKindOrderIntent).
	Side       OrderSide
	Type       OrderType
	Quantity   decimal.Decimal
	LimitPrice decimal.Decimal
	HasLimit   bool
}

// TargetPosition builds a TargetPosition signal.
func TargetPosition(instrument InstrumentID, qty decimal.Decimal, reason string) Signal {
	return Signal{
		Kind:           SignalKindTargetPosition,
		Instrument:     instrument,
		TargetQuantity: qty,
		Reason:         reason,
	}
}

// MarketOrder builds an OrderIntent market-order signal.
func MarketOrder(instrument InstrumentID, side OrderSide, qty decimal.Decimal, reason string) Signal {
	return Signal{
		Kind:       SignalKindOrderIntent,
		Instrument: instrument,
		Side:       side,
		Type:       OrderTypeMarket,
		Quantity:   qty,
		Reason:     reason,
	}
}

// LimitOrder builds an OrderIntent limit-order signal.
func LimitOrder(instrument InstrumentID, side OrderSide, qty, limitPrice decimal.Decimal, reason string) Signal {
	return Signal{
		Kind:       SignalKindOrderIntent,
		Instrument: instrument,
		Side:       side,
		Type:       OrderTypeLimit,
		Quantity:   qty,
		LimitPrice: limitPrice,
		HasLimit:   true,
		Reason:     reason,
	}
}
