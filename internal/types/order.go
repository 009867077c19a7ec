package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reason pairs a short machine-stable code with a human message. Order,
// Fill, and Rejection do not embed it: they carry the code (and, for a
// Rejection, the message) as plain string fields.
type Reason struct {
	Code    string
	Message string
}

// Rejection reason codes.
const (
	ReasonLotStepZero        = "lot_step_zero"
	ReasonUpLimit            = "up_limit"
	ReasonDownLimit          = "down_limit"
	ReasonTPlusOne           = "t_plus_one"
	ReasonInsufficientCash   = "insufficient_cash"
	ReasonInsufficientMargin = "insufficient_margin"
	ReasonNoShort            = "no_short"
	ReasonDuplicateSignal    = "duplicate_signal"
	ReasonLiquidation        = "liquidation"
	ReasonStrategy           = "strategy"
	ReasonInvalidOrder       = "invalid_order"
	ReasonLimitExpired       = "limit_expired"
)

// Order is a pending order, post-translation, pre-execution. It lives only
// until the next bar's open.
type Order struct {
	ID         string
	Instrument InstrumentID
	Side       OrderSide
	Quantity   decimal.Decimal
	Type       OrderType
	LimitPrice decimal.Decimal
	HasLimit   bool
	// Leverage applies to crypto_perp orders only; zero means "use the
	// instrument's minimum leverage".
	Leverage decimal.Decimal
	// SubmitBarIndex is the index of the bar on which this order was
	// created; it is filled or rejected at SubmitBarIndex+1.
	SubmitBarIndex int
	// SubmitSeq breaks ties among orders submitted on the same bar,
	// preserving emission order.
	SubmitSeq int
	Reason    string
}

// Fill is a completed execution against an accepted order.
type Fill struct {
	OrderID       string
	Instrument    InstrumentID
	Side          OrderSide
	FillQuantity  decimal.Decimal
	FillPrice     decimal.Decimal
	FeeAmount     decimal.Decimal
	TaxAmount     decimal.Decimal
	// Leverage applies to crypto_perp fills only; the margin reserved
	// against this fill's notional is notional/Leverage.
	Leverage      decimal.Decimal
	TFill         time.Time
	FillBarIndex  int
	Reason        string
}

// Rejection is a structured, non-fatal rule-gate (or translator) decision.
type Rejection struct {
	OrderID    string
	Instrument InstrumentID
	BarIndex   int
	Reason     string
	Message    string
}
