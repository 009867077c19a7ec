package rules

import (
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/types"
	"github.com/sirily11/argo-backtest-core/internal/utils"
)

// CryptoSpotGate admits spot orders: no shorting, quantity floored to the
// instrument's lot step, flat commission rate on notional.
type CryptoSpotGate struct {
	CommissionRate decimal.Decimal
}

func NewCryptoSpotGate(commissionRate decimal.Decimal) *CryptoSpotGate {
	return &CryptoSpotGate{CommissionRate: commissionRate}
}

func (g *CryptoSpotGate) Validate(order types.Order, spec types.InstrumentSpec, ledger types.LedgerSnapshot, marketOpen, refClose decimal.Decimal) (*types.Order, *types.Rejection) {
	rounded := order
	rounded.Quantity = utils.RoundToLotStep(order.Quantity, spec.LotStep)

	if rounded.Quantity.Sign() <= 0 {
		return nil, reject(order, types.ReasonLotStepZero, "order quantity rounds to zero at the instrument's lot step")
	}

	if order.Side == types.OrderSideSell {
		position := ledger.PositionOf(order.Instrument)

		sellable := position.SellableQuantity()
		if rounded.Quantity.GreaterThan(sellable) {
			if position.Quantity.LessThan(order.Quantity) && position.IsFlat() {
				return nil, reject(order, types.ReasonNoShort, "spot instruments cannot be sold short")
			}

			// An oversized sell clamps to the sellable quantity rather
			// than rejecting outright; only a fully unsellable position
			// (flat, or already at zero after clamping) is rejected.
			rounded.Quantity = utils.RoundToLotStep(sellable, spec.LotStep)
			if rounded.Quantity.Sign() <= 0 {
				return nil, reject(order, types.ReasonNoShort, "spot instruments cannot be sold short")
			}
		}
	} else {
		notional := rounded.Quantity.Mul(marketOpen)
		fee := g.Commission(marketOpen, rounded.Quantity, order.Side)

		if notional.Add(fee).GreaterThan(ledger.Cash) {
			return nil, reject(order, types.ReasonInsufficientCash, "cash balance cannot cover order notional plus fee")
		}
	}

	return &rounded, nil
}

// Commission is fillPrice*quantity*rate, computed over decimal.Decimal
// to avoid float rounding on the fee.
func (g *CryptoSpotGate) Commission(fillPrice, quantity decimal.Decimal, _ types.OrderSide) decimal.Decimal {
	return fillPrice.Mul(quantity).Mul(g.CommissionRate)
}

// Tax is always zero for crypto spot; there is no transaction tax to model.
func (g *CryptoSpotGate) Tax(_, _ decimal.Decimal, _ types.OrderSide) decimal.Decimal {
	return decimal.Zero
}

func reject(order types.Order, reason, message string) *types.Rejection {
	return &types.Rejection{
		OrderID:    order.ID,
		Instrument: order.Instrument,
		BarIndex:   order.SubmitBarIndex,
		Reason:     reason,
		Message:    message,
	}
}
