package rules

import (
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/types"
	"github.com/sirily11/argo-backtest-core/internal/utils"
)

var (
	aShareLotStep           = decimal.NewFromInt(100)
	aShareMainBandLimit     = decimal.NewFromFloat(0.10)
	aShareMainBandLimitST   = decimal.NewFromFloat(0.05)
	aShareGrowthBandLimit   = decimal.NewFromFloat(0.20)
	aShareCommissionRate    = decimal.NewFromFloat(0.0003)
	aShareCommissionMinimum = decimal.NewFromInt(5)
	aShareStampDutyRate     = decimal.NewFromFloat(0.0005)
)

// AShareGate admits A-share orders: T+1 settlement, board/ST-dependent
// price-limit bands, 100-share board-lot rounding, and the exchange's
// commission-plus-stamp-duty fee schedule.
type AShareGate struct{}

func NewAShareGate() *AShareGate {
	return &AShareGate{}
}

func (g *AShareGate) band(spec types.InstrumentSpec) decimal.Decimal {
	switch spec.Board {
	case types.BoardChiNext, types.BoardStar:
		return aShareGrowthBandLimit
	default:
		if spec.IsST {
			return aShareMainBandLimitST
		}

		return aShareMainBandLimit
	}
}

func (g *AShareGate) Validate(order types.Order, spec types.InstrumentSpec, ledger types.LedgerSnapshot, marketOpen, refClose decimal.Decimal) (*types.Order, *types.Rejection) {
	rounded := order
	rounded.Quantity = utils.RoundToLotStep(order.Quantity, aShareLotStep)

	if rounded.Quantity.Sign() <= 0 {
		return nil, reject(order, types.ReasonLotStepZero, "order quantity rounds to zero at the 100-share board lot")
	}

	if refClose.Sign() > 0 {
		band := g.band(spec)
		upperLimit := utils.RoundToTick(refClose.Mul(decimal.NewFromInt(1).Add(band)), spec.PriceTick)
		lowerLimit := utils.RoundToTick(refClose.Mul(decimal.NewFromInt(1).Sub(band)), spec.PriceTick)

		if order.Side == types.OrderSideBuy && marketOpen.GreaterThanOrEqual(upperLimit) {
			return nil, reject(order, types.ReasonUpLimit, "instrument opened at or above its up-limit price")
		}

		if order.Side == types.OrderSideSell && marketOpen.LessThanOrEqual(lowerLimit) {
			return nil, reject(order, types.ReasonDownLimit, "instrument opened at or below its down-limit price")
		}
	}

	position := ledger.PositionOf(order.Instrument)

	if order.Side == types.OrderSideSell {
		sellable := utils.RoundToLotStep(position.SellableQuantity(), aShareLotStep)
		if rounded.Quantity.GreaterThan(sellable) {
			if position.LockedToday.Sign() > 0 {
				return nil, reject(order, types.ReasonTPlusOne, "shares bought today are locked until the next trading day")
			}

			return nil, reject(order, types.ReasonNoShort, "A-share instruments cannot be sold short")
		}

		return &rounded, nil
	}

	notional := rounded.Quantity.Mul(marketOpen)
	fee := g.Commission(marketOpen, rounded.Quantity, order.Side)

	if notional.Add(fee).GreaterThan(ledger.Cash) {
		return nil, reject(order, types.ReasonInsufficientCash, "cash balance cannot cover order notional plus fee")
	}

	return &rounded, nil
}

// Commission applies the exchange's 0.03% commission with a 5-yuan
// per-order minimum, charged on both buys and sells.
func (g *AShareGate) Commission(fillPrice, quantity decimal.Decimal, _ types.OrderSide) decimal.Decimal {
	fee := fillPrice.Mul(quantity).Mul(aShareCommissionRate)
	if fee.LessThan(aShareCommissionMinimum) {
		return aShareCommissionMinimum
	}

	return fee
}

// Tax applies the 0.05% stamp duty, levied on sells only.
func (g *AShareGate) Tax(fillPrice, quantity decimal.Decimal, side types.OrderSide) decimal.Decimal {
	if side != types.OrderSideSell {
		return decimal.Zero
	}

	return fillPrice.Mul(quantity).Mul(aShareStampDutyRate)
}

var _ Gate = (*AShareGate)(nil)
