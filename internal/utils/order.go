// Package utils holds small decimal-precision helpers shared by the
// strategy, translator, and rule-gate layers for sizing and rounding
// order quantities.
package utils

import (
	"github.com/shopspring/decimal"
)

// FeeCalculator computes the fee owed on a given order quantity, matching
// the shape rule gates use for commission calculation.
type FeeCalculator func(quantity decimal.Decimal) decimal.Decimal

// CalculateMaxQuantity returns the largest quantity purchasable with
// balance at price once fees are accounted for, using a fixed-point
// iteration in exact decimal arithmetic.
func CalculateMaxQuantity(balance, price decimal.Decimal, fee FeeCalculator) decimal.Decimal {
	if price.Sign() <= 0 || balance.Sign() <= 0 {
		return decimal.Zero
	}

	maxQty := balance.DivRound(price, 16)

	for i := 0; i < 10; i++ {
		totalCost := maxQty.Mul(price).Add(fee(maxQty))
		if totalCost.LessThanOrEqual(balance) {
			break
		}

		adjustment := balance.DivRound(totalCost, 32).Truncate(16)
		maxQty = maxQty.Mul(adjustment)
	}

	return maxQty
}

// CalculateOrderQuantityByPercentage sizes an order as a percentage of
// balance, then caps it by CalculateMaxQuantity.
func CalculateOrderQuantityByPercentage(balance, price decimal.Decimal, fee FeeCalculator, percentage decimal.Decimal) decimal.Decimal {
	target := balance.Mul(percentage)

	return CalculateMaxQuantity(target, price, fee)
}

// RoundToLotStep floors quantity down to the nearest multiple of lotStep,
// the shared rounding rule behind crypto lot-step sizing and A-share
// 100-share board lots. A zero or negative lotStep returns quantity
// unchanged.
func RoundToLotStep(quantity, lotStep decimal.Decimal) decimal.Decimal {
	if lotStep.Sign() <= 0 {
		return quantity
	}

	lots := quantity.DivRound(lotStep, 16).Floor()

	return lots.Mul(lotStep)
}

// RoundToTick rounds price to the nearest multiple of priceTick, the
// exchange- or board-mandated minimum price increment. A zero or
// negative priceTick returns price unchanged.
func RoundToTick(price, priceTick decimal.Decimal) decimal.Decimal {
	if priceTick.Sign() <= 0 {
		return price
	}

	ticks := price.DivRound(priceTick, 16).Round(0)

	return ticks.Mul(priceTick)
}
