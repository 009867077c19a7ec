package rules

import (
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/types"
	"github.com/sirily11/argo-backtest-core/internal/utils"
)

// CryptoPerpGate admits perpetual-futures orders: shorting is allowed,
// quantity is floored to the lot step, margin is reserved at the order's
// leverage, and positions below their maintenance margin are force-closed
// by CheckLiquidation.
type CryptoPerpGate struct {
	CommissionRate         decimal.Decimal
	MaintenanceMarginRatio decimal.Decimal
	LiquidationPenaltyRate decimal.Decimal
}

func NewCryptoPerpGate(commissionRate, maintenanceMarginRatio, liquidationPenaltyRate decimal.Decimal) *CryptoPerpGate {
	return &CryptoPerpGate{
		CommissionRate:         commissionRate,
		MaintenanceMarginRatio: maintenanceMarginRatio,
		LiquidationPenaltyRate: liquidationPenaltyRate,
	}
}

func (g *CryptoPerpGate) Validate(order types.Order, spec types.InstrumentSpec, ledger types.LedgerSnapshot, marketOpen, refClose decimal.Decimal) (*types.Order, *types.Rejection) {
	rounded := order
	rounded.Quantity = utils.RoundToLotStep(order.Quantity, spec.LotStep)

	if rounded.Quantity.Sign() <= 0 {
		return nil, reject(order, types.ReasonLotStepZero, "order quantity rounds to zero at the instrument's lot step")
	}

	leverage := order.Leverage
	if leverage.Sign() <= 0 {
		leverage = spec.MinLeverage
	}

	if leverage.GreaterThan(spec.MaxLeverage) {
		leverage = spec.MaxLeverage
	}

	if leverage.Sign() <= 0 {
		leverage = decimal.NewFromInt(1)
	}

	rounded.Leverage = leverage

	notional := rounded.Quantity.Mul(marketOpen)
	requiredMargin := notional.Div(leverage)
	fee := g.Commission(marketOpen, rounded.Quantity, order.Side)

	position := ledger.PositionOf(order.Instrument)
	closing := (order.Side == types.OrderSideSell && position.Quantity.IsPositive()) ||
		(order.Side == types.OrderSideBuy && position.Quantity.IsNegative())

	if !closing && requiredMargin.Add(fee).GreaterThan(ledger.Cash) {
		return nil, reject(order, types.ReasonInsufficientMargin, "cash balance cannot cover required margin plus fee")
	}

	return &rounded, nil
}

// Commission is notional*rate, identical in shape to the spot gate's
// commission.
func (g *CryptoPerpGate) Commission(fillPrice, quantity decimal.Decimal, _ types.OrderSide) decimal.Decimal {
	return fillPrice.Mul(quantity).Mul(g.CommissionRate)
}

// Tax is always zero for crypto perpetuals; there is no transaction tax
// to model.
func (g *CryptoPerpGate) Tax(_, _ decimal.Decimal, _ types.OrderSide) decimal.Decimal {
	return decimal.Zero
}

// CheckLiquidation force-closes a position whose equity has fallen below
// its maintenance margin requirement, producing a synthetic liquidation
// fill.
func (g *CryptoPerpGate) CheckLiquidation(position types.Position, spec types.InstrumentSpec, markPrice, cash decimal.Decimal) (bool, decimal.Decimal) {
	if position.IsFlat() {
		return false, decimal.Zero
	}

	notional := position.Quantity.Abs().Mul(markPrice)
	maintenanceRequirement := notional.Mul(g.MaintenanceMarginRatio)

	equity := cash.Add(position.UnrealizedPnL(markPrice)).Add(position.MarginEngaged)
	if equity.GreaterThanOrEqual(maintenanceRequirement) {
		return false, decimal.Zero
	}

	penalty := notional.Mul(g.LiquidationPenaltyRate)

	return true, penalty
}

var _ Gate = (*CryptoPerpGate)(nil)
var _ Liquidator = (*CryptoPerpGate)(nil)
