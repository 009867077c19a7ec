// Package rules implements market-specific order legality: one Gate per
// asset kind, selected by a factory switch that picks a rule gate by
// asset kind instead of by broker.
package rules

import (
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// Gate enforces market-specific legality of a pending order at the next
// bar's open and computes the commission owed on its eventual fill.
// Validate always checks in the same order: lot rounding, then
// price-limit admissibility, then sellable-quantity/cash sufficiency.
type Gate interface {
	// Validate rounds and admits or rejects order. marketOpen is the
	// next bar's opening price at which the order would fill; refClose
	// is the instrument's reference close used for price-limit bands.
	// Exactly one of the two return values is non-nil.
	Validate(order types.Order, spec types.InstrumentSpec, ledger types.LedgerSnapshot, marketOpen, refClose decimal.Decimal) (*types.Order, *types.Rejection)

	// Commission computes the fee owed on a fill of quantity at
	// fillPrice.
	Commission(fillPrice, quantity decimal.Decimal, side types.OrderSide) decimal.Decimal

	// Tax computes any transaction tax owed on a fill (stamp duty on
	// A-share sells); zero for asset kinds with no such tax.
	Tax(fillPrice, quantity decimal.Decimal, side types.OrderSide) decimal.Decimal
}

// Liquidator is implemented by gates (crypto perpetuals only) that can
// force-close a position when equity falls below its maintenance
// margin. The engine checks for this interface at the start of each
// tick, marking positions at the incoming bar's open before that bar's
// pending orders are matched.
type Liquidator interface {
	CheckLiquidation(position types.Position, spec types.InstrumentSpec, markPrice decimal.Decimal, cash decimal.Decimal) (triggered bool, penaltyFee decimal.Decimal)
}

// GetGate selects the rule gate for an asset kind using its default
// commission, margin, and liquidation parameters.
func GetGate(kind types.AssetKind) (Gate, error) {
	switch kind {
	case types.AssetKindCryptoSpot:
		return NewCryptoSpotGate(defaultCryptoCommissionRate), nil
	case types.AssetKindCryptoPerp:
		return NewCryptoPerpGate(defaultCryptoCommissionRate, defaultMaintenanceMarginRatio, defaultLiquidationPenaltyRate), nil
	case types.AssetKindStockAShare:
		return NewAShareGate(), nil
	default:
		return nil, coreerrors.Newf(coreerrors.ErrCodeInvalidAssetKind, "no rule gate registered for asset kind %q", kind)
	}
}

var (
	defaultCryptoCommissionRate   = decimal.NewFromFloat(0.0010) // 10 bps
	defaultMaintenanceMarginRatio = decimal.NewFromFloat(0.005)
	defaultLiquidationPenaltyRate = decimal.NewFromFloat(0.01)
)
