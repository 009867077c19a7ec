package types

import "github.com/shopspring/decimal"

// AssetKind identifies the market-specific rule module an instrument is
// subject to.
type AssetKind string

const (
	AssetKindCryptoSpot  AssetKind = "crypto_spot"
	AssetKindCryptoPerp  AssetKind = "crypto_perp"
	AssetKindStockAShare AssetKind = "stock_a_share"
)

// Board classifies an A-share listing for price-limit purposes. It is
// supplied as input and never derived from a symbol prefix.
type Board string

const (
	BoardMain    Board = "main"
	BoardChiNext Board = "chinext"
	BoardStar    Board = "star"
)

// InstrumentID is the stable identity (venue, base, quote, asset_kind).
type InstrumentID struct {
	Venue     string
	Base      string
	Quote     string
	AssetKind AssetKind
}

// Symbol returns a human-readable identifier for logging and ledger keys.
func (id InstrumentID) Symbol() string {
	if id.Quote == "" {
		return id.Venue + ":" + id.Base
	}

	return id.Venue + ":" + id.Base + "/" + id.Quote
}

// InstrumentSpec is the contract specification for one instrument.
type InstrumentSpec struct {
	ID InstrumentID

	// PriceTick is the minimum price increment.
	PriceTick decimal.Decimal
	// LotStep is the minimum order-quantity increment; orders are
	// rounded down to a multiple of LotStep.
	LotStep decimal.Decimal
	// LotMinimum is the smallest non-zero order quantity accepted.
	LotMinimum decimal.Decimal
	// SettlementCurrency is the currency cash and fees are booked in.
	SettlementCurrency string

	// MinLeverage / MaxLeverage apply to crypto_perp only.
	MinLeverage decimal.Decimal
	MaxLeverage decimal.Decimal

	// Board / IsST apply to stock_a_share only.
	Board Board
	IsST  bool
}

// InstrumentSpecs is a read-only lookup handed to the core by the caller.
type InstrumentSpecs map[InstrumentID]InstrumentSpec

func (s InstrumentSpecs) Get(id InstrumentID) (InstrumentSpec, bool) {
	spec, ok := s[id]

	return spec, ok
}
