package bond

import (
	"errors"

	"github.com/shopspring/decimal"

	"nirvana/native/fixedpoint"
)

var (
	// ErrBondDisabled is returned when purchasing from a disabled bond.
	ErrBondDisabled = errors.New("bond: disabled")
	// ErrBondPriceNotMet is returned when the buyer's limit price is below
	// the bond price.
	ErrBondPriceNotMet = errors.New("bond: price not met")
	// ErrUnavailableBondSlot is returned when purchasing into a slot that
	// still holds an unredeemed bond.
	ErrUnavailableBondSlot = errors.New("bond: slot unavailable")
	// ErrUnusedBondRedeemed is returned when redeeming from an empty slot.
	ErrUnusedBondRedeemed = errors.New("bond: redeem of unused bond")
)

// Meta is the state shared by every bond of one vesting class.
type Meta struct {
	Enabled          bool
	Sensitivity      fixedpoint.Precise
	MaxDiscountRatio fixedpoint.Precise
	Outstanding      fixedpoint.ANA
	TotalBought      fixedpoint.Arbitrary
	VestingSeconds   uint64
}

// Clone returns a copy of the meta.
func (m *Meta) Clone() *Meta {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// AddOutstanding records ANA newly promised to bond holders.
func (m *Meta) AddOutstanding(amount fixedpoint.ANA) error {
	next, err := fixedpoint.Add(m.Outstanding, amount)
	if err != nil {
		return err
	}
	m.Outstanding = next
	return nil
}

// SubOutstanding records ANA paid out to bond holders.
func (m *Meta) SubOutstanding(amount fixedpoint.ANA) error {
	next, err := fixedpoint.Sub(m.Outstanding, amount)
	if err != nil {
		return err
	}
	m.Outstanding = next
	return nil
}

// CompressMaxDiscount caps the bond's configured maximum discount at the
// discount the floor implies, 1−floor/market with the ratio rounded up.
func CompressMaxDiscount(market, floor decimal.Decimal, maxDiscount fixedpoint.Precise) (fixedpoint.Precise, error) {
	ratio, err := fixedpoint.Div(floor, market, fixedpoint.PreciseScale, fixedpoint.AwayFromZero)
	if err != nil {
		return 0, err
	}
	floorDiscount, err := fixedpoint.FromDecimal[fixedpoint.Precise](decimal.NewFromInt(1).Sub(ratio), fixedpoint.TowardZero)
	if err != nil {
		return 0, err
	}
	if floorDiscount < maxDiscount {
		return floorDiscount, nil
	}
	return maxDiscount, nil
}

// Discount returns the compressed maximum discount less the demand term
// outstanding×sensitivity. The result may be negative.
func Discount(m *Meta, market, floor decimal.Decimal) (decimal.Decimal, error) {
	maxDiscount, err := CompressMaxDiscount(market, floor, m.MaxDiscountRatio)
	if err != nil {
		return decimal.Zero, err
	}
	demand := fixedpoint.Mul(fixedpoint.PreciseScale, fixedpoint.AwayFromZero, m.Outstanding.Decimal(), m.Sensitivity.Decimal())
	return maxDiscount.Decimal().Sub(demand), nil
}

// PurchasePrice is market×(1−discount) floored at the floor price. A negative
// discount is clamped to zero so a bond never prices above market.
func PurchasePrice(m *Meta, market, floor decimal.Decimal) (decimal.Decimal, error) {
	discount, err := Discount(m, market, floor)
	if err != nil {
		return decimal.Zero, err
	}
	if discount.Sign() < 0 {
		discount = decimal.Zero
	}
	price := market.Mul(decimal.NewFromInt(1).Sub(discount))
	return decimal.Max(price, floor), nil
}

// Quote is the outcome of pricing a bond purchase.
type Quote struct {
	Price     decimal.Decimal
	ANABought fixedpoint.ANA
}

// QuotePurchase prices payment against the bond and checks the buyer's limit.
func QuotePurchase(m *Meta, market, floor decimal.Decimal, payment, maxPrice fixedpoint.Arbitrary) (Quote, error) {
	if !m.Enabled {
		return Quote{}, ErrBondDisabled
	}
	price, err := PurchasePrice(m, market, floor)
	if err != nil {
		return Quote{}, err
	}
	if maxPrice.Decimal().LessThan(price) {
		return Quote{}, ErrBondPriceNotMet
	}
	bought, err := fixedpoint.Div(payment.Decimal(), price, fixedpoint.TokenScale, fixedpoint.TowardZero)
	if err != nil {
		return Quote{}, err
	}
	ana, err := fixedpoint.FromDecimal[fixedpoint.ANA](bought, fixedpoint.TowardZero)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Price: price, ANABought: ana}, nil
}
