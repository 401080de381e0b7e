package curve

import (
	"github.com/shopspring/decimal"

	"nirvana/native/fixedpoint"
)

// Side is the direction of a trade against the curve.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Rounding returns the strategy that favours the protocol for the side:
// buyers pay rounded up, sellers receive rounded down.
func (s Side) Rounding() fixedpoint.Rounding {
	if s == Sell {
		return fixedpoint.TowardZero
	}
	return fixedpoint.AwayFromZero
}

// CalcPrice returns the curve price at targetSupply scaled by the RFV factor,
// rounded for the side at 12 decimals.
func CalcPrice(targetSupply fixedpoint.ANA, rfv fixedpoint.Coarse, field *PriceField, side Side) decimal.Decimal {
	price := field.PriceForSupply(targetSupply)
	return fixedpoint.Mul(fixedpoint.PreciseScale, side.Rounding(), price, rfv.Decimal())
}

// TargetSupply returns the supply after the trade settles.
func TargetSupply(currentSupply, amount fixedpoint.ANA, side Side) (fixedpoint.ANA, error) {
	if side == Sell {
		if amount > currentSupply {
			return 0, ErrInsufficientSupply
		}
		return currentSupply - amount, nil
	}
	return fixedpoint.Add(currentSupply, amount)
}

// CalcTotalCostForAmount prices the whole amount at the post-trade supply and
// adds the bootstrap offset per unit. The 12-decimal cost is rounded for the
// side and then rescaled to moneyScale with the same strategy.
func CalcTotalCostForAmount(
	currentSupply, amount fixedpoint.ANA,
	rfv fixedpoint.Coarse,
	field *PriceField,
	side Side,
	offset decimal.Decimal,
	moneyScale uint32,
) (fixedpoint.Arbitrary, error) {
	target, err := TargetSupply(currentSupply, amount, side)
	if err != nil {
		return fixedpoint.Arbitrary{}, err
	}
	unit := CalcPrice(target, rfv, field, side).Add(offset)
	cost := fixedpoint.Mul(fixedpoint.PreciseScale, side.Rounding(), unit, amount.Decimal())
	return fixedpoint.ArbitraryFromDecimal(cost, moneyScale, side.Rounding())
}
