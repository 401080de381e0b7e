package fixedpoint

import (
	"github.com/shopspring/decimal"
)

// Rounding selects how a value is brought to a coarser scale.
type Rounding uint8

const (
	// TowardZero truncates. Used for amounts flowing out of the protocol.
	TowardZero Rounding = iota
	// AwayFromZero rounds up in magnitude. Used for amounts owed to the
	// protocol.
	AwayFromZero
	// HalfAwayFromZero rounds to nearest with ties away from zero.
	HalfAwayFromZero
)

func (r Rounding) String() string {
	switch r {
	case AwayFromZero:
		return "away_from_zero"
	case HalfAwayFromZero:
		return "half_away_from_zero"
	default:
		return "toward_zero"
	}
}

// Round brings d to the given number of fractional digits.
func Round(d decimal.Decimal, scale int32, r Rounding) decimal.Decimal {
	switch r {
	case AwayFromZero:
		return d.RoundUp(scale)
	case HalfAwayFromZero:
		return d.Round(scale)
	default:
		return d.RoundDown(scale)
	}
}

// Div divides a by b and rounds the exact quotient to scale fractional
// digits. Unlike decimal.Div the result never depends on the package-wide
// DivisionPrecision.
func Div(a, b decimal.Decimal, scale int32, r Rounding) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, ErrDivideByZero
	}
	q, rem := a.QuoRem(b, scale)
	if rem.IsZero() {
		return q, nil
	}
	step := decimal.New(1, -scale)
	if a.Sign()*b.Sign() < 0 {
		step = step.Neg()
	}
	switch r {
	case AwayFromZero:
		return q.Add(step), nil
	case HalfAwayFromZero:
		// rem carries the sign of a; compare |2·rem| against |b·10^-scale|.
		twice := rem.Abs().Mul(decimal.NewFromInt(2))
		unit := b.Abs().Mul(decimal.New(1, -scale))
		if twice.GreaterThanOrEqual(unit) {
			return q.Add(step), nil
		}
	}
	return q, nil
}

// Mul multiplies the factors and rounds the exact product.
func Mul(scale int32, r Rounding, factors ...decimal.Decimal) decimal.Decimal {
	if len(factors) == 0 {
		return decimal.Zero
	}
	product := factors[0]
	for _, f := range factors[1:] {
		product = product.Mul(f)
	}
	return Round(product, scale, r)
}
