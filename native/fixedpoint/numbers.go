package fixedpoint

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// TokenScale is the decimal count of ANA, NIRV, ALMS and prANA.
	TokenScale int32 = 6
	// PreciseScale is used for prices, rates and indices.
	PreciseScale int32 = 12
	// CoarseScale is used for fee ratios.
	CoarseScale int32 = 6
)

// Number is a scaled unsigned integer with a fixed decimal scale. The
// magnitude is the raw uint64 value and the scale is implied by the type.
type Number interface {
	~uint64
	Scale() int32
}

// ANA is the reserve asset in base units.
type ANA uint64

// NIRV is the debt asset in base units.
type NIRV uint64

// ALMS is the governance-stake asset in base units.
type ALMS uint64

// PrANA is the discounted-claim asset in base units.
type PrANA uint64

// Precise is a 12-decimal ratio used for prices, rates and indices.
type Precise uint64

// Coarse is a 6-decimal ratio used for fee rates and RFV factors.
type Coarse uint64

func (ANA) Scale() int32     { return TokenScale }
func (NIRV) Scale() int32    { return TokenScale }
func (ALMS) Scale() int32    { return TokenScale }
func (PrANA) Scale() int32   { return TokenScale }
func (Precise) Scale() int32 { return PreciseScale }
func (Coarse) Scale() int32  { return CoarseScale }

func (v ANA) Decimal() decimal.Decimal     { return Decimal(v) }
func (v NIRV) Decimal() decimal.Decimal    { return Decimal(v) }
func (v ALMS) Decimal() decimal.Decimal    { return Decimal(v) }
func (v PrANA) Decimal() decimal.Decimal   { return Decimal(v) }
func (v Precise) Decimal() decimal.Decimal { return Decimal(v) }
func (v Coarse) Decimal() decimal.Decimal  { return Decimal(v) }

func (v ANA) String() string     { return Decimal(v).StringFixed(TokenScale) }
func (v NIRV) String() string    { return Decimal(v).StringFixed(TokenScale) }
func (v ALMS) String() string    { return Decimal(v).StringFixed(TokenScale) }
func (v PrANA) String() string   { return Decimal(v).StringFixed(TokenScale) }
func (v Precise) String() string { return Decimal(v).StringFixed(PreciseScale) }
func (v Coarse) String() string  { return Decimal(v).StringFixed(CoarseScale) }

// One returns the value 1.0 at the scale of T.
func One[T Number]() T {
	var zero T
	return T(pow10(zero.Scale()))
}

// Decimal promotes a scaled value to an arbitrary-precision decimal.
func Decimal[T Number](v T) decimal.Decimal {
	return fromRaw(uint64(v), v.Scale())
}

// FromDecimal converts d to T, rounding to the scale of T. Negative results
// fail with ErrArithmeticUnderflow and results above 2^64-1 base units fail
// with ErrArithmeticOverflow.
func FromDecimal[T Number](d decimal.Decimal, r Rounding) (T, error) {
	var zero T
	raw, err := toRaw(d, zero.Scale(), r)
	if err != nil {
		return zero, err
	}
	return T(raw), nil
}

// Parse reads a decimal string into T. The input must be representable at
// the scale of T without rounding.
func Parse[T Number](s string) (T, error) {
	var zero T
	d, err := decimal.NewFromString(s)
	if err != nil {
		return zero, fmt.Errorf("fixedpoint: parse %q: %w", s, err)
	}
	if !Round(d, zero.Scale(), TowardZero).Equal(d) {
		return zero, fmt.Errorf("fixedpoint: parse %q: %w", s, ErrPrecisionLoss)
	}
	return FromDecimal[T](d, TowardZero)
}

// MustParse is Parse for constants.
func MustParse[T Number](s string) T {
	v, err := Parse[T](s)
	if err != nil {
		panic(err)
	}
	return v
}

// Add returns a+b or ErrArithmeticOverflow.
func Add[T Number](a, b T) (T, error) {
	sum := a + b
	if sum < a {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrArithmeticUnderflow.
func Sub[T Number](a, b T) (T, error) {
	if b > a {
		return 0, ErrArithmeticUnderflow
	}
	return a - b, nil
}

// MulScaled returns a×b at the scale of T.
func MulScaled[T Number](a, b T, r Rounding) (T, error) {
	return FromDecimal[T](Decimal(a).Mul(Decimal(b)), r)
}

// Quo returns a÷b at the scale of T.
func Quo[T Number](a, b T, r Rounding) (T, error) {
	var zero T
	q, err := Div(Decimal(a), Decimal(b), zero.Scale(), r)
	if err != nil {
		return zero, err
	}
	return FromDecimal[T](q, r)
}

// Arbitrary is a scaled value whose scale is chosen at runtime, used for
// money-market denominated amounts and prices.
type Arbitrary struct {
	Val   uint64
	Scale uint32
}

// NewArbitrary wraps a raw magnitude and scale.
func NewArbitrary(val uint64, scale uint32) Arbitrary {
	return Arbitrary{Val: val, Scale: scale}
}

// ArbitraryFromDecimal rounds d to scale fractional digits.
func ArbitraryFromDecimal(d decimal.Decimal, scale uint32, r Rounding) (Arbitrary, error) {
	raw, err := toRaw(d, int32(scale), r)
	if err != nil {
		return Arbitrary{}, err
	}
	return Arbitrary{Val: raw, Scale: scale}, nil
}

// Decimal promotes the value to an arbitrary-precision decimal.
func (a Arbitrary) Decimal() decimal.Decimal {
	return fromRaw(a.Val, int32(a.Scale))
}

// Rescale converts the value to another scale.
func (a Arbitrary) Rescale(scale uint32, r Rounding) (Arbitrary, error) {
	return ArbitraryFromDecimal(a.Decimal(), scale, r)
}

// Add sums two values after promoting both to the larger scale.
func (a Arbitrary) Add(b Arbitrary) (Arbitrary, error) {
	scale := a.Scale
	if b.Scale > scale {
		scale = b.Scale
	}
	return ArbitraryFromDecimal(a.Decimal().Add(b.Decimal()), scale, TowardZero)
}

// Sub subtracts b after promoting both to the larger scale.
func (a Arbitrary) Sub(b Arbitrary) (Arbitrary, error) {
	scale := a.Scale
	if b.Scale > scale {
		scale = b.Scale
	}
	return ArbitraryFromDecimal(a.Decimal().Sub(b.Decimal()), scale, TowardZero)
}

func (a Arbitrary) IsZero() bool { return a.Val == 0 }

func (a Arbitrary) String() string {
	return a.Decimal().StringFixed(int32(a.Scale))
}

func fromRaw(raw uint64, scale int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -scale)
}

func toRaw(d decimal.Decimal, scale int32, r Rounding) (uint64, error) {
	rounded := Round(d, scale, r)
	if rounded.Sign() < 0 {
		return 0, ErrArithmeticUnderflow
	}
	coeff := rounded.Shift(scale).BigInt()
	if !coeff.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return coeff.Uint64(), nil
}

func pow10(n int32) uint64 {
	out := uint64(1)
	for i := int32(0); i < n; i++ {
		out *= 10
	}
	return out
}

// Uint64 promotes an unscaled integer such as a count of seconds.
func Uint64(v uint64) decimal.Decimal {
	return fromRaw(v, 0)
}
