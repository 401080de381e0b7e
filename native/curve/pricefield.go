package curve

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"nirvana/native/fixedpoint"
)

var (
	// ErrInsufficientSupply is returned when a sell exceeds the current supply.
	ErrInsufficientSupply = errors.New("curve: insufficient supply")
	// ErrInvalidField is returned by Validate for inconsistent parameters.
	ErrInvalidField = errors.New("curve: invalid price field")
)

// PriceField is the three-segment bonding curve. Below RampStart the price is
// FloorPrice. Across the ramp the price rises linearly by RampHeight over
// RampWidth supply units. Past the ramp it rises by MainSlope per unit.
type PriceField struct {
	RampStart  fixedpoint.ANA
	RampWidth  fixedpoint.ANA
	RampHeight fixedpoint.Precise
	MainSlope  fixedpoint.Precise
	FloorPrice fixedpoint.Precise
}

// Clone returns a copy of the field.
func (f *PriceField) Clone() *PriceField {
	if f == nil {
		return nil
	}
	clone := *f
	return &clone
}

// Validate checks that the curve parameters describe a usable field.
func (f *PriceField) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil field", ErrInvalidField)
	}
	if f.FloorPrice == 0 {
		return fmt.Errorf("%w: floor price must be positive", ErrInvalidField)
	}
	if f.RampWidth == 0 && f.RampHeight != 0 {
		return fmt.Errorf("%w: ramp height requires a ramp width", ErrInvalidField)
	}
	return nil
}

// PriceForSupply returns the curve price at supply. The ramp segment is
// rounded away from zero at 12 decimals; the slope segment is exact.
func (f *PriceField) PriceForSupply(supply fixedpoint.ANA) decimal.Decimal {
	floor := f.FloorPrice.Decimal()
	if supply < f.RampStart {
		return floor
	}
	offset := (supply - f.RampStart).Decimal()
	width := f.RampWidth.Decimal()
	if f.RampWidth > 0 && supply-f.RampStart <= f.RampWidth {
		// offset·height/width is finite and positive, so Div cannot fail.
		rise, _ := fixedpoint.Div(offset.Mul(f.RampHeight.Decimal()), width, fixedpoint.PreciseScale, fixedpoint.AwayFromZero)
		return rise.Add(floor)
	}
	beyond := offset.Sub(width)
	return beyond.Mul(f.MainSlope.Decimal()).Add(floor).Add(f.RampHeight.Decimal())
}

// AtFloor reports whether supply is priced at the floor.
func (f *PriceField) AtFloor(supply fixedpoint.ANA) bool {
	return f.PriceForSupply(supply).Equal(f.FloorPrice.Decimal())
}

// IncreaseSupplyWithNoPriceImpact slides the ramp right by delta so minting
// outside the curve keeps the quoted price unchanged.
func (f *PriceField) IncreaseSupplyWithNoPriceImpact(delta fixedpoint.ANA) error {
	next, err := fixedpoint.Add(f.RampStart, delta)
	if err != nil {
		return err
	}
	f.RampStart = next
	return nil
}

// DecreaseSupplyWithNoPriceImpact slides the ramp left by delta.
func (f *PriceField) DecreaseSupplyWithNoPriceImpact(delta fixedpoint.ANA) error {
	next, err := fixedpoint.Sub(f.RampStart, delta)
	if err != nil {
		return err
	}
	f.RampStart = next
	return nil
}

// ResetSlippageStartPointIfNeeded snaps the ramp start to supply when the
// supply sits at the floor. It reports whether the ramp moved.
func (f *PriceField) ResetSlippageStartPointIfNeeded(supply fixedpoint.ANA) bool {
	if !f.AtFloor(supply) {
		return false
	}
	f.RampStart = supply
	return true
}
