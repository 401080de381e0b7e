package curve

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"nirvana/native/fixedpoint"
)

func ana(s string) fixedpoint.ANA         { return fixedpoint.MustParse[fixedpoint.ANA](s) }
func precise(s string) fixedpoint.Precise { return fixedpoint.MustParse[fixedpoint.Precise](s) }

func rampField() *PriceField {
	return &PriceField{
		RampStart:  ana("100"),
		RampWidth:  ana("100"),
		RampHeight: precise("100"),
		FloorPrice: precise("1"),
	}
}

func requirePrice(t *testing.T, f *PriceField, supply, want string) {
	t.Helper()
	got := f.PriceForSupply(ana(supply))
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("price(%s): got %s want %s", supply, got, want)
	}
}

func TestPriceSegments(t *testing.T) {
	f := rampField()
	requirePrice(t, f, "0", "1")
	requirePrice(t, f, "99.999999", "1")
	requirePrice(t, f, "100", "1")
	requirePrice(t, f, "150", "51")
	requirePrice(t, f, "200", "101")
	requirePrice(t, f, "300", "101")

	f.MainSlope = precise("1")
	requirePrice(t, f, "300", "201")
}

func TestRampRoundsAwayFromZero(t *testing.T) {
	f := &PriceField{
		RampStart:  0,
		RampWidth:  ana("3"),
		RampHeight: precise("1"),
		FloorPrice: precise("1"),
	}
	requirePrice(t, f, "1", "1.333333333334")
}

func TestMonotonic(t *testing.T) {
	f := rampField()
	f.MainSlope = precise("0.000001")
	prev := f.PriceForSupply(0)
	for s := fixedpoint.ANA(0); s <= ana("400"); s += ana("0.5") {
		p := f.PriceForSupply(s)
		if p.LessThan(prev) {
			t.Fatalf("price decreased at %s: %s < %s", s, p, prev)
		}
		prev = p
	}
}

func TestRampContinuity(t *testing.T) {
	f := rampField()
	f.MainSlope = precise("3")
	top := f.PriceForSupply(f.RampStart + f.RampWidth)
	want := f.FloorPrice.Decimal().Add(f.RampHeight.Decimal())
	if !top.Equal(want) {
		t.Fatalf("top of ramp: got %s want %s", top, want)
	}
}

func TestNoPriceImpactShift(t *testing.T) {
	f := rampField()
	supply := ana("150")
	before := f.PriceForSupply(supply)
	delta := ana("12.5")
	if err := f.IncreaseSupplyWithNoPriceImpact(delta); err != nil {
		t.Fatalf("increase: %v", err)
	}
	if after := f.PriceForSupply(supply + delta); !after.Equal(before) {
		t.Fatalf("price moved: %s -> %s", before, after)
	}
	if err := f.DecreaseSupplyWithNoPriceImpact(delta); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if f.RampStart != ana("100") {
		t.Fatalf("ramp start not restored: %s", f.RampStart)
	}
	if err := f.DecreaseSupplyWithNoPriceImpact(ana("1000")); !errors.Is(err, fixedpoint.ErrArithmeticUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
}

func TestResetSlippageStartPoint(t *testing.T) {
	f := rampField()
	if f.ResetSlippageStartPointIfNeeded(ana("150")) {
		t.Fatalf("reset above floor")
	}
	if !f.ResetSlippageStartPointIfNeeded(ana("80")) {
		t.Fatalf("expected reset at floor")
	}
	if f.RampStart != ana("80") {
		t.Fatalf("ramp start: got %s", f.RampStart)
	}
	if !f.AtFloor(ana("80")) || f.AtFloor(ana("81")) {
		t.Fatalf("at floor mismatch")
	}
}

func TestValidate(t *testing.T) {
	if err := rampField().Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	bad := rampField()
	bad.RampWidth = 0
	if err := bad.Validate(); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected invalid field, got %v", err)
	}
	bad = rampField()
	bad.FloorPrice = 0
	if err := bad.Validate(); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected invalid field, got %v", err)
	}
}
