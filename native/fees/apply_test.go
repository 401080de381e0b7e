package fees

import (
	"errors"
	"testing"

	"nirvana/native/fixedpoint"
)

func coarse(s string) fixedpoint.Coarse { return fixedpoint.MustParse[fixedpoint.Coarse](s) }

func TestApplyConservesGross(t *testing.T) {
	rates := []string{"0", "0.000001", "0.003", "0.25", "0.999999"}
	amounts := []fixedpoint.ANA{0, 1, 7, 333_333, 1_000_000, 123_456_789_012}
	for _, r := range rates {
		for _, gross := range amounts {
			res, err := Apply(gross, coarse(r))
			if err != nil {
				t.Fatalf("apply %d@%s: %v", gross, r, err)
			}
			if res.Net+res.Fee != gross {
				t.Fatalf("conservation %d@%s: net %d fee %d", gross, r, res.Net, res.Fee)
			}
		}
	}
}

func TestApplyTruncatesFee(t *testing.T) {
	res, err := Apply(fixedpoint.NIRV(1_000_001), coarse("0.003"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Fee != 3_000 || res.Net != 997_001 {
		t.Fatalf("split: got %+v", res)
	}
}

func TestCollectAccruesIndex(t *testing.T) {
	var index fixedpoint.Precise
	res, err := Collect(fixedpoint.ANA(10_000_000), coarse("0.1"), fixedpoint.ALMS(4_000_000), &index)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.Fee != 1_000_000 || res.Net != 9_000_000 {
		t.Fatalf("split: got %+v", res)
	}
	// 1 ANA over 4 ALMS.
	if index != fixedpoint.MustParse[fixedpoint.Precise]("0.25") {
		t.Fatalf("index: got %s", index)
	}
}

func TestCollectWithoutStakeLeavesIndex(t *testing.T) {
	index := fixedpoint.Precise(42)
	res, err := Collect(fixedpoint.ANA(10_000_000), coarse("0.1"), fixedpoint.ALMS(0), &index)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if res.Fee != 1_000_000 || index != 42 {
		t.Fatalf("got fee %d index %d", res.Fee, index)
	}
}

func TestScheduleValidate(t *testing.T) {
	s := Schedule{InstantBuy: coarse("0.003"), Sell: coarse("0.003"), Debt: coarse("0.5")}
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if s.Rate(KindDebt) != coarse("0.5") || s.Rate(Kind("unknown")) != 0 {
		t.Fatalf("rate lookup")
	}
	s.Unstake = coarse("1")
	if err := s.Validate(); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected invalid rate, got %v", err)
	}
}
