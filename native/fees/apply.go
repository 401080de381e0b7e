package fees

import (
	"errors"
	"fmt"

	"nirvana/native/fixedpoint"
	"nirvana/native/rewards"
)

// ErrInvalidRate is returned when a configured fee rate is not below one.
var ErrInvalidRate = errors.New("fees: rate must be below one")

// Kind names a fee-bearing flow.
type Kind string

const (
	KindInstantBuy  Kind = "instant_buy"
	KindSell        Kind = "sell"
	KindTrANA       Kind = "trana_buy"
	KindUnstake     Kind = "unstake"
	KindOrigination Kind = "nirv_origination"
	KindDebt        Kind = "nirv_debt"
)

// Schedule holds the fee rate charged on each flow.
type Schedule struct {
	InstantBuy  fixedpoint.Coarse
	Sell        fixedpoint.Coarse
	TrANA       fixedpoint.Coarse
	Unstake     fixedpoint.Coarse
	Origination fixedpoint.Coarse
	Debt        fixedpoint.Coarse
}

// Rate returns the configured rate for kind.
func (s Schedule) Rate(kind Kind) fixedpoint.Coarse {
	switch kind {
	case KindInstantBuy:
		return s.InstantBuy
	case KindSell:
		return s.Sell
	case KindTrANA:
		return s.TrANA
	case KindUnstake:
		return s.Unstake
	case KindOrigination:
		return s.Origination
	case KindDebt:
		return s.Debt
	default:
		return 0
	}
}

// Validate ensures no rate would consume the whole gross amount.
func (s Schedule) Validate() error {
	one := fixedpoint.One[fixedpoint.Coarse]()
	for _, kind := range []Kind{KindInstantBuy, KindSell, KindTrANA, KindUnstake, KindOrigination, KindDebt} {
		if s.Rate(kind) >= one {
			return fmt.Errorf("%w: %s", ErrInvalidRate, kind)
		}
	}
	return nil
}

// Result splits a gross amount into what the payer keeps and the fee.
type Result[T fixedpoint.Number] struct {
	Net T
	Fee T
}

// Apply computes fee = gross×rate truncated to the scale of T and
// net = gross−fee, so Net+Fee always equals gross.
func Apply[T fixedpoint.Number](gross T, rate fixedpoint.Coarse) (Result[T], error) {
	fee, err := fixedpoint.FromDecimal[T](fixedpoint.Decimal(gross).Mul(rate.Decimal()), fixedpoint.TowardZero)
	if err != nil {
		return Result[T]{}, err
	}
	net, err := fixedpoint.Sub(gross, fee)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Net: net, Fee: fee}, nil
}

// Collect applies the rate to gross and accrues the fee into index across
// totalStake. With no stake the fee is still split off but attributed to no
// one.
func Collect[T, S fixedpoint.Number](gross T, rate fixedpoint.Coarse, totalStake S, index *fixedpoint.Precise) (Result[T], error) {
	res, err := Apply(gross, rate)
	if err != nil {
		return Result[T]{}, err
	}
	if err := rewards.Accrue(index, res.Fee, totalStake); err != nil {
		return Result[T]{}, err
	}
	return res, nil
}
