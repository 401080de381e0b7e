package rewards

import (
	"errors"

	"nirvana/native/fixedpoint"
)

// secondsPerDay converts a daily reward rate into a per-interval rate.
const secondsPerDay = 86_400

// ErrIndexRegressed is returned when a checkpoint is ahead of the global
// index it is staged against.
var ErrIndexRegressed = errors.New("rewards: index regressed")

// Accrue spreads amount across totalStake by raising index with the per-unit
// share truncated to 12 decimals. With no stake the amount is not attributed
// and the index is left unchanged.
func Accrue[A, S fixedpoint.Number](index *fixedpoint.Precise, amount A, totalStake S) error {
	if totalStake == 0 || amount == 0 {
		return nil
	}
	share, err := fixedpoint.Div(fixedpoint.Decimal(amount), fixedpoint.Decimal(totalStake), fixedpoint.PreciseScale, fixedpoint.TowardZero)
	if err != nil {
		return err
	}
	delta, err := fixedpoint.FromDecimal[fixedpoint.Precise](share, fixedpoint.TowardZero)
	if err != nil {
		return err
	}
	next, err := fixedpoint.Add(*index, delta)
	if err != nil {
		return err
	}
	*index = next
	return nil
}

// DropReward computes the prANA emitted for one interval,
// rate×(interval/86400)×supply truncated to token scale, and accrues it into
// index across totalStaked. The gross emission is returned even when no one
// is staked.
func DropReward(rate fixedpoint.Precise, intervalSeconds uint64, supply, totalStaked fixedpoint.ANA, index *fixedpoint.Precise) (fixedpoint.PrANA, error) {
	numerator := rate.Decimal().Mul(fixedpoint.Uint64(intervalSeconds)).Mul(supply.Decimal())
	gross, err := fixedpoint.Div(numerator, fixedpoint.Uint64(secondsPerDay), fixedpoint.TokenScale, fixedpoint.TowardZero)
	if err != nil {
		return 0, err
	}
	reward, err := fixedpoint.FromDecimal[fixedpoint.PrANA](gross, fixedpoint.TowardZero)
	if err != nil {
		return 0, err
	}
	if err := Accrue(index, reward, totalStaked); err != nil {
		return 0, err
	}
	return reward, nil
}

// share returns staked×(to−from) truncated to the scale of T.
func share[T fixedpoint.Number, S fixedpoint.Number](staked S, from, to fixedpoint.Precise) (T, error) {
	if to < from {
		return 0, ErrIndexRegressed
	}
	delta := (to - from).Decimal()
	return fixedpoint.FromDecimal[T](fixedpoint.Decimal(staked).Mul(delta), fixedpoint.TowardZero)
}
