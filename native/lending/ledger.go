package lending

import (
	"errors"

	"nirvana/native/fees"
	"nirvana/native/fixedpoint"
	"nirvana/native/rewards"
)

var (
	// ErrBorrowLimitExceeded is returned when a borrow leaves debt above the
	// collateral limit.
	ErrBorrowLimitExceeded = errors.New("lending: borrowed amount larger than limit")
	// ErrInsufficientCollateral is returned when an unstake leaves existing
	// debt above the reduced limit.
	ErrInsufficientCollateral = errors.New("lending: insufficient collateral for outstanding debt")
	// ErrRepayExceedsDebt is returned when repaying more than is borrowed.
	ErrRepayExceedsDebt = errors.New("lending: repay exceeds debt")
	// ErrInvalidUtilisation signals debt above the limit at a point where the
	// borrow-time check should have made that impossible.
	ErrInvalidUtilisation = errors.New("lending: invalid borrow utilisation")
)

// BorrowLimit values the staked ANA at the floor price, truncated to NIRV
// scale. Using the floor rather than market keeps the limit conservative.
func BorrowLimit(rec *rewards.StakeRecord, floor fixedpoint.Precise) (fixedpoint.NIRV, error) {
	value := rec.Staked.Decimal().Mul(floor.Decimal())
	return fixedpoint.FromDecimal[fixedpoint.NIRV](value, fixedpoint.TowardZero)
}

// Borrow adds amount to the debt and then checks the limit.
func Borrow(rec *rewards.StakeRecord, amount fixedpoint.NIRV, floor fixedpoint.Precise) error {
	next, err := fixedpoint.Add(rec.Borrowed, amount)
	if err != nil {
		return err
	}
	limit, err := BorrowLimit(rec, floor)
	if err != nil {
		return err
	}
	if next > limit {
		return ErrBorrowLimitExceeded
	}
	rec.Borrowed = next
	return nil
}

// Repay removes amount from the debt.
func Repay(rec *rewards.StakeRecord, amount fixedpoint.NIRV) error {
	if amount > rec.Borrowed {
		return ErrRepayExceedsDebt
	}
	rec.Borrowed -= amount
	return nil
}

// CheckCollateral verifies the current debt is within the limit.
func CheckCollateral(rec *rewards.StakeRecord, floor fixedpoint.Precise) error {
	limit, err := BorrowLimit(rec, floor)
	if err != nil {
		return err
	}
	if rec.Borrowed > limit {
		return ErrInsufficientCollateral
	}
	return nil
}

// Utilisation returns borrowed/limit truncated to 12 decimals, or zero when
// nothing is borrowed.
func Utilisation(rec *rewards.StakeRecord, floor fixedpoint.Precise) (fixedpoint.Precise, error) {
	if rec.Borrowed == 0 {
		return 0, nil
	}
	limit, err := BorrowLimit(rec, floor)
	if err != nil {
		return 0, err
	}
	if rec.Borrowed > limit {
		return 0, ErrInvalidUtilisation
	}
	ratio, err := fixedpoint.Div(rec.Borrowed.Decimal(), limit.Decimal(), fixedpoint.PreciseScale, fixedpoint.TowardZero)
	if err != nil {
		return 0, err
	}
	return fixedpoint.FromDecimal[fixedpoint.Precise](ratio, fixedpoint.TowardZero)
}

// DebtFee charges reward×rate×utilisation, truncated to token scale.
func DebtFee(reward fixedpoint.PrANA, utilisation fixedpoint.Precise, rate fixedpoint.Coarse) (fees.Result[fixedpoint.PrANA], error) {
	value := fixedpoint.Mul(fixedpoint.TokenScale, fixedpoint.TowardZero, reward.Decimal(), rate.Decimal(), utilisation.Decimal())
	fee, err := fixedpoint.FromDecimal[fixedpoint.PrANA](value, fixedpoint.TowardZero)
	if err != nil {
		return fees.Result[fixedpoint.PrANA]{}, err
	}
	net, err := fixedpoint.Sub(reward, fee)
	if err != nil {
		return fees.Result[fixedpoint.PrANA]{}, err
	}
	return fees.Result[fixedpoint.PrANA]{Net: net, Fee: fee}, nil
}

// StageRewards stages the reward accrued since the last checkpoint with the
// debt fee split off at the record's current utilisation.
func StageRewards(rec *rewards.StakeRecord, index, floor fixedpoint.Precise, debtFeeRate fixedpoint.Coarse) (fees.Result[fixedpoint.PrANA], error) {
	utilisation, err := Utilisation(rec, floor)
	if err != nil {
		return fees.Result[fixedpoint.PrANA]{}, err
	}
	reward, err := rec.PendingReward(index)
	if err != nil {
		return fees.Result[fixedpoint.PrANA]{}, err
	}
	split, err := DebtFee(reward, utilisation, debtFeeRate)
	if err != nil {
		return fees.Result[fixedpoint.PrANA]{}, err
	}
	if err := rec.Checkpoint(index, split.Net, split.Fee); err != nil {
		return fees.Result[fixedpoint.PrANA]{}, err
	}
	return split, nil
}
