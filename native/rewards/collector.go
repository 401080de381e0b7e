package rewards

import (
	"errors"

	"nirvana/native/fixedpoint"
)

// ErrInsufficientStake is returned when unstaking more than is staked.
var ErrInsufficientStake = errors.New("rewards: insufficient stake")

// FeeIndices are the global fee-per-ALMS indices, one per fee asset.
type FeeIndices struct {
	ANA   fixedpoint.Precise
	NIRV  fixedpoint.Precise
	PrANA fixedpoint.Precise
}

// FeeCollector is a participant's ALMS staking position. Fees accrued since
// the last checkpoint are staged per asset before the stake changes.
type FeeCollector struct {
	Staked      fixedpoint.ALMS
	Index       FeeIndices
	StagedANA   fixedpoint.ANA
	StagedNIRV  fixedpoint.NIRV
	StagedPrANA fixedpoint.PrANA
}

// FeeClaim is the set of fees released by Claim.
type FeeClaim struct {
	ANA   fixedpoint.ANA
	NIRV  fixedpoint.NIRV
	PrANA fixedpoint.PrANA
}

// IsZero reports whether the claim pays nothing.
func (c FeeClaim) IsZero() bool {
	return c.ANA == 0 && c.NIRV == 0 && c.PrANA == 0
}

func (c *FeeCollector) Clone() *FeeCollector {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Stage moves fees accrued since the last checkpoint into the staged
// balances and checkpoints at global.
func (c *FeeCollector) Stage(global FeeIndices) error {
	ana, err := share[fixedpoint.ANA](c.Staked, c.Index.ANA, global.ANA)
	if err != nil {
		return err
	}
	nirv, err := share[fixedpoint.NIRV](c.Staked, c.Index.NIRV, global.NIRV)
	if err != nil {
		return err
	}
	prana, err := share[fixedpoint.PrANA](c.Staked, c.Index.PrANA, global.PrANA)
	if err != nil {
		return err
	}
	if c.StagedANA, err = fixedpoint.Add(c.StagedANA, ana); err != nil {
		return err
	}
	if c.StagedNIRV, err = fixedpoint.Add(c.StagedNIRV, nirv); err != nil {
		return err
	}
	if c.StagedPrANA, err = fixedpoint.Add(c.StagedPrANA, prana); err != nil {
		return err
	}
	c.Index = global
	return nil
}

// Stake stages pending fees then adds amount.
func (c *FeeCollector) Stake(amount fixedpoint.ALMS, global FeeIndices) error {
	if err := c.Stage(global); err != nil {
		return err
	}
	next, err := fixedpoint.Add(c.Staked, amount)
	if err != nil {
		return err
	}
	c.Staked = next
	return nil
}

// Unstake stages pending fees then removes amount.
func (c *FeeCollector) Unstake(amount fixedpoint.ALMS, global FeeIndices) error {
	if amount > c.Staked {
		return ErrInsufficientStake
	}
	if err := c.Stage(global); err != nil {
		return err
	}
	c.Staked -= amount
	return nil
}

// Claim stages pending fees and releases everything staged.
func (c *FeeCollector) Claim(global FeeIndices) (FeeClaim, error) {
	if err := c.Stage(global); err != nil {
		return FeeClaim{}, err
	}
	claim := FeeClaim{ANA: c.StagedANA, NIRV: c.StagedNIRV, PrANA: c.StagedPrANA}
	c.StagedANA, c.StagedNIRV, c.StagedPrANA = 0, 0, 0
	return claim, nil
}
