package rewards

import (
	"nirvana/native/fixedpoint"
)

// StakeRecord is a participant's ANA staking position. Index is the reward
// index at the last checkpoint; rewards accrued since then are staked×Δindex.
type StakeRecord struct {
	Index        fixedpoint.Precise
	Staked       fixedpoint.ANA
	Borrowed     fixedpoint.NIRV
	StagedReward fixedpoint.PrANA
	StagedFee    fixedpoint.PrANA
}

// Clone returns a copy of the record.
func (r *StakeRecord) Clone() *StakeRecord {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// PendingReward returns the reward accrued since the last checkpoint without
// moving it.
func (r *StakeRecord) PendingReward(current fixedpoint.Precise) (fixedpoint.PrANA, error) {
	return share[fixedpoint.PrANA](r.Staked, r.Index, current)
}

// StageRewards moves the reward accrued since the last checkpoint into
// StagedReward and checkpoints at current. It must run before Staked or
// Borrowed change so no accrual window is skipped.
func (r *StakeRecord) StageRewards(current fixedpoint.Precise) (fixedpoint.PrANA, error) {
	reward, err := r.PendingReward(current)
	if err != nil {
		return 0, err
	}
	return reward, r.Checkpoint(current, reward, 0)
}

// Checkpoint adds reward and fee to the staged balances and records current
// as the last seen index.
func (r *StakeRecord) Checkpoint(current fixedpoint.Precise, reward, fee fixedpoint.PrANA) error {
	staged, err := fixedpoint.Add(r.StagedReward, reward)
	if err != nil {
		return err
	}
	stagedFee, err := fixedpoint.Add(r.StagedFee, fee)
	if err != nil {
		return err
	}
	r.StagedReward = staged
	r.StagedFee = stagedFee
	r.Index = current
	return nil
}

// TakeStaged returns and clears the staged reward and fee.
func (r *StakeRecord) TakeStaged() (reward, fee fixedpoint.PrANA) {
	reward, fee = r.StagedReward, r.StagedFee
	r.StagedReward = 0
	r.StagedFee = 0
	return reward, fee
}
