package center

import (
	centererrors "nirvana/core/errors"
	"nirvana/core/events"
	nativecommon "nirvana/native/common"
	"nirvana/native/curve"
	"nirvana/native/fees"
	"nirvana/native/fixedpoint"
	"nirvana/native/lending"
	"nirvana/native/rewards"
)

// StakeRequest stakes or unstakes ANA.
type StakeRequest struct {
	Call
	Amount fixedpoint.ANA
}

// LoanRequest borrows or repays NIRV against staked ANA.
type LoanRequest struct {
	Call
	Amount fixedpoint.NIRV
}

// position is the loaded state shared by the staking and lending paths.
type position struct {
	cfg   *Config
	field *curve.PriceField
	rec   *rewards.StakeRecord
	now   uint64
}

// loadPosition loads the caller's stake record and stages rewards accrued
// since its last checkpoint so the change that follows starts a new window.
func (e *Engine) loadPosition(module string, call Call) (*position, error) {
	cfg, now, err := e.begin(module, call)
	if err != nil {
		return nil, err
	}
	field, err := e.priceField()
	if err != nil {
		return nil, err
	}
	rec, err := e.stakeRecord(call.Caller)
	if err != nil {
		return nil, err
	}
	if _, err := lending.StageRewards(rec, cfg.RewardIndex, field.FloorPrice, cfg.Fees.Debt); err != nil {
		return nil, err
	}
	return &position{cfg: cfg, field: field, rec: rec, now: now}, nil
}

// StakeANA moves ANA into the stake pool.
func (e *Engine) StakeANA(req StakeRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opStakeANA, err) }()
	if req.Amount == 0 {
		return nil, centererrors.ErrInvalidAmount
	}
	pos, err := e.loadPosition(nativecommon.ModuleStaking, req.Call)
	if err != nil {
		return nil, err
	}
	if pos.rec.Staked, err = fixedpoint.Add(pos.rec.Staked, req.Amount); err != nil {
		return nil, err
	}
	receipt = newReceipt(opStakeANA, req.Caller, pos.now)
	receipt.transfer(AssetANA, UserAccount(req.Caller), AccountStakePoolANA, Token(req.Amount))
	update := &Update{Owner: req.Caller, StakeRecord: pos.rec}
	evt := events.Stake{
		Owner:  req.Caller,
		Asset:  string(AssetANA),
		Action: "stake",
		Amount: req.Amount.String(),
		Fee:    fixedpoint.ANA(0).String(),
	}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// UnstakeANA returns staked ANA less the unstake fee. Outstanding debt must
// remain covered by what is left staked.
func (e *Engine) UnstakeANA(req StakeRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opUnstakeANA, err) }()
	if req.Amount == 0 {
		return nil, centererrors.ErrInvalidAmount
	}
	pos, err := e.loadPosition(nativecommon.ModuleStaking, req.Call)
	if err != nil {
		return nil, err
	}
	if req.Amount > pos.rec.Staked {
		return nil, centererrors.ErrInsufficientStake
	}
	pos.rec.Staked -= req.Amount
	if err := lending.CheckCollateral(pos.rec, pos.field.FloorPrice); err != nil {
		return nil, err
	}
	almsStaked, err := e.stakedALMS()
	if err != nil {
		return nil, err
	}
	split, err := fees.Collect(req.Amount, pos.cfg.Fees.Unstake, almsStaked, &pos.cfg.FeeIndices.ANA)
	if err != nil {
		return nil, err
	}
	receipt = newReceipt(opUnstakeANA, req.Caller, pos.now)
	receipt.transfer(AssetANA, AccountStakePoolANA, UserAccount(req.Caller), Token(split.Net))
	receipt.transfer(AssetANA, AccountStakePoolANA, AccountFeeANA, Token(split.Fee))
	update := &Update{Owner: req.Caller, Config: pos.cfg, StakeRecord: pos.rec}
	evt := events.Stake{
		Owner:  req.Caller,
		Asset:  string(AssetANA),
		Action: "unstake",
		Amount: req.Amount.String(),
		Fee:    split.Fee.String(),
	}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	e.fee(string(fees.KindUnstake), Token(split.Fee))
	return receipt, nil
}

// BorrowNIRV mints NIRV against staked ANA valued at the floor price. The
// debt is the gross amount; the origination fee accrues to ALMS stakers.
func (e *Engine) BorrowNIRV(req LoanRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opBorrowNIRV, err) }()
	if req.Amount == 0 {
		return nil, centererrors.ErrInvalidAmount
	}
	pos, err := e.loadPosition(nativecommon.ModuleLending, req.Call)
	if err != nil {
		return nil, err
	}
	if err := lending.Borrow(pos.rec, req.Amount, pos.field.FloorPrice); err != nil {
		return nil, err
	}
	almsStaked, err := e.stakedALMS()
	if err != nil {
		return nil, err
	}
	split, err := fees.Collect(req.Amount, pos.cfg.Fees.Origination, almsStaked, &pos.cfg.FeeIndices.NIRV)
	if err != nil {
		return nil, err
	}
	hist, err := e.personalHistory(req.Caller)
	if err != nil {
		return nil, err
	}
	global, err := e.globalHistory()
	if err != nil {
		return nil, err
	}
	if err := hist.Borrow(req.Amount); err != nil {
		return nil, err
	}
	if err := global.MintNIRV(req.Amount); err != nil {
		return nil, err
	}
	receipt = newReceipt(opBorrowNIRV, req.Caller, pos.now)
	receipt.mint(AssetNIRV, UserAccount(req.Caller), Token(split.Net))
	receipt.mint(AssetNIRV, AccountFeeNIRV, Token(split.Fee))
	update := &Update{
		Owner:         req.Caller,
		Config:        pos.cfg,
		StakeRecord:   pos.rec,
		History:       hist,
		GlobalHistory: global,
	}
	evt := events.Loan{
		Owner:    req.Caller,
		Action:   "borrow",
		Amount:   req.Amount.String(),
		Fee:      split.Fee.String(),
		Borrowed: pos.rec.Borrowed.String(),
	}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	e.fee(string(fees.KindOrigination), Token(split.Fee))
	return receipt, nil
}

// RepayNIRV burns NIRV against the caller's debt.
func (e *Engine) RepayNIRV(req LoanRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opRepayNIRV, err) }()
	if req.Amount == 0 {
		return nil, centererrors.ErrInvalidAmount
	}
	pos, err := e.loadPosition(nativecommon.ModuleLending, req.Call)
	if err != nil {
		return nil, err
	}
	if err := lending.Repay(pos.rec, req.Amount); err != nil {
		return nil, err
	}
	hist, err := e.personalHistory(req.Caller)
	if err != nil {
		return nil, err
	}
	global, err := e.globalHistory()
	if err != nil {
		return nil, err
	}
	if err := hist.Repay(req.Amount); err != nil {
		return nil, err
	}
	if err := global.RepayNIRV(req.Amount); err != nil {
		return nil, err
	}
	receipt = newReceipt(opRepayNIRV, req.Caller, pos.now)
	receipt.burn(AssetNIRV, UserAccount(req.Caller), Token(req.Amount))
	update := &Update{
		Owner:         req.Caller,
		StakeRecord:   pos.rec,
		History:       hist,
		GlobalHistory: global,
	}
	evt := events.Loan{
		Owner:    req.Caller,
		Action:   "repay",
		Amount:   req.Amount.String(),
		Fee:      fixedpoint.NIRV(0).String(),
		Borrowed: pos.rec.Borrowed.String(),
	}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// ClaimPrANA mints the caller's staged reward. The staged debt fee is minted
// to the prANA fee account and accrues to ALMS stakers.
func (e *Engine) ClaimPrANA(call Call) (receipt *Receipt, err error) {
	defer func() { e.observe(opClaimPrANA, err) }()
	pos, err := e.loadPosition(nativecommon.ModuleRewards, call)
	if err != nil {
		return nil, err
	}
	reward, fee := pos.rec.TakeStaged()
	if reward == 0 && fee == 0 {
		return nil, centererrors.ErrNothingToClaim
	}
	almsStaked, err := e.stakedALMS()
	if err != nil {
		return nil, err
	}
	if err := rewards.Accrue(&pos.cfg.FeeIndices.PrANA, fee, almsStaked); err != nil {
		return nil, err
	}
	hist, err := e.personalHistory(call.Caller)
	if err != nil {
		return nil, err
	}
	global, err := e.globalHistory()
	if err != nil {
		return nil, err
	}
	if err := hist.EarnPrANA(reward); err != nil {
		return nil, err
	}
	minted, err := fixedpoint.Add(reward, fee)
	if err != nil {
		return nil, err
	}
	if err := global.MintPrANA(minted); err != nil {
		return nil, err
	}
	receipt = newReceipt(opClaimPrANA, call.Caller, pos.now)
	receipt.mint(AssetPrANA, UserAccount(call.Caller), Token(reward))
	receipt.mint(AssetPrANA, AccountFeePrANA, Token(fee))
	update := &Update{
		Owner:         call.Caller,
		Config:        pos.cfg,
		StakeRecord:   pos.rec,
		History:       hist,
		GlobalHistory: global,
	}
	evt := events.RewardClaimed{Owner: call.Caller, Reward: reward.String(), Fee: fee.String()}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	e.fee(string(fees.KindDebt), Token(fee))
	return receipt, nil
}

// RewardByTime drops one interval of prANA emission into the reward index.
// Anyone may call it once the interval has elapsed.
func (e *Engine) RewardByTime(call Call) (receipt *Receipt, err error) {
	defer func() { e.observe(opRewardByTime, err) }()
	cfg, now, err := e.begin(nativecommon.ModuleRewards, call)
	if err != nil {
		return nil, err
	}
	next := cfg.LastRewardTime + cfg.RewardIntervalSeconds
	if next < cfg.LastRewardTime || now <= next {
		return nil, centererrors.ErrRewardTooSoon
	}
	supply, err := e.supplyANA()
	if err != nil {
		return nil, err
	}
	staked, err := e.stakedANA()
	if err != nil {
		return nil, err
	}
	amount, err := rewards.DropReward(cfg.RewardRate, cfg.RewardIntervalSeconds, supply, staked, &cfg.RewardIndex)
	if err != nil {
		return nil, err
	}
	cfg.LastRewardTime = now
	global, err := e.globalHistory()
	if err != nil {
		return nil, err
	}
	if err := global.RecordReward(amount); err != nil {
		return nil, err
	}
	receipt = newReceipt(opRewardByTime, call.Caller, now)
	update := &Update{Owner: call.Caller, Config: cfg, GlobalHistory: global}
	evt := events.RewardDropped{Amount: amount.String(), Index: cfg.RewardIndex.String()}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}
