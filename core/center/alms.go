package center

import (
	"errors"

	centererrors "nirvana/core/errors"
	"nirvana/core/events"
	nativecommon "nirvana/native/common"
	"nirvana/native/fixedpoint"
	"nirvana/native/rewards"
)

// ALMSRequest stakes or unstakes ALMS.
type ALMSRequest struct {
	Call
	Amount fixedpoint.ALMS
}

// StakeALMS moves ALMS into the fee pool after staging the caller's share
// of fees collected so far.
func (e *Engine) StakeALMS(req ALMSRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opStakeALMS, err) }()
	cfg, now, err := e.begin(nativecommon.ModuleStaking, req.Call)
	if err != nil {
		return nil, err
	}
	if req.Amount == 0 {
		return nil, centererrors.ErrInvalidAmount
	}
	collector, err := e.feeCollector(req.Caller)
	if err != nil {
		return nil, err
	}
	if err := collector.Stake(req.Amount, cfg.FeeIndices); err != nil {
		return nil, err
	}
	receipt = newReceipt(opStakeALMS, req.Caller, now)
	receipt.transfer(AssetALMS, UserAccount(req.Caller), AccountStakePoolALMS, Token(req.Amount))
	evt := events.Stake{
		Owner:  req.Caller,
		Asset:  string(AssetALMS),
		Action: "stake",
		Amount: req.Amount.String(),
		Fee:    fixedpoint.ALMS(0).String(),
	}
	if err := e.commit(&Update{Owner: req.Caller, FeeCollector: collector}, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// UnstakeALMS returns staked ALMS. Fees already earned stay staged.
func (e *Engine) UnstakeALMS(req ALMSRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opUnstakeALMS, err) }()
	cfg, now, err := e.begin(nativecommon.ModuleStaking, req.Call)
	if err != nil {
		return nil, err
	}
	if req.Amount == 0 {
		return nil, centererrors.ErrInvalidAmount
	}
	collector, err := e.feeCollector(req.Caller)
	if err != nil {
		return nil, err
	}
	if err := collector.Unstake(req.Amount, cfg.FeeIndices); err != nil {
		if errors.Is(err, rewards.ErrInsufficientStake) {
			return nil, centererrors.ErrInsufficientStake
		}
		return nil, err
	}
	receipt = newReceipt(opUnstakeALMS, req.Caller, now)
	receipt.transfer(AssetALMS, AccountStakePoolALMS, UserAccount(req.Caller), Token(req.Amount))
	evt := events.Stake{
		Owner:  req.Caller,
		Asset:  string(AssetALMS),
		Action: "unstake",
		Amount: req.Amount.String(),
		Fee:    fixedpoint.ALMS(0).String(),
	}
	if err := e.commit(&Update{Owner: req.Caller, FeeCollector: collector}, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// ClaimFees pays out the caller's ANA, NIRV and prANA fee shares from the
// fee accounts.
func (e *Engine) ClaimFees(call Call) (receipt *Receipt, err error) {
	defer func() { e.observe(opClaimFees, err) }()
	cfg, now, err := e.begin(nativecommon.ModuleStaking, call)
	if err != nil {
		return nil, err
	}
	collector, err := e.feeCollector(call.Caller)
	if err != nil {
		return nil, err
	}
	claim, err := collector.Claim(cfg.FeeIndices)
	if err != nil {
		return nil, err
	}
	if claim.IsZero() {
		return nil, centererrors.ErrNothingToClaim
	}
	user := UserAccount(call.Caller)
	receipt = newReceipt(opClaimFees, call.Caller, now)
	receipt.transfer(AssetANA, AccountFeeANA, user, Token(claim.ANA))
	receipt.transfer(AssetNIRV, AccountFeeNIRV, user, Token(claim.NIRV))
	receipt.transfer(AssetPrANA, AccountFeePrANA, user, Token(claim.PrANA))
	evt := events.FeesClaimed{
		Owner: call.Caller,
		ANA:   claim.ANA.String(),
		NIRV:  claim.NIRV.String(),
		PrANA: claim.PrANA.String(),
	}
	if err := e.commit(&Update{Owner: call.Caller, FeeCollector: collector}, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}
