package center

import (
	"github.com/ethereum/go-ethereum/common"

	centererrors "nirvana/core/errors"
	"nirvana/core/events"
	"nirvana/native/commitment"
	nativecommon "nirvana/native/common"
	"nirvana/native/fixedpoint"
)

// CommitmentRequest moves the caller's pledge to TargetSpend whole dollars.
type CommitmentRequest struct {
	Call
	TargetSpend uint64
}

// BootstrapRequest opens the bootstrap window. A zero StartTime starts it
// at the current time.
type BootstrapRequest struct {
	Call
	StartTime uint64
}

func (e *Engine) commitmentMeta() (*commitment.Meta, error) {
	meta, err := e.state.CommitmentMeta()
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, centererrors.ErrNotInitialized
	}
	return meta.Clone(), nil
}

func (e *Engine) commitment(owner common.Address) (*commitment.Commitment, error) {
	c, err := e.state.Commitment(owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &commitment.Commitment{}, nil
	}
	return c.Clone(), nil
}

func escrowMarket(cfg *Config) (Asset, Account, error) {
	if cfg.CommitmentMarket == "" {
		return "", "", centererrors.ErrMoneyMarketNotFound
	}
	return MoneyAsset(cfg.CommitmentMarket), AccountCommitmentEscrow, nil
}

// SetCommitment raises or lowers the caller's pledge. One percent of the
// change is escrowed or refunded; raising the pledge blends the reward rate
// available at now over the added spend.
func (e *Engine) SetCommitment(req CommitmentRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opSetCommitment, err) }()
	cfg, now, err := e.begin(nativecommon.ModuleCommitment, req.Call)
	if err != nil {
		return nil, err
	}
	meta, err := e.commitmentMeta()
	if err != nil {
		return nil, err
	}
	if !meta.Begun(now) {
		return nil, commitment.ErrCommitmentPeriodNotStarted
	}
	c, err := e.commitment(req.Caller)
	if err != nil {
		return nil, err
	}
	if c.Claimed {
		return nil, commitment.ErrAlreadyClaimed
	}
	asset, escrow, err := escrowMarket(cfg)
	if err != nil {
		return nil, err
	}
	increase := req.TargetSpend > c.TargetSpend
	delta := c.TargetSpend - req.TargetSpend
	if increase {
		delta = req.TargetSpend - c.TargetSpend
	}
	denominator, err := meta.Denominator()
	if err != nil {
		return nil, err
	}
	change, err := commitment.EscrowFor(delta, denominator)
	if err != nil {
		return nil, err
	}
	if err := c.SetTarget(req.TargetSpend, meta.RateForTime(now)); err != nil {
		return nil, err
	}

	user := UserAccount(req.Caller)
	amount := fixedpoint.NewArbitrary(change, meta.EscrowDecimals)
	receipt = newReceipt(opSetCommitment, req.Caller, now)
	if increase {
		if err := meta.Add(delta); err != nil {
			return nil, err
		}
		receipt.transfer(asset, user, escrow, amount)
	} else {
		if err := meta.Sub(delta); err != nil {
			return nil, err
		}
		receipt.transfer(asset, escrow, user, amount)
	}
	update := &Update{Owner: req.Caller, Commitment: c, CommitmentMeta: meta}
	evt := events.CommitmentSet{
		Owner:      req.Caller,
		RewardRate: c.RewardRate.String(),
		Escrow:     amount.String(),
		Increase:   increase,
	}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// ClaimLBP closes a met commitment after the bootstrap has ended: the
// escrow is refunded and the reward is minted as prANA at the caller's
// bootstrap average price. The target is met against all-time net spend.
// A caller with no net bootstrap ANA cannot claim (ErrDivideByZero).
func (e *Engine) ClaimLBP(call Call) (receipt *Receipt, err error) {
	defer func() { e.observe(opClaimLBP, err) }()
	cfg, now, err := e.begin(nativecommon.ModuleCommitment, call)
	if err != nil {
		return nil, err
	}
	meta, err := e.commitmentMeta()
	if err != nil {
		return nil, err
	}
	c, err := e.commitment(call.Caller)
	if err != nil {
		return nil, err
	}
	if c.Claimed {
		return nil, commitment.ErrAlreadyClaimed
	}
	if c.TargetSpend == 0 {
		return nil, centererrors.ErrNothingToClaim
	}
	hist, err := e.personalHistory(call.Caller)
	if err != nil {
		return nil, err
	}
	if hist.NetSpentUSD < c.TargetSpend {
		return nil, commitment.ErrCommitmentTargetNotMet
	}
	if !cfg.Bootstrap.Ended(now) {
		return nil, commitment.ErrBootstrappingNotEnded
	}
	asset, escrow, err := escrowMarket(cfg)
	if err != nil {
		return nil, err
	}
	denominator, err := meta.Denominator()
	if err != nil {
		return nil, err
	}
	refund, err := commitment.EscrowFor(c.TargetSpend, denominator)
	if err != nil {
		return nil, err
	}
	avg, err := hist.BootstrapAvgPrice()
	if err != nil {
		return nil, err
	}
	reward, err := commitment.RewardAmount(c, avg)
	if err != nil {
		return nil, err
	}
	global, err := e.globalHistory()
	if err != nil {
		return nil, err
	}
	if err := global.MintPrANA(reward); err != nil {
		return nil, err
	}
	if err := hist.EarnPrANA(reward); err != nil {
		return nil, err
	}
	c.Claimed = true

	user := UserAccount(call.Caller)
	receipt = newReceipt(opClaimLBP, call.Caller, now)
	receipt.transfer(asset, escrow, user, fixedpoint.NewArbitrary(refund, meta.EscrowDecimals))
	receipt.mint(AssetPrANA, user, Token(reward))
	update := &Update{
		Owner:         call.Caller,
		Commitment:    c,
		History:       hist,
		GlobalHistory: global,
	}
	evt := events.LBPClaimed{
		Owner:    call.Caller,
		AvgPrice: avg.String(),
		Reward:   reward.String(),
	}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// StartBootstrap opens the bootstrap window. Only the policy owner may call
// it.
func (e *Engine) StartBootstrap(req BootstrapRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opStartBootstrap, err) }()
	cfg, now, err := e.begin(nativecommon.ModuleCenter, req.Call)
	if err != nil {
		return nil, err
	}
	if req.Caller != cfg.PolicyOwner {
		return nil, centererrors.ErrUnauthorized
	}
	if cfg.Bootstrap.Duration == 0 {
		return nil, centererrors.ErrBootstrapNotConfigured
	}
	start := req.StartTime
	if start == 0 {
		start = now
	}
	if err := cfg.Bootstrap.Start(start); err != nil {
		return nil, err
	}
	receipt = newReceipt(opStartBootstrap, req.Caller, now)
	evt := events.BootstrapStarted{
		Offset:    cfg.Bootstrap.StartOffset.String(),
		StartTime: cfg.Bootstrap.StartTime,
		EndTime:   cfg.Bootstrap.EndTime(),
	}
	if err := e.commit(&Update{Owner: req.Caller, Config: cfg}, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}
