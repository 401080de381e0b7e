package center

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	centererrors "nirvana/core/errors"
	"nirvana/core/events"
	"nirvana/native/bond"
	"nirvana/native/bootstrap"
	"nirvana/native/commitment"
	nativecommon "nirvana/native/common"
	"nirvana/native/curve"
	"nirvana/native/fees"
	"nirvana/native/fixedpoint"
	"nirvana/native/lending"
)

func feesSchedule() fees.Schedule {
	return fees.Schedule{
		InstantBuy:  coarse("0.01"),
		Sell:        coarse("0.01"),
		TrANA:       coarse("0.02"),
		Unstake:     coarse("0.05"),
		Origination: coarse("0.01"),
		Debt:        coarse("0.1"),
	}
}

func bootstrapParams() bootstrap.Params {
	return bootstrap.Params{Duration: 1_000}
}

func call(addr common.Address) Call { return Call{Caller: addr} }

func TestInitializeOnce(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	if state.config.PolicyOwner != policyOwner {
		t.Fatalf("policy owner: got %s", state.config.PolicyOwner.Hex())
	}
	if state.config.CurrentPrice != precise("1") {
		t.Fatalf("initial price: got %s", state.config.CurrentPrice)
	}
	if _, ok := state.markets["usdc"]; !ok {
		t.Fatalf("money market not stored under normalized id")
	}
	if err := engine.Initialize(policyOwner, testGenesis()); !errors.Is(err, centererrors.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestInitializeRejectsBondWithoutMarket(t *testing.T) {
	engine := NewEngine()
	engine.SetState(newMockEngineState())
	genesis := testGenesis()
	genesis.Bonds[0].ID = "dai"
	err := engine.Initialize(policyOwner, genesis)
	require.ErrorIs(t, err, centererrors.ErrInvalidGenesis)
}

func TestOperationsRequireInitialize(t *testing.T) {
	engine := NewEngine()
	engine.SetState(newMockEngineState())
	_, err := engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Amount: ana("1"), Limit: 1})
	require.ErrorIs(t, err, centererrors.ErrNotInitialized)
}

func TestSwapBuy(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	collector := &events.Collector{}
	engine.SetEmitter(collector)

	// 10 ANA priced at the post-trade price of 1.10.
	_, err := engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Side: curve.Buy, Amount: ana("10"), Limit: 10_999_999})
	require.ErrorIs(t, err, centererrors.ErrSlippageExceededForBuy)
	require.Zero(t, state.supplies[AssetANA])

	receipt, err := engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Side: curve.Buy, Amount: ana("10"), Limit: 11_000_000})
	require.NoError(t, err)
	require.Len(t, receipt.Transfers, 3)
	require.Equal(t, Transfer{Kind: KindTransfer, Asset: "USDC", From: UserAccount(alice), To: TreasuryAccount("usdc"), Amount: receipt.Transfers[0].Amount}, receipt.Transfers[0])
	require.Equal(t, uint64(11_000_000), receipt.Transfers[0].Amount.Val)
	require.Equal(t, uint64(ana("9.9")), receipt.Transfers[1].Amount.Val)
	require.Equal(t, AccountFeeANA, receipt.Transfers[2].To)
	require.Equal(t, uint64(ana("0.1")), receipt.Transfers[2].Amount.Val)

	require.Equal(t, uint64(ana("10")), state.supplies[AssetANA])
	require.Equal(t, uint64(11_000_000), state.balance(TreasuryAccount("usdc"), "USDC"))
	require.Equal(t, uint64(ana("0.1")), state.balance(AccountFeeANA, AssetANA))
	require.Equal(t, precise("1.1"), state.config.CurrentPrice)
	require.Equal(t, uint64(11), state.histories[alice].NetSpentUSD)
	require.Equal(t, ana("10"), state.global.AllTimeHighSupply)
	// Nothing is staked in ALMS so the fee does not move the index.
	require.Zero(t, state.config.FeeIndices.ANA)

	require.Len(t, collector.Events, 1)
	swap, ok := collector.Events[0].(events.Swap)
	require.True(t, ok)
	require.Equal(t, "buy", swap.Side)
	require.Equal(t, "11.000000", swap.Cost)
}

func TestSwapSell(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	_, err := engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Side: curve.Buy, Amount: ana("10"), Limit: 11_000_000})
	require.NoError(t, err)

	// 4.95 ANA net of fee settles at the sell price for supply 5.05.
	_, err = engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Side: curve.Sell, Amount: ana("5"), Limit: 5_199_976})
	require.ErrorIs(t, err, centererrors.ErrSlippageExceededForSell)

	receipt, err := engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Side: curve.Sell, Amount: ana("5"), Limit: 5_199_975})
	require.NoError(t, err)
	require.Len(t, receipt.Transfers, 3)
	require.Equal(t, KindBurn, receipt.Transfers[0].Kind)
	require.Equal(t, uint64(ana("4.95")), receipt.Transfers[0].Amount.Val)
	require.Equal(t, uint64(5_199_975), receipt.Transfers[2].Amount.Val)

	require.Equal(t, uint64(ana("5.05")), state.supplies[AssetANA])
	require.Equal(t, uint64(11_000_000-5_199_975), state.balance(TreasuryAccount("usdc"), "USDC"))
	require.Equal(t, uint64(ana("0.15")), state.balance(AccountFeeANA, AssetANA))
	require.Equal(t, precise("1.0505"), state.config.CurrentPrice)
	// 11 dollars spent, 5 recovered.
	require.Equal(t, uint64(6), state.histories[alice].NetSpentUSD)
	require.Equal(t, uint64(16), state.histories[alice].TotalVolumeUSD)
}

func TestSwapFeeAccruesToALMSStakers(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	_, err := engine.StakeALMS(ALMSRequest{Call: call(bob), Amount: alms("10")})
	require.NoError(t, err)
	require.Equal(t, uint64(alms("10")), state.balance(AccountStakePoolALMS, AssetALMS))

	_, err = engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Side: curve.Buy, Amount: ana("10"), Limit: 11_000_000})
	require.NoError(t, err)
	// 0.1 ANA across 10 ALMS.
	require.Equal(t, precise("0.01"), state.config.FeeIndices.ANA)

	receipt, err := engine.ClaimFees(call(bob))
	require.NoError(t, err)
	require.Len(t, receipt.Transfers, 1)
	require.Equal(t, uint64(ana("0.1")), receipt.Transfers[0].Amount.Val)
	require.Zero(t, state.balance(AccountFeeANA, AssetANA))

	_, err = engine.ClaimFees(call(bob))
	require.ErrorIs(t, err, centererrors.ErrNothingToClaim)
}

func TestSwapDisabledMarket(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	state.markets["usdc"].ForAMM = false
	_, err := engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Amount: ana("1"), Limit: 10_000_000})
	require.ErrorIs(t, err, centererrors.ErrMoneyMarketNotEnabled)
	_, err = engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "dai", Amount: ana("1"), Limit: 10_000_000})
	require.ErrorIs(t, err, centererrors.ErrMoneyMarketNotFound)
}

func TestSwapGuard(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	engine.SetPauses(nativecommon.NewPauses(nativecommon.ModuleSwap))
	commits := state.commits
	_, err := engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Amount: ana("1"), Limit: 10_000_000})
	if !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if state.commits != commits {
		t.Fatalf("paused swap committed state")
	}
	// Other modules keep running.
	if _, err := engine.StakeANA(StakeRequest{Call: call(alice), Amount: ana("1")}); err != nil {
		t.Fatalf("stake while swap paused: %v", err)
	}
}

func TestClockOverrideRequiresPolicyOwner(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	_, err := engine.RewardByTime(Call{Caller: alice, ClockOverride: testNow + 10})
	require.ErrorIs(t, err, centererrors.ErrUnauthorized)

	_, err = engine.RewardByTime(Call{Caller: policyOwner, ClockOverride: testNow + 10})
	require.NoError(t, err)
	require.Equal(t, uint64(testNow+10), state.config.LastRewardTime)
}

func TestBootstrapOffsetAndHistory(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	state.config.Bootstrap.StartOffset = precise("2")

	_, err := engine.StartBootstrap(BootstrapRequest{Call: call(alice)})
	require.ErrorIs(t, err, centererrors.ErrUnauthorized)
	_, err = engine.StartBootstrap(BootstrapRequest{Call: call(policyOwner)})
	require.NoError(t, err)
	require.Equal(t, uint64(testNow), state.config.Bootstrap.StartTime)

	// Half way through the window the offset is 2·e^-3.
	clock.now = testNow + 500
	quote, err := engine.QuoteSwap("usdc", curve.Buy, ana("10"), clock.now)
	require.NoError(t, err)
	require.Equal(t, "0.099574", quote.Offset.String())

	_, err = engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Side: curve.Buy, Amount: ana("10"), Limit: quote.Cost.Val})
	require.NoError(t, err)
	require.Equal(t, uint64(11_995_740), quote.Cost.Val)
	hist := state.histories[alice]
	require.Equal(t, uint64(12), hist.BootstrapNetSpentUSD)
	require.Equal(t, ana("10"), hist.BootstrapNetANA)

	// After the window the offset is gone and purchases are not bootstrap
	// purchases.
	clock.now = testNow + 1_001
	_, err = engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Side: curve.Buy, Amount: ana("1"), Limit: 10_000_000})
	require.NoError(t, err)
	require.Equal(t, ana("10"), state.histories[alice].BootstrapNetANA)
}

func TestStakeBorrowUnstake(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	_, err := engine.StakeANA(StakeRequest{Call: call(alice), Amount: ana("50")})
	require.NoError(t, err)
	require.Equal(t, uint64(ana("50")), state.balance(AccountStakePoolANA, AssetANA))

	// Staked ANA is valued at the floor of 1.
	_, err = engine.BorrowNIRV(LoanRequest{Call: call(alice), Amount: nirv("50.000001")})
	require.ErrorIs(t, err, lending.ErrBorrowLimitExceeded)

	receipt, err := engine.BorrowNIRV(LoanRequest{Call: call(alice), Amount: nirv("25")})
	require.NoError(t, err)
	require.Equal(t, uint64(nirv("24.75")), receipt.Transfers[0].Amount.Val)
	require.Equal(t, uint64(nirv("0.25")), receipt.Transfers[1].Amount.Val)
	require.Equal(t, uint64(nirv("25")), state.supplies[AssetNIRV])
	require.Equal(t, nirv("25"), state.stakes[alice].Borrowed)
	require.Equal(t, nirv("25"), state.global.NIRVMinted)

	_, err = engine.UnstakeANA(StakeRequest{Call: call(alice), Amount: ana("30")})
	require.ErrorIs(t, err, lending.ErrInsufficientCollateral)
	require.Equal(t, ana("50"), state.stakes[alice].Staked)

	receipt, err = engine.UnstakeANA(StakeRequest{Call: call(alice), Amount: ana("20")})
	require.NoError(t, err)
	require.Equal(t, uint64(ana("19")), receipt.Transfers[0].Amount.Val)
	require.Equal(t, uint64(ana("1")), receipt.Transfers[1].Amount.Val)
	require.Equal(t, uint64(ana("30")), state.balance(AccountStakePoolANA, AssetANA))

	_, err = engine.UnstakeANA(StakeRequest{Call: call(alice), Amount: ana("31")})
	require.ErrorIs(t, err, centererrors.ErrInsufficientStake)

	_, err = engine.RepayNIRV(LoanRequest{Call: call(alice), Amount: nirv("26")})
	require.ErrorIs(t, err, lending.ErrRepayExceedsDebt)
	_, err = engine.RepayNIRV(LoanRequest{Call: call(alice), Amount: nirv("25")})
	require.NoError(t, err)
	require.Zero(t, state.stakes[alice].Borrowed)
	require.Zero(t, state.supplies[AssetNIRV])
}

func TestRewardsWithDebtFee(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	state.supplies[AssetANA] = uint64(ana("100"))

	_, err := engine.StakeALMS(ALMSRequest{Call: call(bob), Amount: alms("10")})
	require.NoError(t, err)
	_, err = engine.StakeANA(StakeRequest{Call: call(alice), Amount: ana("50")})
	require.NoError(t, err)
	_, err = engine.BorrowNIRV(LoanRequest{Call: call(alice), Amount: nirv("25")})
	require.NoError(t, err)

	_, err = engine.ClaimPrANA(call(alice))
	require.ErrorIs(t, err, centererrors.ErrNothingToClaim)

	// 1% of 100 ANA over 50 staked.
	_, err = engine.RewardByTime(call(bob))
	require.NoError(t, err)
	require.Equal(t, precise("0.02"), state.config.RewardIndex)
	_, err = engine.RewardByTime(call(bob))
	require.ErrorIs(t, err, centererrors.ErrRewardTooSoon)

	pos, err := engine.QueryPosition(alice)
	require.NoError(t, err)
	require.Equal(t, prana("0.95"), pos.PendingReward)
	require.Equal(t, prana("0.05"), pos.PendingFee)

	// Utilisation 0.5 with a 10% debt fee.
	receipt, err := engine.ClaimPrANA(call(alice))
	require.NoError(t, err)
	require.Equal(t, uint64(prana("0.95")), receipt.Transfers[0].Amount.Val)
	require.Equal(t, AccountFeePrANA, receipt.Transfers[1].To)
	require.Equal(t, uint64(prana("0.05")), receipt.Transfers[1].Amount.Val)
	require.Equal(t, precise("0.005"), state.config.FeeIndices.PrANA)
	require.Equal(t, prana("0.95"), state.histories[alice].TotalPrANAEarned)

	claim, err := engine.ClaimFees(call(bob))
	require.NoError(t, err)
	require.Len(t, claim.Transfers, 2)
	require.Equal(t, AssetNIRV, claim.Transfers[0].Asset)
	require.Equal(t, uint64(nirv("0.25")), claim.Transfers[0].Amount.Val)
	require.Equal(t, AssetPrANA, claim.Transfers[1].Asset)
	require.Equal(t, uint64(prana("0.05")), claim.Transfers[1].Amount.Val)

	clock.now += 86_401
	_, err = engine.RewardByTime(call(bob))
	require.NoError(t, err)
}

func TestRealizeAndBuyback(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	state.supplies[AssetPrANA] = uint64(prana("5"))

	receipt, err := engine.RealizePrANA(RealizeRequest{Call: call(alice), MoneyMarket: "usdc", Amount: prana("2")})
	require.NoError(t, err)
	require.Equal(t, uint64(2_000_000), receipt.Transfers[1].Amount.Val)
	require.Equal(t, uint64(prana("3")), state.supplies[AssetPrANA])
	require.Equal(t, uint64(ana("2")), state.supplies[AssetANA])
	// The curve slides right so the new supply is still priced at the floor.
	require.Equal(t, ana("2"), state.field.RampStart)
	require.Equal(t, uint64(2_000_000), state.balance(TreasuryAccount("usdc"), "USDC"))

	_, err = engine.Buyback(BuybackRequest{Call: call(alice), MoneyMarket: "usdc", Amount: ana("2.5")})
	require.ErrorIs(t, err, centererrors.ErrInsufficientTreasury)

	receipt, err = engine.Buyback(BuybackRequest{Call: call(alice), MoneyMarket: "usdc", Amount: ana("1.5")})
	require.NoError(t, err)
	require.Equal(t, uint64(1_500_000), receipt.Transfers[1].Amount.Val)
	require.Equal(t, uint64(ana("0.5")), state.supplies[AssetANA])
	require.Equal(t, uint64(500_000), state.balance(TreasuryAccount("usdc"), "USDC"))
}

func TestBondPurchaseAndRedeem(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	state.supplies[AssetANA] = uint64(ana("100"))

	quote, err := engine.QuoteBond("usdc")
	require.NoError(t, err)
	require.Equal(t, "1.8", quote.Price.String())

	_, err = engine.PurchaseBond(PurchaseBondRequest{Call: call(alice), MoneyMarket: "usdc", Payment: 18_000_000, MaxPrice: 1_799_999})
	require.ErrorIs(t, err, bond.ErrBondPriceNotMet)

	receipt, err := engine.PurchaseBond(PurchaseBondRequest{Call: call(alice), MoneyMarket: "usdc", Payment: 18_000_000, MaxPrice: 1_800_000})
	require.NoError(t, err)
	require.Len(t, receipt.Transfers, 3)
	require.Equal(t, AccountBondEscrow, receipt.Transfers[1].To)
	require.Equal(t, uint64(ana("9.8")), receipt.Transfers[1].Amount.Val)
	require.Equal(t, uint64(ana("0.2")), receipt.Transfers[2].Amount.Val)
	require.Equal(t, ana("10"), state.field.RampStart)
	require.Equal(t, ana("9.8"), state.bonds["usdc"].Outstanding)
	require.Equal(t, uint64(ana("110")), state.supplies[AssetANA])

	_, err = engine.PurchaseBond(PurchaseBondRequest{Call: call(alice), MoneyMarket: "usdc", Payment: 1_000_000, MaxPrice: 2_000_000})
	require.ErrorIs(t, err, bond.ErrUnavailableBondSlot)

	clock.now = testNow + 500
	receipt, err = engine.RedeemBond(RedeemBondRequest{Call: call(alice), MoneyMarket: "usdc"})
	require.NoError(t, err)
	require.Equal(t, uint64(ana("4.9")), receipt.Transfers[0].Amount.Val)
	require.Equal(t, ana("4.9"), state.bonds["usdc"].Outstanding)

	clock.now = testNow + 2_000
	_, err = engine.RedeemBond(RedeemBondRequest{Call: call(alice), MoneyMarket: "usdc"})
	require.NoError(t, err)
	require.Zero(t, state.bonds["usdc"].Outstanding)
	require.Zero(t, state.balance(AccountBondEscrow, AssetANA))
	require.True(t, state.contracts[BondKey{Bond: "usdc", Owner: alice}].Available)

	_, err = engine.RedeemBond(RedeemBondRequest{Call: call(alice), MoneyMarket: "usdc"})
	require.ErrorIs(t, err, bond.ErrUnusedBondRedeemed)
}

func TestCommitmentLifecycle(t *testing.T) {
	engine, state, clock := newTestEngine(t)

	receipt, err := engine.SetCommitment(CommitmentRequest{Call: call(alice), TargetSpend: 1_000})
	require.NoError(t, err)
	require.Equal(t, uint64(10_000_000), receipt.Transfers[0].Amount.Val)
	require.Equal(t, precise("0.2"), state.commitments[alice].RewardRate)

	receipt, err = engine.SetCommitment(CommitmentRequest{Call: call(alice), TargetSpend: 10})
	require.NoError(t, err)
	require.Equal(t, UserAccount(alice), receipt.Transfers[0].To)
	require.Equal(t, uint64(9_900_000), receipt.Transfers[0].Amount.Val)
	require.Equal(t, uint64(10), state.commitmentMeta.TotalCommitted)
	require.Equal(t, uint64(100_000), state.balance(AccountCommitmentEscrow, "USDC"))

	_, err = engine.StartBootstrap(BootstrapRequest{Call: call(policyOwner)})
	require.NoError(t, err)
	clock.now = testNow + 10
	_, err = engine.ClaimLBP(call(alice))
	require.ErrorIs(t, err, commitment.ErrCommitmentTargetNotMet)

	_, err = engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Side: curve.Buy, Amount: ana("10"), Limit: 11_000_000})
	require.NoError(t, err)
	_, err = engine.ClaimLBP(call(alice))
	require.ErrorIs(t, err, commitment.ErrBootstrappingNotEnded)

	clock.now = testNow + 1_001
	receipt, err = engine.ClaimLBP(call(alice))
	require.NoError(t, err)
	require.Equal(t, uint64(100_000), receipt.Transfers[0].Amount.Val)
	// 10 dollars at an average of 1.1 with a 20% rate.
	require.Equal(t, uint64(prana("1.818181")), receipt.Transfers[1].Amount.Val)
	require.True(t, state.commitments[alice].Claimed)
	require.Zero(t, state.balance(AccountCommitmentEscrow, "USDC"))

	_, err = engine.ClaimLBP(call(alice))
	require.ErrorIs(t, err, commitment.ErrAlreadyClaimed)
}

func TestClaimLBPWithoutBootstrapPurchases(t *testing.T) {
	engine, state, clock := newTestEngine(t)

	_, err := engine.SetCommitment(CommitmentRequest{Call: call(alice), TargetSpend: 10})
	require.NoError(t, err)
	// Bought before the window opens, so none of it counts as bootstrap.
	_, err = engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Side: curve.Buy, Amount: ana("10"), Limit: 11_000_000})
	require.NoError(t, err)
	_, err = engine.StartBootstrap(BootstrapRequest{Call: call(policyOwner)})
	require.NoError(t, err)
	clock.now = testNow + 1_001

	commits := state.commits
	_, err = engine.ClaimLBP(call(alice))
	require.ErrorIs(t, err, fixedpoint.ErrDivideByZero)
	require.Equal(t, commits, state.commits)
	require.False(t, state.commitments[alice].Claimed)
	require.Equal(t, uint64(100_000), state.balance(AccountCommitmentEscrow, "USDC"))
	require.Zero(t, state.histories[alice].TotalPrANAEarned)
}

func TestSwapSellBeyondNetSpendRejected(t *testing.T) {
	engine, state, clock := newTestEngine(t)
	_, err := engine.StartBootstrap(BootstrapRequest{Call: call(policyOwner)})
	require.NoError(t, err)
	clock.now = testNow + 10
	_, err = engine.Swap(SwapRequest{Call: call(alice), MoneyMarket: "usdc", Side: curve.Buy, Amount: ana("10"), Limit: 20_000_000})
	require.NoError(t, err)

	// Bob never bought, so his net spend cannot absorb the proceeds.
	commits := state.commits
	_, err = engine.Swap(SwapRequest{Call: call(bob), MoneyMarket: "usdc", Side: curve.Sell, Amount: ana("5")})
	require.ErrorIs(t, err, fixedpoint.ErrArithmeticUnderflow)
	require.Equal(t, commits, state.commits)
	require.Nil(t, state.histories[bob])
}

func TestSetPriceField(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	_, err := engine.StakeANA(StakeRequest{Call: call(alice), Amount: ana("50")})
	require.NoError(t, err)
	_, err = engine.BorrowNIRV(LoanRequest{Call: call(alice), Amount: nirv("50")})
	require.NoError(t, err)

	field := *state.field
	field.RampStart = ana("10")
	require.ErrorIs(t, engine.SetPriceField(call(alice), field), centererrors.ErrUnauthorized)

	// A lower floor would leave the loan above its limit.
	field.FloorPrice = precise("0.5")
	require.ErrorIs(t, engine.SetPriceField(call(policyOwner), field), centererrors.ErrFloorPriceLowered)
	require.Equal(t, precise("1"), state.field.FloorPrice)

	field.FloorPrice = 0
	require.ErrorIs(t, engine.SetPriceField(call(policyOwner), field), curve.ErrInvalidField)

	field.FloorPrice = precise("2")
	require.NoError(t, engine.SetPriceField(call(policyOwner), field))
	require.Equal(t, field, *state.field)
	want, err := fixedpoint.FromDecimal[fixedpoint.Precise](field.PriceForSupply(fixedpoint.ANA(state.supplies[AssetANA])), fixedpoint.TowardZero)
	require.NoError(t, err)
	require.Equal(t, want, state.config.CurrentPrice)

	_, err = engine.RepayNIRV(LoanRequest{Call: call(alice), Amount: nirv("50")})
	require.NoError(t, err)
}

func TestAdminRequiresPolicyOwner(t *testing.T) {
	engine, state, _ := newTestEngine(t)
	schedule := feesSchedule()
	schedule.Sell = coarse("0.02")
	require.ErrorIs(t, engine.SetFees(call(alice), schedule), centererrors.ErrUnauthorized)
	require.NoError(t, engine.SetFees(call(policyOwner), schedule))
	require.Equal(t, coarse("0.02"), state.config.Fees.Sell)

	schedule.Sell = coarse("1")
	require.ErrorIs(t, engine.SetFees(call(policyOwner), schedule), fees.ErrInvalidRate)

	require.NoError(t, engine.SetRewardRate(RewardRateRequest{Call: call(policyOwner), Rate: precise("0.02")}))
	require.Equal(t, precise("0.02"), state.config.RewardRate)
	require.Equal(t, uint64(86_400), state.config.RewardIntervalSeconds)
}
