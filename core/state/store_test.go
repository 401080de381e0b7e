package state

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nirvana/core/center"
	"nirvana/native/bond"
	"nirvana/native/commitment"
	"nirvana/native/curve"
	"nirvana/native/fees"
	"nirvana/native/fixedpoint"
	"nirvana/storage"
)

const testNow = 1_700_000_000

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	buyer = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func genesis() center.Genesis {
	return center.Genesis{
		Config: center.Config{
			Fees:                  fees.Schedule{InstantBuy: fixedpoint.MustParse[fixedpoint.Coarse]("0.01")},
			RewardRate:            fixedpoint.MustParse[fixedpoint.Precise]("0.01"),
			RewardIntervalSeconds: 86_400,
			CommitmentMarket:      "usdc",
		},
		PriceField: curve.PriceField{
			RampWidth:  fixedpoint.MustParse[fixedpoint.ANA]("100"),
			RampHeight: fixedpoint.MustParse[fixedpoint.Precise]("1"),
			FloorPrice: fixedpoint.MustParse[fixedpoint.Precise]("1"),
		},
		MoneyMarkets: []center.MoneyMarket{
			{ID: "usdc", Decimals: 6, RFVFactor: fixedpoint.One[fixedpoint.Coarse](), ForAMM: true, Enabled: true},
			{ID: "dai", Decimals: 18, RFVFactor: fixedpoint.One[fixedpoint.Coarse]()},
		},
		Bonds: []center.NamedBond{{ID: "usdc", Meta: bond.Meta{Enabled: true, VestingSeconds: 60}}},
		CommitmentMeta: commitment.Meta{
			StartTime:      testNow,
			EarlyBirdEnd:   testNow + 10,
			EndTime:        testNow + 20,
			EscrowDecimals: 6,
		},
	}
}

func newEngine(t *testing.T, store *Store) *center.Engine {
	t.Helper()
	engine := center.NewEngine()
	engine.SetState(store)
	engine.SetNowFunc(func() time.Time { return time.Unix(testNow, 0) })
	return engine
}

func TestStorePersistsEngineState(t *testing.T) {
	db := storage.NewMemDB()
	engine := newEngine(t, NewStore(db))
	require.NoError(t, engine.Initialize(owner, genesis()))

	_, err := engine.Swap(center.SwapRequest{
		Call:        center.Call{Caller: buyer},
		MoneyMarket: "usdc",
		Side:        curve.Buy,
		Amount:      fixedpoint.MustParse[fixedpoint.ANA]("10"),
		Limit:       11_000_000,
	})
	require.NoError(t, err)
	_, err = engine.StakeANA(center.StakeRequest{Call: center.Call{Caller: buyer}, Amount: fixedpoint.MustParse[fixedpoint.ANA]("4")})
	require.NoError(t, err)

	reopened := NewStore(db)
	cfg, err := reopened.Config()
	require.NoError(t, err)
	require.Equal(t, owner, cfg.PolicyOwner)
	require.Equal(t, fixedpoint.MustParse[fixedpoint.Precise]("1.1"), cfg.CurrentPrice)

	supply, err := reopened.Supply(center.AssetANA)
	require.NoError(t, err)
	require.Equal(t, uint64(10_000_000), supply)

	treasury, err := reopened.Balance(center.TreasuryAccount("usdc"), center.MoneyAsset("usdc"))
	require.NoError(t, err)
	require.Equal(t, uint64(11_000_000), treasury)

	pool, err := reopened.Balance(center.AccountStakePoolANA, center.AssetANA)
	require.NoError(t, err)
	require.Equal(t, uint64(4_000_000), pool)

	rec, err := reopened.StakeRecord(buyer)
	require.NoError(t, err)
	require.Equal(t, fixedpoint.MustParse[fixedpoint.ANA]("4"), rec.Staked)

	hist, err := reopened.History(buyer)
	require.NoError(t, err)
	require.Equal(t, uint64(11), hist.NetSpentUSD)

	markets, err := reopened.MoneyMarkets()
	require.NoError(t, err)
	require.Len(t, markets, 2)
	require.Equal(t, "dai", markets[0].ID)
	require.Equal(t, uint32(18), markets[0].Decimals)

	meta, err := reopened.BondMeta("usdc")
	require.NoError(t, err)
	require.True(t, meta.Enabled)
	require.Equal(t, uint64(60), meta.VestingSeconds)
}

func TestStoreMissingRecords(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	cfg, err := store.Config()
	require.NoError(t, err)
	require.Nil(t, cfg)
	rec, err := store.StakeRecord(buyer)
	require.NoError(t, err)
	require.Nil(t, rec)
	contract, err := store.BondContract(center.BondKey{Bond: "usdc", Owner: buyer})
	require.NoError(t, err)
	require.Nil(t, contract)
	supply, err := store.Supply(center.AssetNIRV)
	require.NoError(t, err)
	require.Zero(t, supply)
}

func TestStoreRejectsInconsistentReceipt(t *testing.T) {
	db := storage.NewMemDB()
	store := NewStore(db)
	receipt := &center.Receipt{Transfers: []center.Transfer{{
		Kind:   center.KindBurn,
		Asset:  center.AssetANA,
		From:   center.UserAccount(buyer),
		Amount: fixedpoint.NewArbitrary(1, 6),
	}}}
	cfg := &center.Config{PolicyOwner: owner}
	err := store.Commit(&center.Update{Config: cfg}, receipt)
	require.Error(t, err)

	// The config staged alongside the receipt is not written.
	stored, err := store.Config()
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestStoreOnLevelDB(t *testing.T) {
	db, err := storage.NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	engine := newEngine(t, NewStore(db))
	require.NoError(t, engine.Initialize(owner, genesis()))
	_, err = engine.SetCommitment(center.CommitmentRequest{Call: center.Call{Caller: buyer}, TargetSpend: 500})
	require.NoError(t, err)

	c, err := NewStore(db).Commitment(buyer)
	require.NoError(t, err)
	require.Equal(t, uint64(500), c.TargetSpend)
	require.Equal(t, fixedpoint.MustParse[fixedpoint.Precise]("0.2"), c.RewardRate)

	escrow, err := NewStore(db).Balance(center.AccountCommitmentEscrow, center.MoneyAsset("usdc"))
	require.NoError(t, err)
	require.Equal(t, uint64(5_000_000), escrow)
}
