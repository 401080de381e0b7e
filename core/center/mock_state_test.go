package center

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nirvana/native/bond"
	"nirvana/native/commitment"
	"nirvana/native/curve"
	"nirvana/native/fixedpoint"
	"nirvana/native/history"
	"nirvana/native/rewards"
)

type mockEngineState struct {
	config         *Config
	field          *curve.PriceField
	markets        map[string]*MoneyMarket
	bonds          map[string]*bond.Meta
	contracts      map[BondKey]*bond.Contract
	stakes         map[common.Address]*rewards.StakeRecord
	collectors     map[common.Address]*rewards.FeeCollector
	commitments    map[common.Address]*commitment.Commitment
	commitmentMeta *commitment.Meta
	histories      map[common.Address]*history.Personal
	global         *history.Global
	supplies       map[Asset]uint64
	balances       map[balanceKey]uint64
	receipts       []*Receipt
	commits        int
}

func newMockEngineState() *mockEngineState {
	return &mockEngineState{
		markets:     make(map[string]*MoneyMarket),
		bonds:       make(map[string]*bond.Meta),
		contracts:   make(map[BondKey]*bond.Contract),
		stakes:      make(map[common.Address]*rewards.StakeRecord),
		collectors:  make(map[common.Address]*rewards.FeeCollector),
		commitments: make(map[common.Address]*commitment.Commitment),
		histories:   make(map[common.Address]*history.Personal),
		supplies:    make(map[Asset]uint64),
		balances:    make(map[balanceKey]uint64),
	}
}

func (m *mockEngineState) Config() (*Config, error)               { return m.config.Clone(), nil }
func (m *mockEngineState) PriceField() (*curve.PriceField, error) { return m.field.Clone(), nil }
func (m *mockEngineState) MoneyMarket(id string) (*MoneyMarket, error) {
	return m.markets[id].Clone(), nil
}
func (m *mockEngineState) BondMeta(id string) (*bond.Meta, error) { return m.bonds[id].Clone(), nil }
func (m *mockEngineState) BondContract(key BondKey) (*bond.Contract, error) {
	return m.contracts[key].Clone(), nil
}
func (m *mockEngineState) StakeRecord(owner common.Address) (*rewards.StakeRecord, error) {
	return m.stakes[owner].Clone(), nil
}
func (m *mockEngineState) FeeCollector(owner common.Address) (*rewards.FeeCollector, error) {
	return m.collectors[owner].Clone(), nil
}
func (m *mockEngineState) Commitment(owner common.Address) (*commitment.Commitment, error) {
	return m.commitments[owner].Clone(), nil
}
func (m *mockEngineState) CommitmentMeta() (*commitment.Meta, error) {
	return m.commitmentMeta.Clone(), nil
}
func (m *mockEngineState) History(owner common.Address) (*history.Personal, error) {
	return m.histories[owner].Clone(), nil
}
func (m *mockEngineState) GlobalHistory() (*history.Global, error) { return m.global.Clone(), nil }
func (m *mockEngineState) Supply(asset Asset) (uint64, error)      { return m.supplies[asset], nil }
func (m *mockEngineState) SetSupply(asset Asset, v uint64) error {
	m.supplies[asset] = v
	return nil
}
func (m *mockEngineState) Balance(account Account, asset Asset) (uint64, error) {
	return m.balances[balanceKey{account: account, asset: asset}], nil
}
func (m *mockEngineState) SetBalance(account Account, asset Asset, v uint64) error {
	m.balances[balanceKey{account: account, asset: asset}] = v
	return nil
}

func (m *mockEngineState) Commit(update *Update, receipt *Receipt) error {
	if err := ApplyReceipt(m, receipt); err != nil {
		return err
	}
	if update.Config != nil {
		m.config = update.Config.Clone()
	}
	if update.PriceField != nil {
		m.field = update.PriceField.Clone()
	}
	for _, mm := range update.MoneyMarkets {
		m.markets[mm.ID] = mm.Clone()
	}
	for id, meta := range update.BondMetas {
		m.bonds[id] = meta.Clone()
	}
	if update.BondContract != nil {
		m.contracts[update.BondKey] = update.BondContract.Clone()
	}
	if update.StakeRecord != nil {
		m.stakes[update.Owner] = update.StakeRecord.Clone()
	}
	if update.FeeCollector != nil {
		m.collectors[update.Owner] = update.FeeCollector.Clone()
	}
	if update.Commitment != nil {
		m.commitments[update.Owner] = update.Commitment.Clone()
	}
	if update.CommitmentMeta != nil {
		m.commitmentMeta = update.CommitmentMeta.Clone()
	}
	if update.History != nil {
		m.histories[update.Owner] = update.History.Clone()
	}
	if update.GlobalHistory != nil {
		m.global = update.GlobalHistory.Clone()
	}
	if receipt != nil {
		m.receipts = append(m.receipts, receipt)
	}
	m.commits++
	return nil
}

func (m *mockEngineState) balance(account Account, asset Asset) uint64 {
	return m.balances[balanceKey{account: account, asset: asset}]
}

const testNow = 1_700_000_000

var (
	policyOwner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob         = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func ana(s string) fixedpoint.ANA         { return fixedpoint.MustParse[fixedpoint.ANA](s) }
func nirv(s string) fixedpoint.NIRV       { return fixedpoint.MustParse[fixedpoint.NIRV](s) }
func alms(s string) fixedpoint.ALMS       { return fixedpoint.MustParse[fixedpoint.ALMS](s) }
func prana(s string) fixedpoint.PrANA     { return fixedpoint.MustParse[fixedpoint.PrANA](s) }
func precise(s string) fixedpoint.Precise { return fixedpoint.MustParse[fixedpoint.Precise](s) }
func coarse(s string) fixedpoint.Coarse   { return fixedpoint.MustParse[fixedpoint.Coarse](s) }

// testGenesis prices ANA at 1 + supply/100 up to a supply of 100.
func testGenesis() Genesis {
	return Genesis{
		Config: Config{
			Fees: feesSchedule(),
			// 1% of supply per day.
			RewardRate:            precise("0.01"),
			RewardIntervalSeconds: 86_400,
			Bootstrap:             bootstrapParams(),
			CommitmentMarket:      "USDC",
		},
		PriceField: curve.PriceField{
			RampWidth:  ana("100"),
			RampHeight: precise("1"),
			MainSlope:  precise("0.01"),
			FloorPrice: precise("1"),
		},
		MoneyMarkets: []MoneyMarket{{
			ID:        "USDC",
			Decimals:  6,
			RFVFactor: coarse("1"),
			ForAMM:    true,
			ForPrANA:  true,
			ForTrANA:  true,
			Enabled:   true,
		}},
		Bonds: []NamedBond{{
			ID: "usdc",
			Meta: bond.Meta{
				Enabled:          true,
				MaxDiscountRatio: precise("0.1"),
				VestingSeconds:   1_000,
			},
		}},
		CommitmentMeta: commitment.Meta{
			StartTime:      testNow - 100,
			EarlyBirdEnd:   testNow + 100,
			EndTime:        testNow + 1_000,
			EscrowDecimals: 6,
		},
	}
}

type testClock struct{ now uint64 }

func (c *testClock) Now() time.Time { return time.Unix(int64(c.now), 0) }

func newTestEngine(tb interface{ Fatalf(string, ...any) }) (*Engine, *mockEngineState, *testClock) {
	state := newMockEngineState()
	clock := &testClock{now: testNow}
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(clock.Now)
	if err := engine.Initialize(policyOwner, testGenesis()); err != nil {
		tb.Fatalf("initialize: %v", err)
	}
	return engine, state, clock
}
