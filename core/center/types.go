package center

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nirvana/native/bond"
	"nirvana/native/bootstrap"
	"nirvana/native/commitment"
	"nirvana/native/curve"
	"nirvana/native/fees"
	"nirvana/native/fixedpoint"
	"nirvana/native/history"
	"nirvana/native/rewards"
)

// Config is the persisted center configuration and global ledger state.
type Config struct {
	PolicyOwner common.Address
	Fees        fees.Schedule
	// RewardRate is the daily prANA emission as a fraction of ANA supply.
	RewardRate            fixedpoint.Precise
	RewardIntervalSeconds uint64
	LastRewardTime        uint64
	// RewardIndex is prANA per staked ANA.
	RewardIndex fixedpoint.Precise
	// FeeIndices are fees per staked ALMS.
	FeeIndices   rewards.FeeIndices
	CurrentPrice fixedpoint.Precise
	Bootstrap    bootstrap.Params
	// CommitmentMarket is the money market commitment escrow is held in.
	CommitmentMarket string
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// MoneyMarket describes an external asset the center settles in.
type MoneyMarket struct {
	ID        string
	Decimals  uint32
	RFVFactor fixedpoint.Coarse
	ForAMM    bool
	ForPrANA  bool
	ForTrANA  bool
	Enabled   bool
}

func (m *MoneyMarket) Clone() *MoneyMarket {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// Asset names a token the receipt moves.
type Asset string

const (
	AssetANA   Asset = "ANA"
	AssetNIRV  Asset = "NIRV"
	AssetALMS  Asset = "ALMS"
	AssetPrANA Asset = "PRANA"
)

// MoneyAsset returns the asset name for a money market.
func MoneyAsset(id string) Asset {
	return Asset(strings.ToUpper(strings.TrimSpace(id)))
}

// IsProtocolToken reports whether the center tracks the asset's supply.
func (a Asset) IsProtocolToken() bool {
	switch a {
	case AssetANA, AssetNIRV, AssetALMS, AssetPrANA:
		return true
	}
	return false
}

// Account identifies the owner of a balance moved by a receipt. Participant
// accounts are hex addresses; protocol accounts carry a prefix.
type Account string

const (
	AccountFeeANA           Account = "fee:ana"
	AccountFeeNIRV          Account = "fee:nirv"
	AccountFeePrANA         Account = "fee:prana"
	AccountStakePoolANA     Account = "pool:ana"
	AccountStakePoolALMS    Account = "pool:alms"
	AccountBondEscrow       Account = "escrow:bond"
	AccountCommitmentEscrow Account = "escrow:commitment"
)

// TreasuryAccount is the treasury holding a money market's reserves.
func TreasuryAccount(moneyMarket string) Account {
	return Account("treasury:" + strings.ToLower(strings.TrimSpace(moneyMarket)))
}

// UserAccount is a participant's account.
func UserAccount(addr common.Address) Account {
	return Account(addr.Hex())
}

// IsProtocol reports whether the account is held by the center.
func (a Account) IsProtocol() bool {
	return strings.Contains(string(a), ":")
}

// TransferKind is the custody action a transfer requests.
type TransferKind string

const (
	KindMint     TransferKind = "mint"
	KindBurn     TransferKind = "burn"
	KindTransfer TransferKind = "transfer"
)

// Transfer is one custody instruction. Mints leave From empty and burns
// leave To empty.
type Transfer struct {
	Kind   TransferKind
	Asset  Asset
	From   Account
	To     Account
	Amount fixedpoint.Arbitrary
}

// Receipt is the outcome of a committed operation: the instructions the
// custody layer must execute.
type Receipt struct {
	ID        string
	Op        string
	Owner     common.Address
	Time      uint64
	Transfers []Transfer
}

func (r *Receipt) mint(asset Asset, to Account, amount fixedpoint.Arbitrary) {
	r.add(Transfer{Kind: KindMint, Asset: asset, To: to, Amount: amount})
}

func (r *Receipt) burn(asset Asset, from Account, amount fixedpoint.Arbitrary) {
	r.add(Transfer{Kind: KindBurn, Asset: asset, From: from, Amount: amount})
}

func (r *Receipt) transfer(asset Asset, from, to Account, amount fixedpoint.Arbitrary) {
	r.add(Transfer{Kind: KindTransfer, Asset: asset, From: from, To: to, Amount: amount})
}

func (r *Receipt) add(t Transfer) {
	if t.Amount.IsZero() {
		return
	}
	r.Transfers = append(r.Transfers, t)
}

// Token wraps a 6-decimal protocol token amount for a transfer.
func Token[T fixedpoint.Number](v T) fixedpoint.Arbitrary {
	return fixedpoint.NewArbitrary(uint64(v), uint32(fixedpoint.TokenScale))
}

// NamedBond pairs a bond class with its identifier.
type NamedBond struct {
	ID   string
	Meta bond.Meta
}

// Genesis is the initial state written by Initialize.
type Genesis struct {
	Config         Config
	PriceField     curve.PriceField
	MoneyMarkets   []MoneyMarket
	Bonds          []NamedBond
	CommitmentMeta commitment.Meta
}

// BondKey addresses a bond slot.
type BondKey struct {
	Bond  string
	Owner common.Address
	Slot  uint32
}

// Update is the full set of records an operation writes. Nil fields are
// left untouched. State implementations must apply an update atomically.
type Update struct {
	Owner          common.Address
	Config         *Config
	PriceField     *curve.PriceField
	MoneyMarkets   []*MoneyMarket
	BondMetas      map[string]*bond.Meta
	BondKey        BondKey
	BondContract   *bond.Contract
	StakeRecord    *rewards.StakeRecord
	FeeCollector   *rewards.FeeCollector
	Commitment     *commitment.Commitment
	CommitmentMeta *commitment.Meta
	History        *history.Personal
	GlobalHistory  *history.Global
}
