package events

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	TypeSwap             = "nirvana.swap"
	TypeBondPurchased    = "nirvana.bond.purchased"
	TypeBondRedeemed     = "nirvana.bond.redeemed"
	TypeStake            = "nirvana.stake"
	TypeLoan             = "nirvana.loan"
	TypeRewardDropped    = "nirvana.reward.dropped"
	TypeRewardClaimed    = "nirvana.reward.claimed"
	TypeFeesClaimed      = "nirvana.fees.claimed"
	TypePrANARealized    = "nirvana.prana.realized"
	TypeBuyback          = "nirvana.buyback"
	TypeCommitmentSet    = "nirvana.commitment.set"
	TypeLBPClaimed       = "nirvana.lbp.claimed"
	TypeBootstrapStarted = "nirvana.bootstrap.started"
)

// Swap is emitted for an instant buy or sell against the curve.
type Swap struct {
	Owner       common.Address
	Side        string
	MoneyMarket string
	ANA         string
	Fee         string
	Cost        string
	Price       string
}

func (Swap) EventType() string { return TypeSwap }

func (e Swap) Event() *Record {
	return &Record{Type: TypeSwap, Attributes: map[string]string{
		"owner":       ownerHex(e.Owner),
		"side":        strings.ToLower(e.Side),
		"moneyMarket": e.MoneyMarket,
		"ana":         e.ANA,
		"fee":         e.Fee,
		"cost":        e.Cost,
		"price":       e.Price,
	}}
}

// BondPurchased is emitted when a bond slot is filled.
type BondPurchased struct {
	Owner   common.Address
	Bond    string
	Slot    uint32
	Payment string
	Price   string
	ANA     string
	Fee     string
	EndTime uint64
}

func (BondPurchased) EventType() string { return TypeBondPurchased }

func (e BondPurchased) Event() *Record {
	return &Record{Type: TypeBondPurchased, Attributes: map[string]string{
		"owner":   ownerHex(e.Owner),
		"bond":    e.Bond,
		"slot":    strconv.FormatUint(uint64(e.Slot), 10),
		"payment": e.Payment,
		"price":   e.Price,
		"ana":     e.ANA,
		"fee":     e.Fee,
		"endTime": strconv.FormatUint(e.EndTime, 10),
	}}
}

// BondRedeemed is emitted for every redemption that pays out.
type BondRedeemed struct {
	Owner  common.Address
	Bond   string
	Slot   uint32
	Amount string
	Closed bool
}

func (BondRedeemed) EventType() string { return TypeBondRedeemed }

func (e BondRedeemed) Event() *Record {
	return &Record{Type: TypeBondRedeemed, Attributes: map[string]string{
		"owner":  ownerHex(e.Owner),
		"bond":   e.Bond,
		"slot":   strconv.FormatUint(uint64(e.Slot), 10),
		"amount": e.Amount,
		"closed": strconv.FormatBool(e.Closed),
	}}
}

// Stake is emitted when ANA or ALMS is staked or unstaked.
type Stake struct {
	Owner  common.Address
	Asset  string
	Action string
	Amount string
	Fee    string
}

func (Stake) EventType() string { return TypeStake }

func (e Stake) Event() *Record {
	return &Record{Type: TypeStake, Attributes: map[string]string{
		"owner":  ownerHex(e.Owner),
		"asset":  normalizeAsset(e.Asset),
		"action": e.Action,
		"amount": e.Amount,
		"fee":    e.Fee,
	}}
}

// Loan is emitted when NIRV is borrowed or repaid.
type Loan struct {
	Owner    common.Address
	Action   string
	Amount   string
	Fee      string
	Borrowed string
}

func (Loan) EventType() string { return TypeLoan }

func (e Loan) Event() *Record {
	return &Record{Type: TypeLoan, Attributes: map[string]string{
		"owner":    ownerHex(e.Owner),
		"action":   e.Action,
		"amount":   e.Amount,
		"fee":      e.Fee,
		"borrowed": e.Borrowed,
	}}
}

// RewardDropped is emitted by each reward crank.
type RewardDropped struct {
	Amount string
	Index  string
	Time   uint64
}

func (RewardDropped) EventType() string { return TypeRewardDropped }

func (e RewardDropped) Event() *Record {
	return &Record{Type: TypeRewardDropped, Attributes: map[string]string{
		"amount": e.Amount,
		"index":  e.Index,
		"time":   strconv.FormatUint(e.Time, 10),
	}}
}

// RewardClaimed is emitted when staged prANA is minted to its owner.
type RewardClaimed struct {
	Owner  common.Address
	Reward string
	Fee    string
}

func (RewardClaimed) EventType() string { return TypeRewardClaimed }

func (e RewardClaimed) Event() *Record {
	return &Record{Type: TypeRewardClaimed, Attributes: map[string]string{
		"owner":  ownerHex(e.Owner),
		"reward": e.Reward,
		"fee":    e.Fee,
	}}
}

// FeesClaimed is emitted when an ALMS staker withdraws staged fees.
type FeesClaimed struct {
	Owner common.Address
	ANA   string
	NIRV  string
	PrANA string
}

func (FeesClaimed) EventType() string { return TypeFeesClaimed }

func (e FeesClaimed) Event() *Record {
	return &Record{Type: TypeFeesClaimed, Attributes: map[string]string{
		"owner": ownerHex(e.Owner),
		"ana":   e.ANA,
		"nirv":  e.NIRV,
		"prana": e.PrANA,
	}}
}

// PrANARealized is emitted when prANA is converted to ANA at the floor.
type PrANARealized struct {
	Owner       common.Address
	MoneyMarket string
	Amount      string
	Payment     string
}

func (PrANARealized) EventType() string { return TypePrANARealized }

func (e PrANARealized) Event() *Record {
	return &Record{Type: TypePrANARealized, Attributes: map[string]string{
		"owner":       ownerHex(e.Owner),
		"moneyMarket": e.MoneyMarket,
		"amount":      e.Amount,
		"payment":     e.Payment,
	}}
}

// Buyback is emitted when ANA is redeemed against the treasury at the floor.
type Buyback struct {
	Owner       common.Address
	MoneyMarket string
	Amount      string
	Payout      string
}

func (Buyback) EventType() string { return TypeBuyback }

func (e Buyback) Event() *Record {
	return &Record{Type: TypeBuyback, Attributes: map[string]string{
		"owner":       ownerHex(e.Owner),
		"moneyMarket": e.MoneyMarket,
		"amount":      e.Amount,
		"payout":      e.Payout,
	}}
}

// CommitmentSet is emitted when a bootstrap commitment changes.
type CommitmentSet struct {
	Owner      common.Address
	Target     uint64
	RewardRate string
	Escrow     string
	Increase   bool
}

func (CommitmentSet) EventType() string { return TypeCommitmentSet }

func (e CommitmentSet) Event() *Record {
	return &Record{Type: TypeCommitmentSet, Attributes: map[string]string{
		"owner":      ownerHex(e.Owner),
		"target":     strconv.FormatUint(e.Target, 10),
		"rewardRate": e.RewardRate,
		"escrow":     e.Escrow,
		"increase":   strconv.FormatBool(e.Increase),
	}}
}

// LBPClaimed is emitted when a commitment is settled after the bootstrap.
type LBPClaimed struct {
	Owner    common.Address
	Spent    uint64
	AvgPrice string
	Reward   string
}

func (LBPClaimed) EventType() string { return TypeLBPClaimed }

func (e LBPClaimed) Event() *Record {
	return &Record{Type: TypeLBPClaimed, Attributes: map[string]string{
		"owner":    ownerHex(e.Owner),
		"spent":    strconv.FormatUint(e.Spent, 10),
		"avgPrice": e.AvgPrice,
		"reward":   e.Reward,
	}}
}

// BootstrapStarted is emitted when a bootstrap window opens.
type BootstrapStarted struct {
	StartTime uint64
	EndTime   uint64
	Offset    string
}

func (BootstrapStarted) EventType() string { return TypeBootstrapStarted }

func (e BootstrapStarted) Event() *Record {
	return &Record{Type: TypeBootstrapStarted, Attributes: map[string]string{
		"startTime": strconv.FormatUint(e.StartTime, 10),
		"endTime":   strconv.FormatUint(e.EndTime, 10),
		"offset":    e.Offset,
	}}
}

func ownerHex(addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	return addr.Hex()
}

func normalizeAsset(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}
