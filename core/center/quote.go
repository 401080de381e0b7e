package center

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	centererrors "nirvana/core/errors"
	"nirvana/native/bond"
	"nirvana/native/curve"
	"nirvana/native/fixedpoint"
	"nirvana/native/lending"
)

// Snapshot is a read-only view of the center.
type Snapshot struct {
	Config     Config
	PriceField curve.PriceField
	SupplyANA  fixedpoint.ANA
	StakedANA  fixedpoint.ANA
	StakedALMS fixedpoint.ALMS
	// Price is the curve price at the current supply.
	Price decimal.Decimal
}

// Snapshot loads the config, curve and supply totals.
func (e *Engine) Snapshot() (*Snapshot, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.state.Config()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, centererrors.ErrNotInitialized
	}
	field, err := e.priceField()
	if err != nil {
		return nil, err
	}
	supply, err := e.supplyANA()
	if err != nil {
		return nil, err
	}
	stakedANA, err := e.stakedANA()
	if err != nil {
		return nil, err
	}
	stakedALMS, err := e.stakedALMS()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Config:     *cfg,
		PriceField: *field,
		SupplyANA:  supply,
		StakedANA:  stakedANA,
		StakedALMS: stakedALMS,
		Price:      field.PriceForSupply(supply),
	}, nil
}

// QuoteSwap prices a swap at now without committing it.
func (e *Engine) QuoteSwap(moneyMarket string, side curve.Side, amount fixedpoint.ANA, now uint64) (SwapQuote, error) {
	if e == nil || e.state == nil {
		return SwapQuote{}, errNilState
	}
	cfg, err := e.state.Config()
	if err != nil {
		return SwapQuote{}, err
	}
	if cfg == nil {
		return SwapQuote{}, centererrors.ErrNotInitialized
	}
	mm, err := e.moneyMarket(moneyMarket, func(m *MoneyMarket) bool { return m.ForAMM })
	if err != nil {
		return SwapQuote{}, err
	}
	field, err := e.priceField()
	if err != nil {
		return SwapQuote{}, err
	}
	supply, err := e.supplyANA()
	if err != nil {
		return SwapQuote{}, err
	}
	return quoteSwap(cfg, field, mm, supply, side, amount, now)
}

// BondQuote is the current discount and price of a bond class.
type BondQuote struct {
	Discount decimal.Decimal
	Price    decimal.Decimal
	Meta     bond.Meta
}

// QuoteBond returns the current discount and purchase price of a bond class.
func (e *Engine) QuoteBond(moneyMarket string) (BondQuote, error) {
	if e == nil || e.state == nil {
		return BondQuote{}, errNilState
	}
	meta, err := e.bondMeta(normalizeID(moneyMarket))
	if err != nil {
		return BondQuote{}, err
	}
	field, err := e.priceField()
	if err != nil {
		return BondQuote{}, err
	}
	supply, err := e.supplyANA()
	if err != nil {
		return BondQuote{}, err
	}
	market := field.PriceForSupply(supply)
	floor := field.FloorPrice.Decimal()
	discount, err := bond.Discount(meta, market, floor)
	if err != nil {
		return BondQuote{}, err
	}
	price, err := bond.PurchasePrice(meta, market, floor)
	if err != nil {
		return BondQuote{}, err
	}
	return BondQuote{Discount: discount, Price: price, Meta: *meta}, nil
}

// Position is a participant's staking and borrowing view.
type Position struct {
	Staked        fixedpoint.ANA
	Borrowed      fixedpoint.NIRV
	BorrowLimit   fixedpoint.NIRV
	PendingReward fixedpoint.PrANA
	PendingFee    fixedpoint.PrANA
}

// QueryPosition returns the owner's position with rewards staged as they
// would be on the next operation. Nothing is written.
func (e *Engine) QueryPosition(owner common.Address) (Position, error) {
	if e == nil || e.state == nil {
		return Position{}, errNilState
	}
	cfg, err := e.state.Config()
	if err != nil {
		return Position{}, err
	}
	if cfg == nil {
		return Position{}, centererrors.ErrNotInitialized
	}
	field, err := e.priceField()
	if err != nil {
		return Position{}, err
	}
	rec, err := e.stakeRecord(owner)
	if err != nil {
		return Position{}, err
	}
	if _, err := lending.StageRewards(rec, cfg.RewardIndex, field.FloorPrice, cfg.Fees.Debt); err != nil {
		return Position{}, err
	}
	limit, err := lending.BorrowLimit(rec, field.FloorPrice)
	if err != nil {
		return Position{}, err
	}
	return Position{
		Staked:        rec.Staked,
		Borrowed:      rec.Borrowed,
		BorrowLimit:   limit,
		PendingReward: rec.StagedReward,
		PendingFee:    rec.StagedFee,
	}, nil
}

// PendingBond reports a bond slot and what it would release at now.
func (e *Engine) PendingBond(moneyMarket string, owner common.Address, slot uint32, now uint64) (*bond.Contract, fixedpoint.ANA, error) {
	if e == nil || e.state == nil {
		return nil, 0, errNilState
	}
	key := BondKey{Bond: normalizeID(moneyMarket), Owner: owner, Slot: slot}
	contract, err := e.bondContract(key)
	if err != nil {
		return nil, 0, err
	}
	left, err := contract.LeftToRedeem(now)
	if err != nil {
		return nil, 0, err
	}
	return contract, left, nil
}
