package center

import (
	centererrors "nirvana/core/errors"
	"nirvana/core/events"
	"nirvana/native/bond"
	nativecommon "nirvana/native/common"
	"nirvana/native/fees"
	"nirvana/native/fixedpoint"
)

// PurchaseBondRequest buys trANA from the bond class of a money market.
// Payment and MaxPrice are money market base units.
type PurchaseBondRequest struct {
	Call
	MoneyMarket string
	Slot        uint32
	Payment     uint64
	MaxPrice    uint64
}

// RedeemBondRequest claims the vested part of a bond slot.
type RedeemBondRequest struct {
	Call
	MoneyMarket string
	Slot        uint32
}

func (e *Engine) bondMeta(id string) (*bond.Meta, error) {
	meta, err := e.state.BondMeta(id)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, centererrors.ErrBondNotFound
	}
	return meta.Clone(), nil
}

func (e *Engine) bondContract(key BondKey) (*bond.Contract, error) {
	contract, err := e.state.BondContract(key)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return bond.NewSlot(), nil
	}
	return contract.Clone(), nil
}

// PurchaseBond prices the payment at the discounted bond price and opens a
// vesting contract in the slot. The ANA is minted into bond escrow; the
// curve is shifted so the new supply does not move the price.
func (e *Engine) PurchaseBond(req PurchaseBondRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opPurchaseBond, err) }()
	cfg, now, err := e.begin(nativecommon.ModuleBond, req.Call)
	if err != nil {
		return nil, err
	}
	if req.Payment == 0 {
		return nil, centererrors.ErrInvalidAmount
	}
	mm, err := e.moneyMarket(req.MoneyMarket, func(m *MoneyMarket) bool { return m.ForTrANA })
	if err != nil {
		return nil, err
	}
	meta, err := e.bondMeta(mm.ID)
	if err != nil {
		return nil, err
	}
	key := BondKey{Bond: mm.ID, Owner: req.Caller, Slot: req.Slot}
	contract, err := e.bondContract(key)
	if err != nil {
		return nil, err
	}
	if !contract.Available {
		return nil, bond.ErrUnavailableBondSlot
	}
	field, err := e.priceField()
	if err != nil {
		return nil, err
	}
	supply, err := e.supplyANA()
	if err != nil {
		return nil, err
	}
	payment := fixedpoint.NewArbitrary(req.Payment, mm.Decimals)
	quote, err := bond.QuotePurchase(
		meta,
		field.PriceForSupply(supply),
		field.FloorPrice.Decimal(),
		payment,
		fixedpoint.NewArbitrary(req.MaxPrice, mm.Decimals),
	)
	if err != nil {
		return nil, err
	}
	if quote.ANABought == 0 {
		return nil, centererrors.ErrInvalidAmount
	}
	almsStaked, err := e.stakedALMS()
	if err != nil {
		return nil, err
	}
	split, err := fees.Collect(quote.ANABought, cfg.Fees.TrANA, almsStaked, &cfg.FeeIndices.ANA)
	if err != nil {
		return nil, err
	}
	if err := field.IncreaseSupplyWithNoPriceImpact(quote.ANABought); err != nil {
		return nil, err
	}
	if err := meta.AddOutstanding(split.Net); err != nil {
		return nil, err
	}
	if meta.TotalBought, err = meta.TotalBought.Add(payment); err != nil {
		return nil, err
	}
	price, err := fixedpoint.ArbitraryFromDecimal(quote.Price, mm.Decimals, fixedpoint.AwayFromZero)
	if err != nil {
		return nil, err
	}
	if err := contract.Open(split.Net, price, now, meta.VestingSeconds); err != nil {
		return nil, err
	}

	receipt = newReceipt(opPurchaseBond, req.Caller, now)
	receipt.transfer(MoneyAsset(mm.ID), UserAccount(req.Caller), TreasuryAccount(mm.ID), payment)
	receipt.mint(AssetANA, AccountBondEscrow, Token(split.Net))
	receipt.mint(AssetANA, AccountFeeANA, Token(split.Fee))
	update := &Update{
		Owner:        req.Caller,
		Config:       cfg,
		PriceField:   field,
		BondMetas:    map[string]*bond.Meta{mm.ID: meta},
		BondKey:      key,
		BondContract: contract,
	}
	evt := events.BondPurchased{
		Owner:   req.Caller,
		Bond:    mm.ID,
		Payment: payment.String(),
		Price:   price.String(),
		ANA:     split.Net.String(),
		Fee:     split.Fee.String(),
	}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	e.fee(string(fees.KindTrANA), Token(split.Fee))
	return receipt, nil
}

// RedeemBond releases the ANA vested since the last redemption. A slot with
// nothing newly vested commits an empty receipt.
func (e *Engine) RedeemBond(req RedeemBondRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opRedeemBond, err) }()
	_, now, err := e.begin(nativecommon.ModuleBond, req.Call)
	if err != nil {
		return nil, err
	}
	id := normalizeID(req.MoneyMarket)
	meta, err := e.bondMeta(id)
	if err != nil {
		return nil, err
	}
	key := BondKey{Bond: id, Owner: req.Caller, Slot: req.Slot}
	contract, err := e.bondContract(key)
	if err != nil {
		return nil, err
	}
	if contract.Available {
		return nil, bond.ErrUnusedBondRedeemed
	}
	left, err := contract.LeftToRedeem(now)
	if err != nil {
		return nil, err
	}
	if err := contract.UpdateRedeemed(left); err != nil {
		return nil, err
	}
	if err := meta.SubOutstanding(left); err != nil {
		return nil, err
	}
	receipt = newReceipt(opRedeemBond, req.Caller, now)
	receipt.transfer(AssetANA, AccountBondEscrow, UserAccount(req.Caller), Token(left))
	update := &Update{
		Owner:        req.Caller,
		BondMetas:    map[string]*bond.Meta{id: meta},
		BondKey:      key,
		BondContract: contract,
	}
	evt := events.BondRedeemed{
		Owner:  req.Caller,
		Bond:   id,
		Amount: left.String(),
		Closed: contract.Available,
	}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}
