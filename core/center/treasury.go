package center

import (
	centererrors "nirvana/core/errors"
	"nirvana/core/events"
	nativecommon "nirvana/native/common"
	"nirvana/native/fixedpoint"
)

// RealizeRequest exercises prANA at the floor price.
type RealizeRequest struct {
	Call
	MoneyMarket string
	Amount      fixedpoint.PrANA
}

// BuybackRequest sells ANA back to the treasury at the floor price.
type BuybackRequest struct {
	Call
	MoneyMarket string
	Amount      fixedpoint.ANA
}

// RealizePrANA burns prANA and mints the same amount of ANA against a
// payment of amount×floor, rounded up to the money market's decimals. The
// curve is shifted so the new supply does not move the price.
func (e *Engine) RealizePrANA(req RealizeRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opRealizePrANA, err) }()
	cfg, now, err := e.begin(nativecommon.ModuleRewards, req.Call)
	if err != nil {
		return nil, err
	}
	if req.Amount == 0 {
		return nil, centererrors.ErrInvalidAmount
	}
	mm, err := e.moneyMarket(req.MoneyMarket, func(m *MoneyMarket) bool { return m.ForPrANA })
	if err != nil {
		return nil, err
	}
	field, err := e.priceField()
	if err != nil {
		return nil, err
	}
	value := fixedpoint.Decimal(req.Amount).Mul(field.FloorPrice.Decimal())
	payment, err := fixedpoint.ArbitraryFromDecimal(value, mm.Decimals, fixedpoint.AwayFromZero)
	if err != nil {
		return nil, err
	}
	minted := fixedpoint.ANA(req.Amount)
	if err := field.IncreaseSupplyWithNoPriceImpact(minted); err != nil {
		return nil, err
	}
	global, err := e.globalHistory()
	if err != nil {
		return nil, err
	}
	if err := global.ExecutePrANA(req.Amount); err != nil {
		return nil, err
	}
	user := UserAccount(req.Caller)
	receipt = newReceipt(opRealizePrANA, req.Caller, now)
	receipt.burn(AssetPrANA, user, Token(req.Amount))
	receipt.transfer(MoneyAsset(mm.ID), user, TreasuryAccount(mm.ID), payment)
	receipt.mint(AssetANA, user, Token(minted))
	update := &Update{
		Owner:         req.Caller,
		Config:        cfg,
		PriceField:    field,
		GlobalHistory: global,
	}
	evt := events.PrANARealized{
		Owner:       req.Caller,
		MoneyMarket: mm.ID,
		Amount:      req.Amount.String(),
		Payment:     payment.String(),
	}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// Buyback burns ANA and pays amount×floor, rounded down, from the treasury.
// The curve is left as is.
func (e *Engine) Buyback(req BuybackRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opBuyback, err) }()
	_, now, err := e.begin(nativecommon.ModuleSwap, req.Call)
	if err != nil {
		return nil, err
	}
	if req.Amount == 0 {
		return nil, centererrors.ErrInvalidAmount
	}
	mm, err := e.moneyMarket(req.MoneyMarket, func(m *MoneyMarket) bool { return m.ForAMM })
	if err != nil {
		return nil, err
	}
	field, err := e.priceField()
	if err != nil {
		return nil, err
	}
	value := req.Amount.Decimal().Mul(field.FloorPrice.Decimal())
	payout, err := fixedpoint.ArbitraryFromDecimal(value, mm.Decimals, fixedpoint.TowardZero)
	if err != nil {
		return nil, err
	}
	asset := MoneyAsset(mm.ID)
	treasury := TreasuryAccount(mm.ID)
	reserves, err := e.state.Balance(treasury, asset)
	if err != nil {
		return nil, err
	}
	if payout.Val > reserves {
		return nil, centererrors.ErrInsufficientTreasury
	}
	user := UserAccount(req.Caller)
	receipt = newReceipt(opBuyback, req.Caller, now)
	receipt.burn(AssetANA, user, Token(req.Amount))
	receipt.transfer(asset, treasury, user, payout)
	evt := events.Buyback{
		Owner:       req.Caller,
		MoneyMarket: mm.ID,
		Amount:      req.Amount.String(),
		Payout:      payout.String(),
	}
	if err := e.commit(&Update{Owner: req.Caller}, receipt, evt); err != nil {
		return nil, err
	}
	return receipt, nil
}
