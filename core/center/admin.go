package center

import (
	centererrors "nirvana/core/errors"
	"nirvana/native/bond"
	nativecommon "nirvana/native/common"
	"nirvana/native/curve"
	"nirvana/native/fees"
	"nirvana/native/fixedpoint"
)

// RewardRateRequest changes the emission schedule.
type RewardRateRequest struct {
	Call
	Rate            fixedpoint.Precise
	IntervalSeconds uint64
}

// BondRequest creates or replaces the bond class of a money market. The
// outstanding amount and purchase total of an existing class are kept.
type BondRequest struct {
	Call
	MoneyMarket string
	Meta        bond.Meta
}

// owner runs the shared checks for policy-owner operations.
func (e *Engine) owner(call Call) (*Config, uint64, error) {
	cfg, now, err := e.begin(nativecommon.ModuleCenter, call)
	if err != nil {
		return nil, 0, err
	}
	if call.Caller != cfg.PolicyOwner {
		return nil, 0, centererrors.ErrUnauthorized
	}
	return cfg, now, nil
}

// SetFees replaces the fee schedule.
func (e *Engine) SetFees(call Call, schedule fees.Schedule) (err error) {
	defer func() { e.observe(opAdmin, err) }()
	cfg, _, err := e.owner(call)
	if err != nil {
		return err
	}
	if err := schedule.Validate(); err != nil {
		return err
	}
	cfg.Fees = schedule
	return e.commit(&Update{Owner: call.Caller, Config: cfg}, nil)
}

// SetRewardRate replaces the emission rate and interval.
func (e *Engine) SetRewardRate(req RewardRateRequest) (err error) {
	defer func() { e.observe(opAdmin, err) }()
	cfg, _, err := e.owner(req.Call)
	if err != nil {
		return err
	}
	cfg.RewardRate = req.Rate
	if req.IntervalSeconds != 0 {
		cfg.RewardIntervalSeconds = req.IntervalSeconds
	}
	return e.commit(&Update{Owner: req.Caller, Config: cfg}, nil)
}

// SetMoneyMarket creates or replaces a money market.
func (e *Engine) SetMoneyMarket(call Call, mm MoneyMarket) (err error) {
	defer func() { e.observe(opAdmin, err) }()
	if _, _, err := e.owner(call); err != nil {
		return err
	}
	mm.ID = normalizeID(mm.ID)
	if mm.ID == "" {
		return centererrors.ErrMoneyMarketNotFound
	}
	return e.commit(&Update{Owner: call.Caller, MoneyMarkets: []*MoneyMarket{&mm}}, nil)
}

// SetBond creates or reconfigures the bond class of a money market.
func (e *Engine) SetBond(req BondRequest) (err error) {
	defer func() { e.observe(opAdmin, err) }()
	if _, _, err := e.owner(req.Call); err != nil {
		return err
	}
	id := normalizeID(req.MoneyMarket)
	mm, err := e.state.MoneyMarket(id)
	if err != nil {
		return err
	}
	if mm == nil {
		return centererrors.ErrMoneyMarketNotFound
	}
	meta := req.Meta.Clone()
	existing, err := e.state.BondMeta(id)
	if err != nil {
		return err
	}
	if existing != nil {
		meta.Outstanding = existing.Outstanding
		meta.TotalBought = existing.TotalBought
	}
	return e.commit(&Update{Owner: req.Caller, BondMetas: map[string]*bond.Meta{id: meta}}, nil)
}

// SetPriceField replaces the curve parameters and reprices the current
// supply. The floor never moves down since open loans are sized against it.
func (e *Engine) SetPriceField(call Call, field curve.PriceField) (err error) {
	defer func() { e.observe(opAdmin, err) }()
	cfg, _, err := e.owner(call)
	if err != nil {
		return err
	}
	if err := field.Validate(); err != nil {
		return err
	}
	current, err := e.priceField()
	if err != nil {
		return err
	}
	if field.FloorPrice < current.FloorPrice {
		return centererrors.ErrFloorPriceLowered
	}
	supply, err := e.supplyANA()
	if err != nil {
		return err
	}
	price, err := fixedpoint.FromDecimal[fixedpoint.Precise](field.PriceForSupply(supply), fixedpoint.TowardZero)
	if err != nil {
		return err
	}
	cfg.CurrentPrice = price
	return e.commit(&Update{Owner: call.Caller, Config: cfg, PriceField: &field}, nil)
}
