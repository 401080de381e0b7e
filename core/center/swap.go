package center

import (
	"github.com/shopspring/decimal"

	centererrors "nirvana/core/errors"
	"nirvana/core/events"
	"nirvana/native/curve"
	nativecommon "nirvana/native/common"
	"nirvana/native/fees"
	"nirvana/native/fixedpoint"
	"nirvana/native/rewards"
)

// SwapRequest trades ANA against a money market on the curve.
type SwapRequest struct {
	Call
	MoneyMarket string
	Side        curve.Side
	Amount      fixedpoint.ANA
	// Limit is the most a buyer pays or the least a seller accepts, in
	// money market base units.
	Limit uint64
}

// SwapQuote is the priced outcome of a swap.
type SwapQuote struct {
	Fee fixedpoint.ANA
	// Settled is the ANA that moves supply: the gross amount on a buy and
	// the amount less fee on a sell.
	Settled fixedpoint.ANA
	Cost    fixedpoint.Arbitrary
	Offset  decimal.Decimal
	Kind    fees.Kind
}

func quoteSwap(
	cfg *Config,
	field *curve.PriceField,
	mm *MoneyMarket,
	supply fixedpoint.ANA,
	side curve.Side,
	amount fixedpoint.ANA,
	now uint64,
) (SwapQuote, error) {
	kind := fees.KindInstantBuy
	if side == curve.Sell {
		kind = fees.KindSell
	}
	split, err := fees.Apply(amount, cfg.Fees.Rate(kind))
	if err != nil {
		return SwapQuote{}, err
	}
	settled := amount
	if side == curve.Sell {
		settled = split.Net
	}
	offset := fixedpoint.Round(cfg.Bootstrap.CurrentOffset(now), int32(mm.Decimals), fixedpoint.HalfAwayFromZero)
	cost, err := curve.CalcTotalCostForAmount(supply, settled, mm.RFVFactor, field, side, offset, mm.Decimals)
	if err != nil {
		return SwapQuote{}, err
	}
	return SwapQuote{Fee: split.Fee, Settled: settled, Cost: cost, Offset: offset, Kind: kind}, nil
}

// roundDollars converts a money amount to whole dollars, half away from zero.
func roundDollars(cost fixedpoint.Arbitrary) uint64 {
	return fixedpoint.Round(cost.Decimal(), 0, fixedpoint.HalfAwayFromZero).BigInt().Uint64()
}

// Swap buys or sells ANA at the curve price for the post-trade supply. The
// fee is taken in ANA and accrues to ALMS stakers.
func (e *Engine) Swap(req SwapRequest) (receipt *Receipt, err error) {
	defer func() { e.observe(opSwap, err) }()
	cfg, now, err := e.begin(nativecommon.ModuleSwap, req.Call)
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
	supply, err := e.supplyANA()
	if err != nil {
		return nil, err
	}
	almsStaked, err := e.stakedALMS()
	if err != nil {
		return nil, err
	}
	hist, err := e.personalHistory(req.Caller)
	if err != nil {
		return nil, err
	}
	global, err := e.globalHistory()
	if err != nil {
		return nil, err
	}

	quote, err := quoteSwap(cfg, field, mm, supply, req.Side, req.Amount, now)
	if err != nil {
		return nil, err
	}
	if err := rewards.Accrue(&cfg.FeeIndices.ANA, quote.Fee, almsStaked); err != nil {
		return nil, err
	}
	dollars := roundDollars(quote.Cost)
	bootstrapping := cfg.Bootstrap.IsBootstrapping(now)
	target, err := curve.TargetSupply(supply, quote.Settled, req.Side)
	if err != nil {
		return nil, err
	}

	user := UserAccount(req.Caller)
	treasury := TreasuryAccount(mm.ID)
	receipt = newReceipt(opSwap, req.Caller, now)
	switch req.Side {
	case curve.Buy:
		if req.Limit < quote.Cost.Val {
			return nil, centererrors.ErrSlippageExceededForBuy
		}
		if bootstrapping {
			err = hist.BuyDuringBootstrap(dollars, req.Amount)
		} else {
			err = hist.Buy(dollars)
		}
		if err != nil {
			return nil, err
		}
		if err := global.BuyANA(dollars, req.Amount, supply); err != nil {
			return nil, err
		}
		receipt.transfer(MoneyAsset(mm.ID), user, treasury, quote.Cost)
		receipt.mint(AssetANA, user, Token(req.Amount-quote.Fee))
		receipt.mint(AssetANA, AccountFeeANA, Token(quote.Fee))
	case curve.Sell:
		if req.Limit > quote.Cost.Val {
			return nil, centererrors.ErrSlippageExceededForSell
		}
		if bootstrapping {
			err = hist.SellDuringBootstrap(dollars, quote.Settled)
		} else {
			err = hist.Sell(dollars)
		}
		if err != nil {
			return nil, err
		}
		if err := global.SellANA(dollars, quote.Settled); err != nil {
			return nil, err
		}
		field.ResetSlippageStartPointIfNeeded(target)
		receipt.burn(AssetANA, user, Token(quote.Settled))
		receipt.transfer(AssetANA, user, AccountFeeANA, Token(quote.Fee))
		receipt.transfer(MoneyAsset(mm.ID), treasury, user, quote.Cost)
	default:
		return nil, centererrors.ErrInvalidAmount
	}

	price, err := fixedpoint.FromDecimal[fixedpoint.Precise](field.PriceForSupply(target), fixedpoint.TowardZero)
	if err != nil {
		return nil, err
	}
	cfg.CurrentPrice = price

	update := &Update{
		Owner:         req.Caller,
		Config:        cfg,
		PriceField:    field,
		History:       hist,
		GlobalHistory: global,
	}
	evt := events.Swap{
		Owner:       req.Caller,
		Side:        req.Side.String(),
		MoneyMarket: mm.ID,
		ANA:         req.Amount.String(),
		Fee:         quote.Fee.String(),
		Cost:        quote.Cost.String(),
		Price:       price.String(),
	}
	if err := e.commit(update, receipt, evt); err != nil {
		return nil, err
	}
	e.fee(string(quote.Kind), Token(quote.Fee))
	e.metrics.SetSupply(string(AssetANA), fixedpoint.Decimal(target).InexactFloat64())
	return receipt, nil
}
