package history

import (
	"github.com/shopspring/decimal"

	"nirvana/native/fixedpoint"
)

// Personal aggregates one participant's trading and borrowing. Dollar
// figures are whole dollars. Net figures never go negative: a sale that
// would take one below zero fails with ErrArithmeticUnderflow.
type Personal struct {
	TotalVolumeUSD       uint64
	NetSpentUSD          uint64
	TotalPrANAEarned     fixedpoint.PrANA
	BootstrapNetSpentUSD uint64
	BootstrapNetANA      fixedpoint.ANA
	TotalNIRVBorrowed    fixedpoint.NIRV
	TotalNIRVRepaid      fixedpoint.NIRV
}

func (h *Personal) Clone() *Personal {
	if h == nil {
		return nil
	}
	clone := *h
	return &clone
}

// Buy records a purchase of usd whole dollars.
func (h *Personal) Buy(usd uint64) error {
	var err error
	if h.NetSpentUSD, err = addU64(h.NetSpentUSD, usd); err != nil {
		return err
	}
	h.TotalVolumeUSD, err = addU64(h.TotalVolumeUSD, usd)
	return err
}

// Sell records a sale of usd whole dollars.
func (h *Personal) Sell(usd uint64) error {
	net, err := subU64(h.NetSpentUSD, usd)
	if err != nil {
		return err
	}
	volume, err := addU64(h.TotalVolumeUSD, usd)
	if err != nil {
		return err
	}
	h.NetSpentUSD, h.TotalVolumeUSD = net, volume
	return nil
}

// BuyDuringBootstrap records a purchase inside the bootstrap window.
func (h *Personal) BuyDuringBootstrap(usd uint64, ana fixedpoint.ANA) error {
	if err := h.Buy(usd); err != nil {
		return err
	}
	var err error
	if h.BootstrapNetSpentUSD, err = addU64(h.BootstrapNetSpentUSD, usd); err != nil {
		return err
	}
	h.BootstrapNetANA, err = fixedpoint.Add(h.BootstrapNetANA, ana)
	return err
}

// SellDuringBootstrap records a sale inside the bootstrap window.
// The receiver is left unchanged on error.
func (h *Personal) SellDuringBootstrap(usd uint64, ana fixedpoint.ANA) error {
	spent, err := subU64(h.BootstrapNetSpentUSD, usd)
	if err != nil {
		return err
	}
	bought, err := fixedpoint.Sub(h.BootstrapNetANA, ana)
	if err != nil {
		return err
	}
	if err := h.Sell(usd); err != nil {
		return err
	}
	h.BootstrapNetSpentUSD, h.BootstrapNetANA = spent, bought
	return nil
}

// EarnPrANA records claimed rewards.
func (h *Personal) EarnPrANA(amount fixedpoint.PrANA) error {
	next, err := fixedpoint.Add(h.TotalPrANAEarned, amount)
	if err != nil {
		return err
	}
	h.TotalPrANAEarned = next
	return nil
}

// Borrow records NIRV drawn.
func (h *Personal) Borrow(amount fixedpoint.NIRV) error {
	next, err := fixedpoint.Add(h.TotalNIRVBorrowed, amount)
	if err != nil {
		return err
	}
	h.TotalNIRVBorrowed = next
	return nil
}

// Repay records NIRV repaid.
func (h *Personal) Repay(amount fixedpoint.NIRV) error {
	next, err := fixedpoint.Add(h.TotalNIRVRepaid, amount)
	if err != nil {
		return err
	}
	h.TotalNIRVRepaid = next
	return nil
}

// BootstrapAvgPrice is the net dollars spent per net ANA bought during the
// bootstrap. It fails with ErrDivideByZero when nothing was bought.
func (h *Personal) BootstrapAvgPrice() (decimal.Decimal, error) {
	if h.BootstrapNetANA == 0 {
		return decimal.Zero, fixedpoint.ErrDivideByZero
	}
	return fixedpoint.Div(fixedpoint.Uint64(h.BootstrapNetSpentUSD), h.BootstrapNetANA.Decimal(), 2*fixedpoint.PreciseScale, fixedpoint.TowardZero)
}

// Global aggregates protocol-wide activity.
type Global struct {
	VolumeUSD         uint64
	NetPurchasedANA   fixedpoint.ANA
	AllTimeHighSupply fixedpoint.ANA
	PrANAMinted       fixedpoint.PrANA
	TotalPrANARewards fixedpoint.PrANA
	PrANAExecuted     fixedpoint.PrANA
	NIRVMinted        fixedpoint.NIRV
	NIRVRepaid        fixedpoint.NIRV
}

func (g *Global) Clone() *Global {
	if g == nil {
		return nil
	}
	clone := *g
	return &clone
}

// BuyANA records a curve purchase and raises the supply high-water mark.
func (g *Global) BuyANA(usd uint64, amount, supplyBefore fixedpoint.ANA) error {
	var err error
	if g.VolumeUSD, err = addU64(g.VolumeUSD, usd); err != nil {
		return err
	}
	if g.NetPurchasedANA, err = fixedpoint.Add(g.NetPurchasedANA, amount); err != nil {
		return err
	}
	after, err := fixedpoint.Add(supplyBefore, amount)
	if err != nil {
		return err
	}
	if after > g.AllTimeHighSupply {
		g.AllTimeHighSupply = after
	}
	return nil
}

// SellANA records a curve sale.
func (g *Global) SellANA(usd uint64, amount fixedpoint.ANA) error {
	net, err := fixedpoint.Sub(g.NetPurchasedANA, amount)
	if err != nil {
		return err
	}
	volume, err := addU64(g.VolumeUSD, usd)
	if err != nil {
		return err
	}
	g.NetPurchasedANA, g.VolumeUSD = net, volume
	return nil
}

// RecordReward records a reward drop.
func (g *Global) RecordReward(amount fixedpoint.PrANA) error {
	var err error
	g.TotalPrANARewards, err = fixedpoint.Add(g.TotalPrANARewards, amount)
	return err
}

// MintPrANA records prANA issued on claim, fees included.
func (g *Global) MintPrANA(amount fixedpoint.PrANA) error {
	var err error
	g.PrANAMinted, err = fixedpoint.Add(g.PrANAMinted, amount)
	return err
}

// ExecutePrANA records prANA realized into ANA.
func (g *Global) ExecutePrANA(amount fixedpoint.PrANA) error {
	var err error
	g.PrANAExecuted, err = fixedpoint.Add(g.PrANAExecuted, amount)
	return err
}

// MintNIRV records NIRV issued by a borrow.
func (g *Global) MintNIRV(amount fixedpoint.NIRV) error {
	var err error
	g.NIRVMinted, err = fixedpoint.Add(g.NIRVMinted, amount)
	return err
}

// RepayNIRV records NIRV burned by a repay.
func (g *Global) RepayNIRV(amount fixedpoint.NIRV) error {
	var err error
	g.NIRVRepaid, err = fixedpoint.Add(g.NIRVRepaid, amount)
	return err
}

func addU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, fixedpoint.ErrArithmeticOverflow
	}
	return sum, nil
}

func subU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, fixedpoint.ErrArithmeticUnderflow
	}
	return a - b, nil
}
