package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nirvana/core/center"
	"nirvana/native/bond"
	"nirvana/native/bootstrap"
	"nirvana/native/commitment"
	"nirvana/native/curve"
	"nirvana/native/fees"
	"nirvana/native/fixedpoint"
)

// Protocol holds the genesis parameters. Rates and prices are decimal strings
// so no value passes through a float.
type Protocol struct {
	PolicyOwner           string        `toml:"PolicyOwner" yaml:"policyOwner"`
	RewardRate            string        `toml:"RewardRate" yaml:"rewardRate"`
	RewardIntervalSeconds uint64        `toml:"RewardIntervalSeconds" yaml:"rewardIntervalSeconds"`
	CommitmentMarket      string        `toml:"CommitmentMarket" yaml:"commitmentMarket"`
	Fees                  FeeRates      `toml:"fees" yaml:"fees"`
	Curve                 Curve         `toml:"curve" yaml:"curve"`
	Bootstrap             Bootstrap     `toml:"bootstrap" yaml:"bootstrap"`
	Commitment            Commitment    `toml:"commitment" yaml:"commitment"`
	MoneyMarkets          []MoneyMarket `toml:"money_markets" yaml:"moneyMarkets"`
	Bonds                 []Bond        `toml:"bonds" yaml:"bonds"`
}

// FeeRates are fractions of the gross amount.
type FeeRates struct {
	InstantBuy  string `toml:"InstantBuy" yaml:"instantBuy"`
	Sell        string `toml:"Sell" yaml:"sell"`
	TrANA       string `toml:"TrANA" yaml:"trANA"`
	Unstake     string `toml:"Unstake" yaml:"unstake"`
	Origination string `toml:"Origination" yaml:"origination"`
	Debt        string `toml:"Debt" yaml:"debt"`
}

type Curve struct {
	RampStart  string `toml:"RampStart" yaml:"rampStart"`
	RampWidth  string `toml:"RampWidth" yaml:"rampWidth"`
	RampHeight string `toml:"RampHeight" yaml:"rampHeight"`
	MainSlope  string `toml:"MainSlope" yaml:"mainSlope"`
	FloorPrice string `toml:"FloorPrice" yaml:"floorPrice"`
}

// Bootstrap configures the decaying price offset. The window is opened later
// by the policy owner.
type Bootstrap struct {
	StartOffset     string `toml:"StartOffset" yaml:"startOffset"`
	DurationSeconds uint64 `toml:"DurationSeconds" yaml:"durationSeconds"`
}

type Commitment struct {
	StartTime      uint64 `toml:"StartTime" yaml:"startTime"`
	EarlyBirdEnd   uint64 `toml:"EarlyBirdEnd" yaml:"earlyBirdEnd"`
	EndTime        uint64 `toml:"EndTime" yaml:"endTime"`
	EscrowDecimals uint32 `toml:"EscrowDecimals" yaml:"escrowDecimals"`
}

type MoneyMarket struct {
	ID        string `toml:"ID" yaml:"id"`
	Decimals  uint32 `toml:"Decimals" yaml:"decimals"`
	RFVFactor string `toml:"RFVFactor" yaml:"rfvFactor"`
	ForAMM    bool   `toml:"ForAMM" yaml:"forAMM"`
	ForPrANA  bool   `toml:"ForPrANA" yaml:"forPrANA"`
	ForTrANA  bool   `toml:"ForTrANA" yaml:"forTrANA"`
	Enabled   bool   `toml:"Enabled" yaml:"enabled"`
}

// Bond configures the bond class sold against a money market.
type Bond struct {
	MoneyMarket    string `toml:"MoneyMarket" yaml:"moneyMarket"`
	Enabled        bool   `toml:"Enabled" yaml:"enabled"`
	Sensitivity    string `toml:"Sensitivity" yaml:"sensitivity"`
	MaxDiscount    string `toml:"MaxDiscount" yaml:"maxDiscount"`
	VestingSeconds uint64 `toml:"VestingSeconds" yaml:"vestingSeconds"`
}

// Genesis parses the protocol parameters into the engine's initial state.
func (p Protocol) Genesis() (center.Genesis, error) {
	var g center.Genesis

	owner, err := parseAddress(p.PolicyOwner)
	if err != nil {
		return g, fmt.Errorf("invalid protocol.PolicyOwner: %w", err)
	}
	schedule, err := p.Fees.Schedule()
	if err != nil {
		return g, err
	}
	rewardRate, err := parse[fixedpoint.Precise]("protocol.RewardRate", p.RewardRate)
	if err != nil {
		return g, err
	}
	field, err := p.Curve.PriceField()
	if err != nil {
		return g, err
	}
	offset, err := parse[fixedpoint.Precise]("protocol.bootstrap.StartOffset", p.Bootstrap.StartOffset)
	if err != nil {
		return g, err
	}

	g.Config = center.Config{
		PolicyOwner:           owner,
		Fees:                  schedule,
		RewardRate:            rewardRate,
		RewardIntervalSeconds: p.RewardIntervalSeconds,
		Bootstrap:             bootstrap.Params{StartOffset: offset, Duration: p.Bootstrap.DurationSeconds},
		CommitmentMarket:      strings.TrimSpace(p.CommitmentMarket),
	}
	g.PriceField = field
	g.CommitmentMeta = commitment.Meta{
		StartTime:      p.Commitment.StartTime,
		EarlyBirdEnd:   p.Commitment.EarlyBirdEnd,
		EndTime:        p.Commitment.EndTime,
		EscrowDecimals: p.Commitment.EscrowDecimals,
	}

	for i, mm := range p.MoneyMarkets {
		rfv, err := parse[fixedpoint.Coarse](fmt.Sprintf("protocol.money_markets[%d].RFVFactor", i), mm.RFVFactor)
		if err != nil {
			return g, err
		}
		g.MoneyMarkets = append(g.MoneyMarkets, center.MoneyMarket{
			ID:        mm.ID,
			Decimals:  mm.Decimals,
			RFVFactor: rfv,
			ForAMM:    mm.ForAMM,
			ForPrANA:  mm.ForPrANA,
			ForTrANA:  mm.ForTrANA,
			Enabled:   mm.Enabled,
		})
	}
	for i, b := range p.Bonds {
		meta, err := b.Meta(i)
		if err != nil {
			return g, err
		}
		g.Bonds = append(g.Bonds, center.NamedBond{ID: b.MoneyMarket, Meta: meta})
	}
	return g, nil
}

// Schedule parses the fee rates.
func (f FeeRates) Schedule() (fees.Schedule, error) {
	var s fees.Schedule
	fields := []struct {
		name string
		raw  string
		dst  *fixedpoint.Coarse
	}{
		{"InstantBuy", f.InstantBuy, &s.InstantBuy},
		{"Sell", f.Sell, &s.Sell},
		{"TrANA", f.TrANA, &s.TrANA},
		{"Unstake", f.Unstake, &s.Unstake},
		{"Origination", f.Origination, &s.Origination},
		{"Debt", f.Debt, &s.Debt},
	}
	for _, field := range fields {
		v, err := parse[fixedpoint.Coarse]("protocol.fees."+field.name, field.raw)
		if err != nil {
			return s, err
		}
		*field.dst = v
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid protocol.fees: %w", err)
	}
	return s, nil
}

// PriceField parses the curve parameters.
func (c Curve) PriceField() (curve.PriceField, error) {
	var (
		field curve.PriceField
		err   error
	)
	if field.RampStart, err = parse[fixedpoint.ANA]("protocol.curve.RampStart", c.RampStart); err != nil {
		return field, err
	}
	if field.RampWidth, err = parse[fixedpoint.ANA]("protocol.curve.RampWidth", c.RampWidth); err != nil {
		return field, err
	}
	if field.RampHeight, err = parse[fixedpoint.Precise]("protocol.curve.RampHeight", c.RampHeight); err != nil {
		return field, err
	}
	if field.MainSlope, err = parse[fixedpoint.Precise]("protocol.curve.MainSlope", c.MainSlope); err != nil {
		return field, err
	}
	if field.FloorPrice, err = parse[fixedpoint.Precise]("protocol.curve.FloorPrice", c.FloorPrice); err != nil {
		return field, err
	}
	if err := field.Validate(); err != nil {
		return field, fmt.Errorf("invalid protocol.curve: %w", err)
	}
	return field, nil
}

// Meta parses the bond class parameters. Outstanding and bought totals start
// at zero.
func (b Bond) Meta(i int) (bond.Meta, error) {
	sensitivity, err := parse[fixedpoint.Precise](fmt.Sprintf("protocol.bonds[%d].Sensitivity", i), b.Sensitivity)
	if err != nil {
		return bond.Meta{}, err
	}
	maxDiscount, err := parse[fixedpoint.Precise](fmt.Sprintf("protocol.bonds[%d].MaxDiscount", i), b.MaxDiscount)
	if err != nil {
		return bond.Meta{}, err
	}
	return bond.Meta{
		Enabled:          b.Enabled,
		Sensitivity:      sensitivity,
		MaxDiscountRatio: maxDiscount,
		VestingSeconds:   b.VestingSeconds,
	}, nil
}

// parse reads a decimal string; an empty value is zero.
func parse[T fixedpoint.Number](name, raw string) (T, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	v, err := fixedpoint.Parse[T](trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func parseAddress(raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("%q is not a hex address", raw)
	}
	return common.HexToAddress(trimmed), nil
}
