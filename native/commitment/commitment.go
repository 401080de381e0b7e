package commitment

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"nirvana/native/fixedpoint"
)

var (
	ErrCommitmentPeriodNotStarted = errors.New("commitment: period not started")
	ErrCommitmentTargetNotMet     = errors.New("commitment: target spend not met")
	ErrAlreadyClaimed             = errors.New("commitment: already claimed")
	ErrBootstrappingNotEnded      = errors.New("commitment: bootstrapping not ended")
)

// escrowRatio is the share of a commitment, one in a hundred, held in escrow
// until the commitment is claimed.
const escrowRatio = 100

var (
	earlyBirdRate = fixedpoint.MustParse[fixedpoint.Precise]("0.2")
	standardRate  = fixedpoint.MustParse[fixedpoint.Precise]("0.15")
)

// Commitment is a participant's pledge to spend TargetSpend whole dollars
// during the bootstrap. RewardRate is the spend-weighted rate across every
// increase of the pledge.
type Commitment struct {
	TargetSpend uint64
	RewardRate  fixedpoint.Precise
	Claimed     bool
}

func (c *Commitment) Clone() *Commitment {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// BlendRate is the spend-weighted average of the old and new rates,
// truncated to 12 decimals. A zero delta leaves the old rate.
func BlendRate(oldRate fixedpoint.Precise, oldSpend uint64, newRate fixedpoint.Precise, delta uint64) (fixedpoint.Precise, error) {
	if delta == 0 {
		return oldRate, nil
	}
	old := fixedpoint.Uint64(oldSpend)
	added := fixedpoint.Uint64(delta)
	weighted := oldRate.Decimal().Mul(old).Add(newRate.Decimal().Mul(added))
	blended, err := fixedpoint.Div(weighted, old.Add(added), fixedpoint.PreciseScale, fixedpoint.TowardZero)
	if err != nil {
		return 0, err
	}
	return fixedpoint.FromDecimal[fixedpoint.Precise](blended, fixedpoint.TowardZero)
}

// SetTarget moves the pledge to target. Increases blend the rate with
// newRate over the added spend; decreases keep the rate.
func (c *Commitment) SetTarget(target uint64, newRate fixedpoint.Precise) error {
	if target > c.TargetSpend {
		rate, err := BlendRate(c.RewardRate, c.TargetSpend, newRate, target-c.TargetSpend)
		if err != nil {
			return err
		}
		c.RewardRate = rate
	}
	c.TargetSpend = target
	return nil
}

// EscrowAmount is the whole-dollar escrow for the current target.
func (c *Commitment) EscrowAmount() uint64 {
	return c.TargetSpend / escrowRatio
}

// EscrowFor converts a whole-dollar amount into escrow-token base units.
func EscrowFor(dollars, denominator uint64) (uint64, error) {
	return fixedpoint.MulDivFloor(dollars, denominator, escrowRatio)
}

// RewardAmount converts the pledge into ANA at the bootstrap average price
// and applies the reward rate. The reward is paid in prANA, truncated to
// token scale.
func RewardAmount(c *Commitment, avgPrice decimal.Decimal) (fixedpoint.PrANA, error) {
	bought, err := fixedpoint.Div(fixedpoint.Uint64(c.TargetSpend), avgPrice, 2*fixedpoint.PreciseScale, fixedpoint.TowardZero)
	if err != nil {
		return 0, err
	}
	return fixedpoint.FromDecimal[fixedpoint.PrANA](bought.Mul(c.RewardRate.Decimal()), fixedpoint.TowardZero)
}

// Meta is the global commitment round. Times are unix seconds.
type Meta struct {
	StartTime      uint64
	EarlyBirdEnd   uint64
	EndTime        uint64
	TotalCommitted uint64
	EscrowDecimals uint32
}

func (m *Meta) Clone() *Meta {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// Begun reports whether commitments are accepted at now.
func (m *Meta) Begun(now uint64) bool {
	return now >= m.StartTime
}

// RateForTime returns 20% before the early-bird deadline, 15% before the end
// of the round and zero afterwards.
func (m *Meta) RateForTime(now uint64) fixedpoint.Precise {
	switch {
	case now < m.EarlyBirdEnd:
		return earlyBirdRate
	case now < m.EndTime:
		return standardRate
	default:
		return 0
	}
}

// Add records newly committed whole dollars.
func (m *Meta) Add(amount uint64) error {
	next := m.TotalCommitted + amount
	if next < m.TotalCommitted {
		return fixedpoint.ErrArithmeticOverflow
	}
	m.TotalCommitted = next
	return nil
}

// Sub records withdrawn whole dollars.
func (m *Meta) Sub(amount uint64) error {
	if amount > m.TotalCommitted {
		return fixedpoint.ErrArithmeticUnderflow
	}
	m.TotalCommitted -= amount
	return nil
}

// Denominator is one whole escrow token in base units.
func (m *Meta) Denominator() (uint64, error) {
	out := uint64(1)
	for i := uint32(0); i < m.EscrowDecimals; i++ {
		if out > math.MaxUint64/10 {
			return 0, fixedpoint.ErrArithmeticOverflow
		}
		out *= 10
	}
	return out, nil
}
