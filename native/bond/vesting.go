package bond

import (
	"nirvana/native/fixedpoint"
)

// dust is forgiven on the final redemption so rounding residue never blocks
// closing a bond.
const dust = 100

// Contract is one bond slot held by a participant. An Available slot holds
// no bond and may be purchased into.
type Contract struct {
	Available         bool
	Amount            fixedpoint.ANA
	Redeemed          fixedpoint.ANA
	PriceInUnderlying fixedpoint.Arbitrary
	StartTime         uint64
	EndTime           uint64
}

// NewSlot returns an empty, reusable slot.
func NewSlot() *Contract {
	return &Contract{Available: true}
}

func (c *Contract) Clone() *Contract {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Open fills an available slot with a bond vesting linearly from now.
func (c *Contract) Open(amount fixedpoint.ANA, price fixedpoint.Arbitrary, now, vestingSeconds uint64) error {
	if !c.Available {
		return ErrUnavailableBondSlot
	}
	end := now + vestingSeconds
	if end < now {
		return fixedpoint.ErrArithmeticOverflow
	}
	*c = Contract{
		Amount:            amount,
		PriceInUnderlying: price,
		StartTime:         now,
		EndTime:           end,
	}
	return nil
}

// LeftToRedeem returns the ANA vested by now and not yet redeemed.
// Vesting is amount×elapsed/span with integer truncation; once within dust
// of the full amount the whole amount is released.
func (c *Contract) LeftToRedeem(now uint64) (fixedpoint.ANA, error) {
	if c.Available || c.Redeemed >= c.Amount {
		return 0, nil
	}
	if now <= c.StartTime {
		return 0, nil
	}
	amount := uint64(c.Amount)
	redeemable := amount
	if c.EndTime > c.StartTime {
		var err error
		redeemable, err = fixedpoint.MulDivFloor(amount, now-c.StartTime, c.EndTime-c.StartTime)
		if err != nil {
			return 0, err
		}
	}
	if redeemable > amount || amount-redeemable < dust {
		redeemable = amount
	}
	if redeemable <= uint64(c.Redeemed) {
		return 0, nil
	}
	return fixedpoint.ANA(redeemable) - c.Redeemed, nil
}

// UpdateRedeemed records left as paid and frees the slot once the bond is
// fully redeemed.
func (c *Contract) UpdateRedeemed(left fixedpoint.ANA) error {
	next, err := fixedpoint.Add(c.Redeemed, left)
	if err != nil {
		return err
	}
	if next > c.Amount {
		return fixedpoint.ErrArithmeticOverflow
	}
	c.Redeemed = next
	if c.Redeemed == c.Amount {
		c.Available = true
	}
	return nil
}
