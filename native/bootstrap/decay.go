package bootstrap

import (
	"github.com/shopspring/decimal"

	"nirvana/native/fixedpoint"
)

// decayExponent makes the offset fall to e^-6 (about 0.25%) of its start
// value at the end of the window.
const decayExponent = 6

// expPrecision is the number of fractional digits carried by the Taylor
// expansion before the offset is truncated to token scale.
const expPrecision = 24

// Params describes one liquidity-bootstrapping window. Times are unix
// seconds; a zero StartTime means no window has been started.
type Params struct {
	StartOffset fixedpoint.Precise
	StartTime   uint64
	Duration    uint64
}

// Start opens a new window at now. The window must close at a
// representable time.
func (p *Params) Start(now uint64) error {
	if now+p.Duration < now {
		return fixedpoint.ErrArithmeticOverflow
	}
	p.StartTime = now
	return nil
}

// EndTime returns the unix time at which the window closes. Start keeps
// the sum in range.
func (p Params) EndTime() uint64 {
	return p.StartTime + p.Duration
}

// IsBootstrapping reports whether now lies strictly inside the window.
func (p Params) IsBootstrapping(now uint64) bool {
	if p.StartTime == 0 {
		return false
	}
	return p.StartTime < now && now < p.EndTime()
}

// Ended reports whether the window has started and closed.
func (p Params) Ended(now uint64) bool {
	if p.StartTime == 0 {
		return false
	}
	return now > p.EndTime()
}

// CurrentOffset returns the per-unit price offset at now. It is the start
// offset until the window opens, zero once it has run its full duration, and
// start·e^(−6·elapsed/duration) truncated to 6 decimals in between.
func (p Params) CurrentOffset(now uint64) decimal.Decimal {
	start := p.StartOffset.Decimal()
	if now <= p.StartTime {
		return start
	}
	elapsed := now - p.StartTime
	if elapsed >= p.Duration {
		return decimal.Zero
	}
	// Duration is non-zero here since elapsed > 0 and elapsed < Duration.
	exponent, _ := fixedpoint.Div(
		decimal.NewFromInt(-decayExponent).Mul(fixedpoint.Uint64(elapsed)),
		fixedpoint.Uint64(p.Duration),
		expPrecision,
		fixedpoint.TowardZero,
	)
	factor, err := exponent.ExpTaylor(expPrecision)
	if err != nil {
		return decimal.Zero
	}
	return fixedpoint.Round(start.Mul(factor), fixedpoint.TokenScale, fixedpoint.TowardZero)
}
