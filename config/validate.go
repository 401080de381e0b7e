package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	nativecommon "nirvana/native/common"
)

var pausableModules = map[string]bool{
	nativecommon.ModuleCenter:     true,
	nativecommon.ModuleSwap:       true,
	nativecommon.ModuleBond:       true,
	nativecommon.ModuleStaking:    true,
	nativecommon.ModuleLending:    true,
	nativecommon.ModuleRewards:    true,
	nativecommon.ModuleCommitment: true,
}

// Validate checks the daemon settings and that the protocol parameters parse
// into a genesis.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress is required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir is required")
	}
	if _, err := cron.ParseStandard(c.RewardCrank); err != nil {
		return fmt.Errorf("config: invalid RewardCrank %q: %w", c.RewardCrank, err)
	}
	if c.RateLimitBurst < 0 {
		return fmt.Errorf("config: RateLimitBurst must not be negative")
	}
	for _, module := range c.Paused {
		if !pausableModules[strings.ToLower(strings.TrimSpace(module))] {
			return fmt.Errorf("config: unknown paused module %q", module)
		}
	}
	if strings.Contains(c.Telemetry.Endpoint, "://") {
		return fmt.Errorf("config: telemetry Endpoint %q must be host:port without a scheme", c.Telemetry.Endpoint)
	}
	return c.Protocol.Validate()
}

// Validate checks cross-field constraints the engine would otherwise reject
// at initialization.
func (p Protocol) Validate() error {
	if _, err := p.Genesis(); err != nil {
		return err
	}
	if p.RewardIntervalSeconds == 0 {
		return fmt.Errorf("protocol: RewardIntervalSeconds must be positive")
	}
	c := p.Commitment
	if c.EndTime != 0 && (c.StartTime > c.EarlyBirdEnd || c.EarlyBirdEnd > c.EndTime) {
		return fmt.Errorf("protocol.commitment: want StartTime <= EarlyBirdEnd <= EndTime")
	}
	if c.EscrowDecimals > 18 {
		return fmt.Errorf("protocol.commitment: EscrowDecimals above 18")
	}
	markets := make(map[string]MoneyMarket, len(p.MoneyMarkets))
	for _, mm := range p.MoneyMarkets {
		id := strings.ToLower(strings.TrimSpace(mm.ID))
		if id == "" {
			return fmt.Errorf("protocol.money_markets: ID is required")
		}
		if _, dup := markets[id]; dup {
			return fmt.Errorf("protocol.money_markets: duplicate market %q", mm.ID)
		}
		if mm.Decimals > 18 {
			return fmt.Errorf("protocol.money_markets: %s decimals above 18", mm.ID)
		}
		markets[id] = mm
	}
	for _, b := range p.Bonds {
		if _, ok := markets[strings.ToLower(strings.TrimSpace(b.MoneyMarket))]; !ok {
			return fmt.Errorf("protocol.bonds: unknown money market %q", b.MoneyMarket)
		}
	}
	if m := strings.TrimSpace(p.CommitmentMarket); m != "" {
		mm, ok := markets[strings.ToLower(m)]
		if !ok {
			return fmt.Errorf("protocol: unknown CommitmentMarket %q", m)
		}
		if mm.Decimals != c.EscrowDecimals {
			return fmt.Errorf("protocol: CommitmentMarket %s has %d decimals, escrow expects %d", m, mm.Decimals, c.EscrowDecimals)
		}
	}
	return nil
}
