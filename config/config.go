package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"nirvana/observability/logging"
)

// Config is the daemon configuration: where nirvd keeps its data, how it
// serves quotes and the protocol parameters written at initialization.
type Config struct {
	ListenAddress string              `toml:"ListenAddress" yaml:"listenAddress"`
	DataDir       string              `toml:"DataDir" yaml:"dataDir"`
	JournalPath   string              `toml:"JournalPath" yaml:"journalPath"`
	Environment   string              `toml:"Environment" yaml:"environment"`
	LogLevel      string              `toml:"LogLevel" yaml:"logLevel"`
	LogFile       logging.FileOptions `toml:"LogFile" yaml:"logFile"`
	// RewardCrank is a standard five-field cron expression for reward drops.
	RewardCrank string `toml:"RewardCrank" yaml:"rewardCrank"`
	// RateLimitPerMinute bounds quote requests per client address.
	RateLimitPerMinute uint32 `toml:"RateLimitPerMinute" yaml:"rateLimitPerMinute"`
	RateLimitBurst     int    `toml:"RateLimitBurst" yaml:"rateLimitBurst"`
	// Paused lists modules halted at startup.
	Paused    []string  `toml:"Paused" yaml:"paused"`
	Telemetry Telemetry `toml:"telemetry" yaml:"telemetry"`
	Protocol  Protocol  `toml:"protocol" yaml:"protocol"`
}

// Telemetry toggles OTLP/HTTP export. Both exporters are off by default and
// no collector is contacted while they are.
type Telemetry struct {
	Tracing  bool   `toml:"Tracing" yaml:"tracing"`
	Metrics  bool   `toml:"Metrics" yaml:"metrics"`
	Endpoint string `toml:"Endpoint" yaml:"endpoint"`
	Insecure bool   `toml:"Insecure" yaml:"insecure"`
	// Headers is a comma-separated list of key=value pairs.
	Headers string `toml:"Headers" yaml:"headers"`
}

// Load loads the configuration from the given path. TOML is the default
// format; .yaml and .yml files are decoded as YAML. A missing file is
// created with defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if isYAML(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		err = dec.Decode(cfg)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0].String())
		}
	}

	cfg.applyDefaults(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults(path string) {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8646"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = filepath.Join(filepath.Dir(path), "nirvana-data")
	}
	if strings.TrimSpace(c.JournalPath) == "" {
		c.JournalPath = filepath.Join(c.DataDir, "journal.db")
	}
	if strings.TrimSpace(c.RewardCrank) == "" {
		c.RewardCrank = "@hourly"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 600
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 20
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	cfg.applyDefaults(path)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a local development configuration: one USDC market, a
// 6-decimal escrow and a unit floor price.
func Default() *Config {
	return &Config{
		ListenAddress: ":8646",
		Environment:   "local",
		LogLevel:      "info",
		RewardCrank:   "@hourly",
		Protocol: Protocol{
			PolicyOwner:           "0x0000000000000000000000000000000000000000",
			RewardRate:            "0.001",
			RewardIntervalSeconds: 86_400,
			CommitmentMarket:      "usdc",
			Fees: FeeRates{
				InstantBuy:  "0.003",
				Sell:        "0.003",
				TrANA:       "0.01",
				Unstake:     "0.05",
				Origination: "0.005",
				Debt:        "0.1",
			},
			Curve: Curve{
				RampStart:  "0",
				RampWidth:  "1000000",
				RampHeight: "0.5",
				MainSlope:  "0.000001",
				FloorPrice: "1",
			},
			Bootstrap: Bootstrap{StartOffset: "0.1", DurationSeconds: 7 * 86_400},
			MoneyMarkets: []MoneyMarket{{
				ID:        "usdc",
				Decimals:  6,
				RFVFactor: "1",
				ForAMM:    true,
				ForPrANA:  true,
				ForTrANA:  true,
				Enabled:   true,
			}},
			Bonds: []Bond{{
				MoneyMarket:    "usdc",
				Enabled:        true,
				Sensitivity:    "0.000000001",
				MaxDiscount:    "0.1",
				VestingSeconds: 5 * 86_400,
			}},
			Commitment: Commitment{EscrowDecimals: 6},
		},
	}
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
