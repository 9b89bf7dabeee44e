package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scoring holds the materiality thresholds and band cutoffs used by the card
// transforms. The raw-unit thresholds are NOT normalized for token decimals;
// they are intentionally kept as-is and tunable per deployment.
type Scoring struct {
	// DustAmount is the minimum raw transfer amount considered material.
	DustAmount float64 `yaml:"dust_amount"`
	// DustUSD is the minimum estimated USD value counted as a position.
	DustUSD float64 `yaml:"dust_usd"`
	// CollapseWindowHours bounds a buy->sell pair counted as a conviction
	// collapse event.
	CollapseWindowHours int `yaml:"collapse_window_hours"`
	// RecentWindowTxs is the lookback window (in transactions) for the
	// FOMO/fear cycle.
	RecentWindowTxs int `yaml:"recent_window_txs"`

	HighFeeThreshold float64 `yaml:"high_fee_threshold"`
	LowFeeThreshold  float64 `yaml:"low_fee_threshold"`
	UrgencyFeeBase   float64 `yaml:"urgency_fee_base"`

	FomoThresholdPct float64 `yaml:"fomo_threshold_pct"`
	FearThresholdPct float64 `yaml:"fear_threshold_pct"`

	SizingSystematicMin float64 `yaml:"sizing_systematic_min"`

	ConcentrationTop3Pct     float64 `yaml:"concentration_top3_pct"`
	OverDiversifiedTop5Pct   float64 `yaml:"over_diversified_top5_pct"`
	OverDiversifiedMinTokens int     `yaml:"over_diversified_min_tokens"`
}

// Pipeline holds orchestration settings.
type Pipeline struct {
	// WorkerLimit bounds concurrent card computations per batch.
	WorkerLimit int `yaml:"worker_limit"`
}

// Cache holds the two TTL tiers of the card pipeline.
type Cache struct {
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
	CardTTL     time.Duration `yaml:"card_ttl"`
}

type Config struct {
	Scoring  Scoring  `yaml:"scoring"`
	Pipeline Pipeline `yaml:"pipeline"`
	Cache    Cache    `yaml:"cache"`
}

// Default returns the compiled-in configuration. The scoring constants mirror
// the calibrated production values and should not be reinterpreted; override
// them via WHISPERER_CONFIG only when a deployment needs different dust or
// fee semantics.
func Default() Config {
	return Config{
		Scoring: Scoring{
			DustAmount:               1000,
			DustUSD:                  1.0,
			CollapseWindowHours:      48,
			RecentWindowTxs:          20,
			HighFeeThreshold:         8_000_000,
			LowFeeThreshold:          3_000_000,
			UrgencyFeeBase:           10_000_000,
			FomoThresholdPct:         40,
			FearThresholdPct:         40,
			SizingSystematicMin:      70,
			ConcentrationTop3Pct:     80,
			OverDiversifiedTop5Pct:   50,
			OverDiversifiedMinTokens: 10,
		},
		Pipeline: Pipeline{
			WorkerLimit: 8,
		},
		Cache: Cache{
			SnapshotTTL: time.Hour,
			CardTTL:     24 * time.Hour,
		},
	}
}

// Load returns the default configuration, overlaid with the YAML file at
// WHISPERER_CONFIG when set.
func Load() (Config, error) {
	cfg := Default()

	path := os.Getenv("WHISPERER_CONFIG")
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that would break scoring invariants.
func (c Config) Validate() error {
	if c.Scoring.DustAmount < 0 || c.Scoring.DustUSD < 0 {
		return fmt.Errorf("dust thresholds must be non-negative")
	}
	if c.Scoring.CollapseWindowHours <= 0 {
		return fmt.Errorf("collapse_window_hours must be positive")
	}
	if c.Scoring.RecentWindowTxs <= 0 {
		return fmt.Errorf("recent_window_txs must be positive")
	}
	if c.Scoring.LowFeeThreshold > c.Scoring.HighFeeThreshold {
		return fmt.Errorf("low_fee_threshold must not exceed high_fee_threshold")
	}
	if c.Scoring.UrgencyFeeBase <= 0 {
		return fmt.Errorf("urgency_fee_base must be positive")
	}
	if c.Pipeline.WorkerLimit <= 0 {
		return fmt.Errorf("worker_limit must be positive")
	}
	if c.Cache.SnapshotTTL <= 0 || c.Cache.CardTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	return nil
}
