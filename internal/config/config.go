// Package config loads the YAML configuration file and applies environment
// variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"volsurge/internal/indicator"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for volsurge.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Gather   GatherConfig   `yaml:"gather"`
	Strategy StrategyConfig `yaml:"strategy"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoints for the Alpaca market data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GatherConfig controls bar gathering for each granularity.
type GatherConfig struct {
	Daily    GatherJobConfig `yaml:"daily"`
	Intraday GatherJobConfig `yaml:"intraday"`
}

// GatherJobConfig holds parameters for a single gathering job.
type GatherJobConfig struct {
	StartDate       string `yaml:"start_date"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// StrategyConfig defines the indicator windows and backtest parameters.
type StrategyConfig struct {
	Ticker            string  `yaml:"ticker"`
	ATRWindow         int     `yaml:"atr_window"`
	RVOLWindow        int     `yaml:"rvol_window"`
	RVOLMethod        string  `yaml:"rvol_method"`
	RVOLAlpha         float64 `yaml:"rvol_alpha"`
	PriceDevWindow    int     `yaml:"price_dev_window"`
	CurveLookbackDays int     `yaml:"curve_lookback_days"`
	EntryThreshold    float64 `yaml:"entry_threshold"`
	BandMultiplier    float64 `yaml:"band_multiplier"`
	InitialCapital    float64 `yaml:"initial_capital"`
	TradeShares       int64   `yaml:"trade_shares"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Default returns a Config with workable strategy parameters. Credentials and
// storage paths still have to come from the file or the environment.
func Default() *Config {
	return &Config{
		Logging: Logging{Level: "info", Format: "json"},
		Strategy: StrategyConfig{
			ATRWindow:         14,
			RVOLWindow:        20,
			RVOLMethod:        string(indicator.MethodHybrid),
			RVOLAlpha:         0.5,
			PriceDevWindow:    20,
			CurveLookbackDays: 20,
			EntryThreshold:    1.5,
			BandMultiplier:    1.0,
			InitialCapital:    10000,
			TradeShares:       100,
		},
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

// Validate checks the strategy parameters, failing fast on values the
// pipeline would otherwise reject mid-run.
func (c *Config) Validate() error {
	s := c.Strategy
	if s.ATRWindow < 1 {
		return fmt.Errorf("strategy.atr_window must be >= 1, got %d", s.ATRWindow)
	}
	if s.RVOLWindow < 1 {
		return fmt.Errorf("strategy.rvol_window must be >= 1, got %d", s.RVOLWindow)
	}
	switch indicator.RVOLMethod(s.RVOLMethod) {
	case indicator.MethodSMA, indicator.MethodEWM:
	case indicator.MethodHybrid:
		if s.RVOLAlpha < 0 || s.RVOLAlpha > 1 {
			return fmt.Errorf("strategy.rvol_alpha must be in [0, 1], got %v", s.RVOLAlpha)
		}
	default:
		return fmt.Errorf("strategy.rvol_method %q is not one of sma, ewm, hybrid", s.RVOLMethod)
	}
	if s.PriceDevWindow < 2 {
		return fmt.Errorf("strategy.price_dev_window must be >= 2, got %d", s.PriceDevWindow)
	}
	if s.CurveLookbackDays < 1 {
		return fmt.Errorf("strategy.curve_lookback_days must be >= 1, got %d", s.CurveLookbackDays)
	}
	if s.EntryThreshold <= 0 {
		return fmt.Errorf("strategy.entry_threshold must be > 0, got %v", s.EntryThreshold)
	}
	if s.BandMultiplier <= 0 {
		return fmt.Errorf("strategy.band_multiplier must be > 0, got %v", s.BandMultiplier)
	}
	if s.InitialCapital <= 0 {
		return fmt.Errorf("strategy.initial_capital must be > 0, got %v", s.InitialCapital)
	}
	if s.TradeShares < 1 {
		return fmt.Errorf("strategy.trade_shares must be >= 1, got %d", s.TradeShares)
	}
	return nil
}
