package config

import (
	"os"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, yamlContent string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "volsurge-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}
	return tmpFile.Name()
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ALPACA_API_KEY", "ALPACA_API_SECRET", "APCA_API_KEY_ID",
		"APCA_API_SECRET_KEY", "DATA_DIR", "SQLITE_PATH", "LOG_LEVEL",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadFullConfig(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/volsurge/data"
  sqlite_path: "/tmp/volsurge/volsurge.db"
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  base_url: "https://paper-api.alpaca.markets"
  data_url: "https://data.alpaca.markets"
logging:
  level: "debug"
  format: "text"
gather:
  daily:
    start_date: "2020-01-01"
    rate_limit_per_min: 200
  intraday:
    start_date: "2024-01-01"
    rate_limit_per_min: 100
strategy:
  ticker: "AAPL"
  atr_window: 10
  rvol_window: 15
  rvol_method: "sma"
  price_dev_window: 30
  curve_lookback_days: 10
  entry_threshold: 2.0
  band_multiplier: 1.5
  initial_capital: 25000
  trade_shares: 50
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/volsurge/data" {
		t.Errorf("Storage.DataDir = %q, want /tmp/volsurge/data", cfg.Storage.DataDir)
	}
	if cfg.Alpaca.APIKey != "test-key" || cfg.Alpaca.APISecret != "test-secret" {
		t.Errorf("Alpaca credentials = %q/%q, want test-key/test-secret", cfg.Alpaca.APIKey, cfg.Alpaca.APISecret)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want debug/text", cfg.Logging)
	}
	if cfg.Gather.Daily.StartDate != "2020-01-01" || cfg.Gather.Intraday.RateLimitPerMin != 100 {
		t.Errorf("Gather = %+v", cfg.Gather)
	}
	if cfg.Strategy.Ticker != "AAPL" || cfg.Strategy.ATRWindow != 10 {
		t.Errorf("Strategy = %+v", cfg.Strategy)
	}
	if cfg.Strategy.RVOLMethod != "sma" {
		t.Errorf("Strategy.RVOLMethod = %q, want sma", cfg.Strategy.RVOLMethod)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on a full config: %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
strategy:
  ticker: "MSFT"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// Fields absent from the file keep their defaults.
	if cfg.Strategy.ATRWindow != 14 {
		t.Errorf("Strategy.ATRWindow = %d, want default 14", cfg.Strategy.ATRWindow)
	}
	if cfg.Strategy.RVOLMethod != "hybrid" || cfg.Strategy.RVOLAlpha != 0.5 {
		t.Errorf("Strategy RVOL defaults = %q/%v, want hybrid/0.5", cfg.Strategy.RVOLMethod, cfg.Strategy.RVOLAlpha)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging defaults = %+v, want info/json", cfg.Logging)
	}
	if cfg.Strategy.Ticker != "MSFT" {
		t.Errorf("Strategy.Ticker = %q, want MSFT from file", cfg.Strategy.Ticker)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
storage:
  data_dir: "/original/data"
`)

	os.Setenv("ALPACA_API_KEY", "env-key")
	os.Setenv("DATA_DIR", "/env/data")
	defer os.Unsetenv("ALPACA_API_KEY")
	defer os.Unsetenv("DATA_DIR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want env-key (env override)", cfg.Alpaca.APIKey)
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want yaml-secret (from YAML)", cfg.Alpaca.APISecret)
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want /env/data (env override)", cfg.Storage.DataDir)
	}
}

func TestLoadCanonicalAlpacaEnvWins(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
alpaca:
  api_key: "yaml-key"
`)

	os.Setenv("ALPACA_API_KEY", "alias-key")
	os.Setenv("APCA_API_KEY_ID", "canonical-key")
	defer os.Unsetenv("ALPACA_API_KEY")
	defer os.Unsetenv("APCA_API_KEY_ID")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Alpaca.APIKey != "canonical-key" {
		t.Errorf("Alpaca.APIKey = %q, want canonical-key (APCA_ wins)", cfg.Alpaca.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"zero atr window", func(c *Config) { c.Strategy.ATRWindow = 0 }, "atr_window"},
		{"unknown rvol method", func(c *Config) { c.Strategy.RVOLMethod = "median" }, "rvol_method"},
		{"alpha out of range", func(c *Config) { c.Strategy.RVOLAlpha = 1.5 }, "rvol_alpha"},
		{"price dev window of one", func(c *Config) { c.Strategy.PriceDevWindow = 1 }, "price_dev_window"},
		{"zero lookback", func(c *Config) { c.Strategy.CurveLookbackDays = 0 }, "curve_lookback_days"},
		{"negative threshold", func(c *Config) { c.Strategy.EntryThreshold = -1 }, "entry_threshold"},
		{"zero capital", func(c *Config) { c.Strategy.InitialCapital = 0 }, "initial_capital"},
		{"zero shares", func(c *Config) { c.Strategy.TradeShares = 0 }, "trade_shares"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() accepted an invalid config")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q should mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestValidateAlphaIgnoredForSMA(t *testing.T) {
	cfg := Default()
	cfg.Strategy.RVOLMethod = "sma"
	cfg.Strategy.RVOLAlpha = 7 // irrelevant unless the method is hybrid

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, alpha should only be checked for hybrid", err)
	}
}
