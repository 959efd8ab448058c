package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Indicator.Window != 12 {
		t.Fatalf("expected default window 12, got %d", cfg.Indicator.Window)
	}
	if cfg.Indicator.DepthPct != 0.2558 {
		t.Fatalf("expected default depth 0.2558, got %v", cfg.Indicator.DepthPct)
	}
	if cfg.Provider.RetryAttempts != 3 {
		t.Fatalf("expected 3 retry attempts, got %d", cfg.Provider.RetryAttempts)
	}
	if cfg.State.Backend != "file" {
		t.Fatalf("expected file backend by default, got %s", cfg.State.Backend)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
indicator:
  window: 20
  depth_pct: 0.1279
  near_threshold_pct: 5
universe:
  source: static
  symbols: [bitcoin, ethereum]
provider:
  name: binance
  lookback_days: 30
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Indicator.Window != 20 || cfg.Indicator.DepthPct != 0.1279 {
		t.Fatalf("file values not applied: %+v", cfg.Indicator)
	}
	if len(cfg.Universe.Symbols) != 2 {
		t.Fatalf("symbol list not parsed: %v", cfg.Universe.Symbols)
	}
	if cfg.Provider.Name != "binance" {
		t.Fatalf("provider not applied: %s", cfg.Provider.Name)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	cfg := base()
	cfg.Indicator.DepthPct = 1.0
	if err := cfg.Validate(); err == nil {
		t.Fatal("depth_pct 1.0 must be rejected")
	}

	cfg = base()
	cfg.Provider.LookbackDays = 5
	if err := cfg.Validate(); err == nil {
		t.Fatal("lookback shorter than window must be rejected")
	}

	cfg = base()
	cfg.State.Backend = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatal("postgres backend without dsn must be rejected")
	}

	cfg = base()
	cfg.Universe.Source = "static"
	cfg.Universe.Symbols = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("static source without symbols must be rejected")
	}

	cfg = base()
	cfg.Alerting.Telegram.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("telegram without credentials must be rejected")
	}
}
