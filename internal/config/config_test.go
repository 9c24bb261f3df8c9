package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	return Config{
		Credentials: CredentialsConfig{APIKey: "k", APISecret: "s"},
		Endpoints:   EndpointsConfig{RestBaseURL: "https://x", WSURL: "wss://x"},
		Risk: RiskConfig{
			MaxPositionUSD: 1000,
			RiskBudgetUSD:  0.3,
			MinSLPercent:   0.7,
			MaxSLPercent:   3.0,
		},
		Scanner: ScannerConfig{
			ScanIntervalSecs:          60,
			SwitchThresholdMultiplier: 1.2,
		},
		Strategy: StrategyConfig{
			ShortWindow:          50,
			LongWindow:           200,
			RingCapacity:         300,
			ConfirmationRequired: 12,
		},
		Metrics: MetricsConfig{Enabled: false},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsMissingCredentials(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Credentials.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing api_key")
	}

	cfg = validConfig()
	cfg.Credentials.APISecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing api_secret")
	}
}

func TestValidateRejectsInvertedSLBand(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Risk.MinSLPercent = 3.0
	cfg.Risk.MaxSLPercent = 0.7
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when max_sl_percent < min_sl_percent")
	}
}

func TestValidateRejectsSwitchThresholdAtOrBelowOne(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Scanner.SwitchThresholdMultiplier = 1.0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when switch_threshold_multiplier <= 1.0")
	}
}

func TestValidateRejectsRingCapacityBelowLongWindow(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Strategy.RingCapacity = 100
	cfg.Strategy.LongWindow = 200
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when ring_capacity < long_window")
	}
}

func TestValidateRejectsShortWindowAboveLongWindow(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Strategy.ShortWindow = 200
	cfg.Strategy.LongWindow = 50
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when short_window > long_window")
	}
}

func TestValidateRequiresMetricsPortWhenEnabled(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when metrics enabled with port 0")
	}

	cfg.Metrics.Port = 9090
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil once port is set", err)
	}
}

func TestScanIntervalConvertsSecondsToDuration(t *testing.T) {
	t.Parallel()
	c := ScannerConfig{ScanIntervalSecs: 30}
	if got := c.ScanInterval(); got.Seconds() != 30 {
		t.Errorf("ScanInterval() = %v, want 30s", got)
	}
}

func TestPositionVerifyIntervalConvertsSecondsToDuration(t *testing.T) {
	t.Parallel()
	c := StrategyConfig{PositionVerifyIntervalSecs: 45}
	if got := c.PositionVerifyInterval(); got.Seconds() != 45 {
		t.Errorf("PositionVerifyInterval() = %v, want 45s", got)
	}
}

func TestLoadAppliesDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("VENUE_API_KEY", "env-key")
	t.Setenv("VENUE_API_SECRET", "env-secret")
	t.Setenv("VENUE_DRY_RUN", "true")

	dir := t.TempDir()
	path := dir + "/config.yaml"
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Credentials.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env override env-key", cfg.Credentials.APIKey)
	}
	if cfg.Credentials.APISecret != "env-secret" {
		t.Errorf("APISecret = %q, want env override env-secret", cfg.Credentials.APISecret)
	}
	if !cfg.DryRun {
		t.Error("expected DryRun true from VENUE_DRY_RUN=true")
	}
	if cfg.Risk.MaxPositionUSD != 1000.0 {
		t.Errorf("Risk.MaxPositionUSD = %v, want default 1000.0", cfg.Risk.MaxPositionUSD)
	}
	if cfg.Strategy.RingCapacity != 300 {
		t.Errorf("Strategy.RingCapacity = %v, want default 300", cfg.Strategy.RingCapacity)
	}
}
