package config_test

import (
	"strings"
	"testing"
	"time"

	"sliding_rate_limiter/config"
	"sliding_rate_limiter/limiter"
)

var configVars = []string{
	"SERVER_PORT",
	"LIMITER_WINDOW",
	"LIMITER_TICK",
	"LIMITER_CAPACITY",
	"LIMITER_SHARDS",
	"LIMITER_MAX_KEYS",
	"LIMITER_IDLE_TTL",
	"LIMITER_ANOMALY_POLICY",
	"METRICS_ENABLED",
}

// clearEnv blanks every variable Load reads so the host environment can't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configVars {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Limiter.WindowLength != time.Minute || cfg.Limiter.Tick != time.Millisecond {
		t.Errorf("window/tick = %v/%v, want 1m/1ms", cfg.Limiter.WindowLength, cfg.Limiter.Tick)
	}
	if got := cfg.Limiter.Window(); got != 60_000 {
		t.Errorf("Window() = %d, want 60000", got)
	}
	if cfg.Limiter.Capacity != 60 || cfg.Limiter.Shards != 32 {
		t.Errorf("capacity/shards = %d/%d, want 60/32", cfg.Limiter.Capacity, cfg.Limiter.Shards)
	}
	if cfg.Limiter.MaxKeys != 0 || cfg.Limiter.IdleTTL != 0 {
		t.Errorf("maxKeys/idleTTL = %d/%v, want 0/0", cfg.Limiter.MaxKeys, cfg.Limiter.IdleTTL)
	}
	if cfg.Limiter.AnomalyPolicy != limiter.PolicyError {
		t.Errorf("AnomalyPolicy = %v, want error", cfg.Limiter.AnomalyPolicy)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
	if got := len(cfg.Limiter.Options()); got != 1 {
		t.Errorf("Options() has %d entries, want 1", got)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LIMITER_WINDOW", "10s")
	t.Setenv("LIMITER_TICK", "1s")
	t.Setenv("LIMITER_CAPACITY", "2")
	t.Setenv("LIMITER_SHARDS", "4")
	t.Setenv("LIMITER_MAX_KEYS", "1000")
	t.Setenv("LIMITER_IDLE_TTL", "5m")
	t.Setenv("LIMITER_ANOMALY_POLICY", "deny")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Server.Port)
	}
	if got := cfg.Limiter.Window(); got != 10 {
		t.Errorf("Window() = %d, want 10", got)
	}
	if cfg.Limiter.Capacity != 2 || cfg.Limiter.Shards != 4 || cfg.Limiter.MaxKeys != 1000 {
		t.Errorf("unexpected limiter config: %+v", cfg.Limiter)
	}
	if cfg.Limiter.IdleTTL != 5*time.Minute {
		t.Errorf("IdleTTL = %v, want 5m", cfg.Limiter.IdleTTL)
	}
	if cfg.Limiter.AnomalyPolicy != limiter.PolicyDeny {
		t.Errorf("AnomalyPolicy = %v, want deny", cfg.Limiter.AnomalyPolicy)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if got := len(cfg.Limiter.Options()); got != 3 {
		t.Errorf("Options() has %d entries, want 3", got)
	}

	// The options must build a working limiter.
	l, err := limiter.NewMemoryLimiter(limiter.NewManualClock(0), cfg.Limiter.Window(), cfg.Limiter.Capacity, cfg.Limiter.Options()...)
	if err != nil {
		t.Fatalf("NewMemoryLimiter() error: %v", err)
	}
	if l.Window() != 10 {
		t.Errorf("limiter Window() = %d, want 10", l.Window())
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"LIMITER_WINDOW", "forever"},
		{"LIMITER_WINDOW", "500us"},
		{"LIMITER_TICK", "-1ms"},
		{"LIMITER_CAPACITY", "many"},
		{"LIMITER_CAPACITY", "0"},
		{"LIMITER_SHARDS", "-2"},
		{"LIMITER_MAX_KEYS", "-1"},
		{"LIMITER_IDLE_TTL", "-5s"},
		{"LIMITER_ANOMALY_POLICY", "panic"},
		{"METRICS_ENABLED", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}
