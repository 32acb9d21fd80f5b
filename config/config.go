// Package config loads server and limiter settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"sliding_rate_limiter/limiter"
)

type Config struct {
	Server  ServerConfig
	Limiter LimiterConfig
	Metrics MetricsConfig
}

type ServerConfig struct {
	Port string
}

type LimiterConfig struct {
	WindowLength  time.Duration
	Tick          time.Duration
	Capacity      int
	Shards        int
	MaxKeys       int
	IdleTTL       time.Duration
	AnomalyPolicy limiter.AnomalyPolicy
}

type MetricsConfig struct {
	Enabled bool
}

// Window returns the window length in clock ticks.
func (c LimiterConfig) Window() limiter.Tick {
	return limiter.Tick(c.WindowLength / c.Tick)
}

// Options returns the limiter options implied by the configuration.
func (c LimiterConfig) Options() []limiter.Option {
	opts := []limiter.Option{limiter.WithShards(c.Shards)}
	if c.MaxKeys > 0 {
		opts = append(opts, limiter.WithMaxKeys(c.MaxKeys))
	}
	if c.IdleTTL > 0 {
		opts = append(opts, limiter.WithIdleTTL(c.IdleTTL))
	}
	return opts
}

// Load reads a .env file if one exists, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	limiterConfig, err := buildLimiterConfig()
	if err != nil {
		return Config{}, err
	}

	metricsEnabled, err := cast.ToBoolE(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid METRICS_ENABLED: %w", err)
	}

	return Config{
		Server:  ServerConfig{Port: getEnv("SERVER_PORT", "8080")},
		Limiter: limiterConfig,
		Metrics: MetricsConfig{Enabled: metricsEnabled},
	}, nil
}

func buildLimiterConfig() (LimiterConfig, error) {
	window, err := cast.ToDurationE(getEnv("LIMITER_WINDOW", "1m"))
	if err != nil {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_WINDOW: %w", err)
	}
	tick, err := cast.ToDurationE(getEnv("LIMITER_TICK", "1ms"))
	if err != nil {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_TICK: %w", err)
	}
	if tick <= 0 {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_TICK: must be greater than 0, got %v", tick)
	}
	if window < tick {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_WINDOW: must be at least one tick (%v), got %v", tick, window)
	}

	capacity, err := cast.ToIntE(getEnv("LIMITER_CAPACITY", "60"))
	if err != nil {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_CAPACITY: %w", err)
	}
	if capacity <= 0 {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_CAPACITY: must be greater than 0, got %d", capacity)
	}

	shards, err := cast.ToIntE(getEnv("LIMITER_SHARDS", "32"))
	if err != nil {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_SHARDS: %w", err)
	}
	if shards <= 0 {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_SHARDS: must be greater than 0, got %d", shards)
	}

	maxKeys, err := cast.ToIntE(getEnv("LIMITER_MAX_KEYS", "0"))
	if err != nil {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_MAX_KEYS: %w", err)
	}
	if maxKeys < 0 {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_MAX_KEYS: can't be negative, got %d", maxKeys)
	}

	idleTTL, err := cast.ToDurationE(getEnv("LIMITER_IDLE_TTL", "0"))
	if err != nil {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_IDLE_TTL: %w", err)
	}
	if idleTTL < 0 {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_IDLE_TTL: can't be negative, got %v", idleTTL)
	}

	policy, err := limiter.ParseAnomalyPolicy(getEnv("LIMITER_ANOMALY_POLICY", "error"))
	if err != nil {
		return LimiterConfig{}, fmt.Errorf("invalid LIMITER_ANOMALY_POLICY: %w", err)
	}

	return LimiterConfig{
		WindowLength:  window,
		Tick:          tick,
		Capacity:      capacity,
		Shards:        shards,
		MaxKeys:       maxKeys,
		IdleTTL:       idleTTL,
		AnomalyPolicy: policy,
	}, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
