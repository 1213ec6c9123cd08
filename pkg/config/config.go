package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skillpath/gateway/pkg/cache"
	"github.com/skillpath/gateway/pkg/ledger"
	"github.com/skillpath/gateway/pkg/limiter"
	"github.com/skillpath/gateway/pkg/logging"
	"github.com/skillpath/gateway/pkg/retry"
	"github.com/skillpath/gateway/pkg/tracing"
)

// AnalyticsConfig holds vector-analytics settings
type AnalyticsConfig struct {
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`
	Concurrency    int    `json:"concurrency" yaml:"concurrency"`
}

// RetentionConfig holds ledger retention sweep settings
type RetentionConfig struct {
	Interval time.Duration `json:"interval" yaml:"interval"`
	Horizon  time.Duration `json:"horizon" yaml:"horizon"`
}

// Config is the full gateway process configuration
type Config struct {
	Logging    logging.Config        `json:"logging" yaml:"logging"`
	Limits     ledger.Limits         `json:"limits" yaml:"limits"`
	Cache      cache.Config          `json:"cache" yaml:"cache"`
	Retry      retry.Policy          `json:"retry" yaml:"retry"`
	Breaker    limiter.BreakerConfig `json:"breaker" yaml:"breaker"`
	Analytics  AnalyticsConfig       `json:"analytics" yaml:"analytics"`
	Retention  RetentionConfig       `json:"retention" yaml:"retention"`
	Tracing    tracing.Config        `json:"tracing" yaml:"tracing"`
	ModelsPath string                `json:"models_path" yaml:"models_path"`
	ListenAddr string                `json:"listen_addr" yaml:"listen_addr"`
}

// Default returns the configuration used when no file is present
func Default() Config {
	return Config{
		Logging: logging.Config{Level: "info", Format: "json"},
		Limits: ledger.Limits{
			Daily:          10.0,
			Monthly:        200.0,
			WarningPercent: 80,
		},
		Cache:   cache.DefaultConfig(),
		Retry:   retry.DefaultPolicy(),
		Breaker: limiter.DefaultBreakerConfig(),
		Analytics: AnalyticsConfig{
			EmbeddingModel: "openai:text-embedding-3-small",
			Concurrency:    5,
		},
		Retention: RetentionConfig{
			Interval: time.Hour,
			Horizon:  ledger.DefaultRetention,
		},
		Tracing: tracing.Config{
			ServiceName: "ai-gateway",
			Environment: "development",
		},
		ModelsPath: "models.yaml",
		ListenAddr: ":8080",
	}
}

// Load reads configuration from the given path, falling back to defaults
// when the file does not exist. The GATEWAY_CONFIG environment variable
// overrides the path; individual env vars override scalar settings.
func Load(path string) (Config, error) {
	if envPath := os.Getenv("GATEWAY_CONFIG"); envPath != "" {
		path = envPath
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.ListenAddr = getEnv("GATEWAY_ADDR", cfg.ListenAddr)
	cfg.ModelsPath = getEnv("MODELS_CONFIG", cfg.ModelsPath)
	cfg.Limits.Daily = getEnvFloat("DAILY_COST_LIMIT", cfg.Limits.Daily)
	cfg.Limits.Monthly = getEnvFloat("MONTHLY_COST_LIMIT", cfg.Limits.Monthly)
	cfg.Limits.WarningPercent = getEnvFloat("COST_WARNING_PERCENT", cfg.Limits.WarningPercent)
	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", cfg.Cache.Enabled)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.MaxEntries = getEnvInt("CACHE_MAX_ENTRIES", cfg.Cache.MaxEntries)
	cfg.Retry.MaxRetries = getEnvInt("RETRY_MAX_RETRIES", cfg.Retry.MaxRetries)
	cfg.Retry.BaseDelay = getEnvDuration("RETRY_BASE_DELAY", cfg.Retry.BaseDelay)
	cfg.Retry.MaxDelay = getEnvDuration("RETRY_MAX_DELAY", cfg.Retry.MaxDelay)
	cfg.Analytics.EmbeddingModel = getEnv("EMBEDDING_MODEL", cfg.Analytics.EmbeddingModel)
	cfg.Tracing.JaegerEndpoint = getEnv("JAEGER_ENDPOINT", cfg.Tracing.JaegerEndpoint)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
