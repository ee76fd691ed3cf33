// Package config loads macropanel settings from a file and MACROPANEL_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rewired-gh/macropanel/internal/dataset"
	"github.com/rewired-gh/macropanel/internal/fetcher"
	"github.com/rewired-gh/macropanel/internal/fred"
	"github.com/rewired-gh/macropanel/internal/models"
)

// EnvPrefix is prepended to every environment override, e.g. MACROPANEL_FRED_API_KEY.
const EnvPrefix = "MACROPANEL"

// Config represents the complete application configuration
type Config struct {
	FRED     FREDConfig     `mapstructure:"fred"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Prepare  PrepareConfig  `mapstructure:"prepare"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FREDConfig holds FRED API configuration
type FREDConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelayBase  time.Duration `mapstructure:"retry_delay_base"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// FetchConfig holds fetch run configuration
type FetchConfig struct {
	Frequency   string   `mapstructure:"frequency"`
	Aggregation string   `mapstructure:"aggregation"`
	Workers     int      `mapstructure:"workers"`
	Series      []string `mapstructure:"series"` // empty = whole catalog
	ExportPath  string   `mapstructure:"export_path"`
}

// PrepareConfig holds dataset preparation configuration
type PrepareConfig struct {
	TestFraction           float64 `mapstructure:"test_fraction"`
	BatchSize              int     `mapstructure:"batch_size"`
	ColumnMissingThreshold float64 `mapstructure:"column_missing_threshold"`
	Seed                   uint64  `mapstructure:"seed"` // 0 = seeded from clock
	ScalerName             string  `mapstructure:"scaler_name"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath  string `mapstructure:"db_path"`
	MaxRuns int    `mapstructure:"max_runs"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// FRED defaults
	v.SetDefault("fred.base_url", fred.DefaultBaseURL)
	v.SetDefault("fred.api_key", "")
	v.SetDefault("fred.timeout", "30s")
	v.SetDefault("fred.request_interval", fred.DefaultRequestInterval.String())
	v.SetDefault("fred.max_retries", 3)
	v.SetDefault("fred.retry_delay_base", "1s")
	v.SetDefault("fred.breaker_failures", 5)
	v.SetDefault("fred.breaker_cooldown", "30s")

	// Fetch defaults
	v.SetDefault("fetch.frequency", fred.FrequencyQuarterly)
	v.SetDefault("fetch.aggregation", fred.AggregationAverage)
	v.SetDefault("fetch.workers", 1)
	v.SetDefault("fetch.series", []string{})
	v.SetDefault("fetch.export_path", "")

	// Prepare defaults
	defaults := dataset.DefaultOptions()
	v.SetDefault("prepare.test_fraction", defaults.TestFraction)
	v.SetDefault("prepare.batch_size", defaults.BatchSize)
	v.SetDefault("prepare.column_missing_threshold", defaults.ColumnMissingThreshold)
	v.SetDefault("prepare.seed", 0)
	v.SetDefault("prepare.scaler_name", "default")

	// Telegram defaults
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/macropanel.db")
	v.SetDefault("storage.max_runs", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func invalid(param string, value any, reason string) error {
	return &models.InvalidConfigError{Param: param, Value: value, Reason: reason}
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate FRED config
	if c.FRED.BaseURL == "" {
		return invalid("fred.base_url", c.FRED.BaseURL, "is required")
	}
	if c.FRED.Timeout <= 0 {
		return invalid("fred.timeout", c.FRED.Timeout, "must be positive")
	}
	if c.FRED.RequestInterval < fred.MinRequestInterval {
		return invalid("fred.request_interval", c.FRED.RequestInterval,
			"must be at least "+fred.MinRequestInterval.String())
	}
	if c.FRED.MaxRetries < 0 {
		return invalid("fred.max_retries", c.FRED.MaxRetries, "must not be negative")
	}
	if c.FRED.RetryDelayBase < 0 {
		return invalid("fred.retry_delay_base", c.FRED.RetryDelayBase, "must not be negative")
	}

	// Validate Fetch config
	// The panel is quarterly averages by definition.
	if c.Fetch.Frequency != fred.FrequencyQuarterly {
		return invalid("fetch.frequency", c.Fetch.Frequency, "must be "+fred.FrequencyQuarterly)
	}
	if c.Fetch.Aggregation != fred.AggregationAverage {
		return invalid("fetch.aggregation", c.Fetch.Aggregation, "must be "+fred.AggregationAverage)
	}
	if c.Fetch.Workers < 1 {
		return invalid("fetch.workers", c.Fetch.Workers, "must be at least 1")
	}

	// Validate Prepare config
	if err := c.DatasetOptions().Validate(); err != nil {
		return err
	}
	if c.Prepare.ScalerName == "" {
		return invalid("prepare.scaler_name", c.Prepare.ScalerName, "is required")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return invalid("telegram.bot_token", "", "is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return invalid("telegram.chat_id", "", "is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.MaxRuns < 1 {
		return invalid("storage.max_runs", c.Storage.MaxRuns, "must be at least 1")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return invalid("logging.level", c.Logging.Level, "must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return invalid("logging.format", c.Logging.Format, "must be one of: json, text")
	}

	return nil
}

// ClientConfig returns the FRED client settings
func (c *Config) ClientConfig() fred.ClientConfig {
	return fred.ClientConfig{
		BaseURL:         c.FRED.BaseURL,
		APIKey:          c.FRED.APIKey,
		Timeout:         c.FRED.Timeout,
		MaxRetries:      c.FRED.MaxRetries,
		RetryDelayBase:  c.FRED.RetryDelayBase,
		BreakerFailures: c.FRED.BreakerFailures,
		BreakerCooldown: c.FRED.BreakerCooldown,
	}
}

// FetchOptions returns the fetch run settings
func (c *Config) FetchOptions() fetcher.Options {
	return fetcher.Options{
		Frequency:   c.Fetch.Frequency,
		Aggregation: c.Fetch.Aggregation,
		Workers:     c.Fetch.Workers,
	}
}

// DatasetOptions returns the preparation settings
func (c *Config) DatasetOptions() dataset.Options {
	return dataset.Options{
		TestFraction:           c.Prepare.TestFraction,
		BatchSize:              c.Prepare.BatchSize,
		ColumnMissingThreshold: c.Prepare.ColumnMissingThreshold,
		Seed:                   c.Prepare.Seed,
	}
}
