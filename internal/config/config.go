// Package config loads electrify-cli settings from config.yaml and ELECTRIFY_* variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the top-level configuration for electrify-cli.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Rates      RatesConfig      `yaml:"rates" mapstructure:"rates"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	// ConnectAttempts bounds retries of transient connect and migrate failures.
	ConnectAttempts int `yaml:"connect_attempts" mapstructure:"connect_attempts"`
}

// DataConfig locates load profiles and result tables.
type DataConfig struct {
	InputDir     string   `yaml:"input_dir" mapstructure:"input_dir"`
	OutputDir    string   `yaml:"output_dir" mapstructure:"output_dir"`
	Scenarios    []string `yaml:"scenarios" mapstructure:"scenarios"`
	HousingTypes []string `yaml:"housing_types" mapstructure:"housing_types"`
}

// RatesConfig controls the tariff catalog and its compatibility switches.
type RatesConfig struct {
	// CatalogPath overrides the embedded tariff catalog when set.
	CatalogPath            string `yaml:"catalog_path" mapstructure:"catalog_path"`
	FixedChargeProration   string `yaml:"fixed_charge_proration" mapstructure:"fixed_charge_proration"`
	LegacyFixedChargeBug   bool   `yaml:"legacy_fixed_charge_bug" mapstructure:"legacy_fixed_charge_bug"`
	LegacyDefaultTerritory bool   `yaml:"legacy_default_territory" mapstructure:"legacy_default_territory"`
}

// FixedChargeMode returns the effective fixed-charge mode. The legacy bug
// switch wins over the proration setting.
func (r RatesConfig) FixedChargeMode() string {
	if r.LegacyFixedChargeBug {
		return "legacy"
	}
	return r.FixedChargeProration
}

type BatchConfig struct {
	MaxConcurrentCounties int `yaml:"max_concurrent_counties" mapstructure:"max_concurrent_counties"`
}

type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig holds run-ledger alerting thresholds.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	// SkipRateThreshold disables the skip alert when zero.
	SkipRateThreshold   float64 `yaml:"skip_rate_threshold" mapstructure:"skip_rate_threshold"`
	LookbackWindowHours int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads config.yaml from the working directory, then applies
// ELECTRIFY_* environment overrides on top of defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ELECTRIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "electrify.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.connect_attempts", 3)
	v.SetDefault("data.input_dir", "data")
	v.SetDefault("data.output_dir", "data")
	v.SetDefault("data.scenarios", []string{"baseline"})
	v.SetDefault("data.housing_types", []string{"single-family-detached"})
	v.SetDefault("rates.catalog_path", "")
	v.SetDefault("rates.fixed_charge_proration", "daily")
	v.SetDefault("rates.legacy_fixed_charge_bug", false)
	v.SetDefault("rates.legacy_default_territory", false)
	v.SetDefault("batch.max_concurrent_counties", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.failure_rate_threshold", 0.10)
	v.SetDefault("monitoring.skip_rate_threshold", 0.5)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "evaluate", "serve" and "ledger".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	switch c.Rates.FixedChargeProration {
	case "", "daily", "monthly":
	default:
		errs = append(errs, "rates.fixed_charge_proration must be daily or monthly")
	}

	switch mode {
	case "evaluate":
		if c.Data.InputDir == "" {
			errs = append(errs, "data.input_dir is required")
		}
		if c.Data.OutputDir == "" {
			errs = append(errs, "data.output_dir is required")
		}
		if len(c.Data.Scenarios) == 0 {
			errs = append(errs, "data.scenarios must list at least one scenario")
		}
		if len(c.Data.HousingTypes) == 0 {
			errs = append(errs, "data.housing_types must list at least one housing type")
		}
		if c.Batch.MaxConcurrentCounties < 1 || c.Batch.MaxConcurrentCounties > 64 {
			errs = append(errs, "batch.max_concurrent_counties must be between 1 and 64")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "ledger":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
		if c.Monitoring.FailureRateThreshold < 0 || c.Monitoring.FailureRateThreshold > 1 {
			errs = append(errs, "monitoring.failure_rate_threshold must be between 0 and 1")
		}
		if c.Monitoring.SkipRateThreshold < 0 || c.Monitoring.SkipRateThreshold > 1 {
			errs = append(errs, "monitoring.skip_rate_threshold must be between 0 and 1")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger builds the global zap logger from cfg.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
