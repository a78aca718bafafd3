package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "electrify.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 3, cfg.Store.ConnectAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrentCounties)
	assert.Equal(t, "data", cfg.Data.InputDir)
	assert.Equal(t, []string{"baseline"}, cfg.Data.Scenarios)
	assert.Equal(t, []string{"single-family-detached"}, cfg.Data.HousingTypes)
	assert.Equal(t, "daily", cfg.Rates.FixedChargeProration)
	assert.False(t, cfg.Rates.LegacyFixedChargeBug)
	assert.False(t, cfg.Rates.LegacyDefaultTerritory)
	assert.Empty(t, cfg.Rates.CatalogPath)
	assert.InDelta(t, 0.10, cfg.Monitoring.FailureRateThreshold, 1e-9)
	assert.InDelta(t, 0.5, cfg.Monitoring.SkipRateThreshold, 1e-9)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.Empty(t, cfg.Monitoring.WebhookURL)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/electrify
log:
  level: debug
  format: console
data:
  input_dir: /srv/profiles
  scenarios: [baseline, heat_pump, heat_pump_and_induction]
rates:
  fixed_charge_proration: monthly
  legacy_default_territory: true
batch:
  max_concurrent_counties: 16
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "/srv/profiles", cfg.Data.InputDir)
	assert.Equal(t, []string{"baseline", "heat_pump", "heat_pump_and_induction"}, cfg.Data.Scenarios)
	assert.Equal(t, "monthly", cfg.Rates.FixedChargeMode())
	assert.True(t, cfg.Rates.LegacyDefaultTerritory)
	assert.Equal(t, 16, cfg.Batch.MaxConcurrentCounties)
	// Defaults still apply for unset values
	assert.Equal(t, "data", cfg.Data.OutputDir)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("ELECTRIFY_STORE_DRIVER", "postgres")
	t.Setenv("ELECTRIFY_LOG_LEVEL", "warn")
	t.Setenv("ELECTRIFY_DATA_INPUT_DIR", "/mnt/in")
	t.Setenv("ELECTRIFY_RATES_LEGACY_FIXED_CHARGE_BUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/mnt/in", cfg.Data.InputDir)
	assert.Equal(t, "legacy", cfg.Rates.FixedChargeMode())
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ELECTRIFY_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	return &Config{
		Store: StoreConfig{Driver: "sqlite", DatabaseURL: "electrify.db"},
		Data: DataConfig{
			InputDir:     "data",
			OutputDir:    "data",
			Scenarios:    []string{"baseline"},
			HousingTypes: []string{"single-family-detached"},
		},
		Rates:      RatesConfig{FixedChargeProration: "daily"},
		Batch:      BatchConfig{MaxConcurrentCounties: 8},
		Server:     ServerConfig{Port: 8080},
		Monitoring: MonitoringConfig{FailureRateThreshold: 0.10, SkipRateThreshold: 0.5, LookbackWindowHours: 24},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mode    string
		mutate  func(*Config)
		wantErr string
	}{
		{"evaluate ok", "evaluate", func(*Config) {}, ""},
		{"serve ok", "serve", func(*Config) {}, ""},
		{"ledger ok", "ledger", func(*Config) {}, ""},
		{"unknown mode", "deploy", func(*Config) {}, "unknown mode"},
		{"bad driver", "serve", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver"},
		{"bad proration", "evaluate", func(c *Config) { c.Rates.FixedChargeProration = "hourly" }, "fixed_charge_proration"},
		{"bad failure threshold", "ledger", func(c *Config) { c.Monitoring.FailureRateThreshold = 1.5 }, "monitoring.failure_rate_threshold"},
		{"negative skip threshold", "ledger", func(c *Config) { c.Monitoring.SkipRateThreshold = -0.1 }, "monitoring.skip_rate_threshold"},
		{"no scenarios", "evaluate", func(c *Config) { c.Data.Scenarios = nil }, "data.scenarios"},
		{"no housing types", "evaluate", func(c *Config) { c.Data.HousingTypes = nil }, "data.housing_types"},
		{"no input dir", "evaluate", func(c *Config) { c.Data.InputDir = "" }, "data.input_dir is required"},
		{"zero concurrency", "evaluate", func(c *Config) { c.Batch.MaxConcurrentCounties = 0 }, "between 1 and 64"},
		{"huge concurrency", "evaluate", func(c *Config) { c.Batch.MaxConcurrentCounties = 65 }, "between 1 and 64"},
		{"bad port", "serve", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"no database url", "ledger", func(c *Config) { c.Store.DatabaseURL = "" }, "store.database_url is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	t.Parallel()

	cfg := validDefaults()
	cfg.Data.InputDir = ""
	cfg.Data.OutputDir = ""
	err := cfg.Validate("evaluate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.input_dir is required")
	assert.Contains(t, err.Error(), "data.output_dir is required")
}
