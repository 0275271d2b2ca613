package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8010, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "default", cfg.AccountID)
	assert.Equal(t, "@every 60s", cfg.MonitorSchedule)

	assert.Equal(t, -10.0, cfg.Risk.StopLossPct)
	assert.Equal(t, 20.0, cfg.Risk.TakeProfitPct)
	assert.Equal(t, 25.0, cfg.Risk.MaxConcentrationPct)

	// Safe by default: simulation on, conservative urgency gating
	assert.True(t, cfg.Rebalance.DryRun)
	assert.True(t, cfg.Rebalance.ActOnImmediate)
	assert.True(t, cfg.Rebalance.ActOnHigh)
	assert.False(t, cfg.Rebalance.ActOnMedium)
	assert.False(t, cfg.Rebalance.ActOnLow)
	assert.Equal(t, 10, cfg.Rebalance.MaxDailyTrades)
	assert.Equal(t, 15, cfg.Rebalance.CooldownMinutes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REBALANCE_DRY_RUN", "false")
	t.Setenv("REBALANCE_MAX_DAILY_TRADES", "3")
	t.Setenv("RISK_STOP_LOSS_PCT", "-7.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.False(t, cfg.Rebalance.DryRun)
	assert.Equal(t, 3, cfg.Rebalance.MaxDailyTrades)
	assert.Equal(t, -7.5, cfg.Risk.StopLossPct)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("REBALANCE_DRY_RUN", "sometimes")
	t.Setenv("RISK_TAKE_PROFIT_PCT", "plenty")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8010, cfg.Port)
	assert.True(t, cfg.Rebalance.DryRun)
	assert.Equal(t, 20.0, cfg.Risk.TakeProfitPct)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DatabasePath: "./data/test.db",
			AccountID:    "default",
			Rebalance: RebalanceConfig{
				MaxDailyTrades:    10,
				MaxSingleTradePct: 25,
				CooldownMinutes:   15,
			},
		}
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database path", func(c *Config) { c.DatabasePath = "" }},
		{"missing account", func(c *Config) { c.AccountID = "" }},
		{"negative daily trades", func(c *Config) { c.Rebalance.MaxDailyTrades = -1 }},
		{"zero single trade pct", func(c *Config) { c.Rebalance.MaxSingleTradePct = 0 }},
		{"oversized single trade pct", func(c *Config) { c.Rebalance.MaxSingleTradePct = 150 }},
		{"negative cooldown", func(c *Config) { c.Rebalance.CooldownMinutes = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
