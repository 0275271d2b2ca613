package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// RiskConfig holds thresholds for position risk assessment.
// Immutable after Load; passed into components at construction.
type RiskConfig struct {
	StopLossPct         float64 // pnl% below this recommends EXIT (default -10)
	TakeProfitPct       float64 // pnl% above this recommends REDUCE (default +20)
	MaxConcentrationPct float64 // concentration% above this recommends REDUCE (default 25)
}

// RebalanceConfig holds safety limits and thresholds for the
// auto-rebalancer. Immutable after Load.
type RebalanceConfig struct {
	Enabled bool
	DryRun  bool // simulate trades without applying them

	// Safety limits
	MaxDailyTrades    int
	MaxSingleTradePct float64 // max % of a position tradeable in one action
	MinTradeValue     float64
	CooldownMinutes   int // wait between trades on the same symbol

	// Thresholds for auto-action
	AutoExitLossPct            float64 // full exit if loss exceeds this
	AutoReduceGainPct          float64 // take profits at this gain
	AutoReduceConcentrationPct float64 // reduce above this % of portfolio

	// Position sizing
	TargetPositionPct float64
	MaxPositionPct    float64

	// Urgency tiers that trigger automatic action
	ActOnImmediate bool
	ActOnHigh      bool
	ActOnMedium    bool
	ActOnLow       bool
}

// Config holds application configuration
type Config struct {
	Port            int
	DevMode         bool
	LogLevel        string
	DatabasePath    string
	AccountID       string
	MonitorSchedule string // cron spec for the evaluation cycle

	Risk      RiskConfig
	Rebalance RebalanceConfig
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8010),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/portfolio.db"),
		AccountID:       getEnv("ACCOUNT_ID", "default"),
		MonitorSchedule: getEnv("MONITOR_SCHEDULE", "@every 60s"),

		Risk: RiskConfig{
			StopLossPct:         getEnvAsFloat("RISK_STOP_LOSS_PCT", -10.0),
			TakeProfitPct:       getEnvAsFloat("RISK_TAKE_PROFIT_PCT", 20.0),
			MaxConcentrationPct: getEnvAsFloat("RISK_MAX_CONCENTRATION_PCT", 25.0),
		},

		Rebalance: RebalanceConfig{
			Enabled:                    getEnvAsBool("REBALANCE_ENABLED", true),
			DryRun:                     getEnvAsBool("REBALANCE_DRY_RUN", true),
			MaxDailyTrades:             getEnvAsInt("REBALANCE_MAX_DAILY_TRADES", 10),
			MaxSingleTradePct:          getEnvAsFloat("REBALANCE_MAX_SINGLE_TRADE_PCT", 25.0),
			MinTradeValue:              getEnvAsFloat("REBALANCE_MIN_TRADE_VALUE", 100.0),
			CooldownMinutes:            getEnvAsInt("REBALANCE_COOLDOWN_MINUTES", 15),
			AutoExitLossPct:            getEnvAsFloat("REBALANCE_AUTO_EXIT_LOSS_PCT", -15.0),
			AutoReduceGainPct:          getEnvAsFloat("REBALANCE_AUTO_REDUCE_GAIN_PCT", 30.0),
			AutoReduceConcentrationPct: getEnvAsFloat("REBALANCE_AUTO_REDUCE_CONCENTRATION_PCT", 30.0),
			TargetPositionPct:          getEnvAsFloat("REBALANCE_TARGET_POSITION_PCT", 5.0),
			MaxPositionPct:             getEnvAsFloat("REBALANCE_MAX_POSITION_PCT", 10.0),
			ActOnImmediate:             getEnvAsBool("REBALANCE_ACT_ON_IMMEDIATE", true),
			ActOnHigh:                  getEnvAsBool("REBALANCE_ACT_ON_HIGH", true),
			ActOnMedium:                getEnvAsBool("REBALANCE_ACT_ON_MEDIUM", false),
			ActOnLow:                   getEnvAsBool("REBALANCE_ACT_ON_LOW", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.AccountID == "" {
		return fmt.Errorf("ACCOUNT_ID is required")
	}
	if c.Rebalance.MaxDailyTrades < 0 {
		return fmt.Errorf("REBALANCE_MAX_DAILY_TRADES must not be negative")
	}
	if c.Rebalance.MaxSingleTradePct <= 0 || c.Rebalance.MaxSingleTradePct > 100 {
		return fmt.Errorf("REBALANCE_MAX_SINGLE_TRADE_PCT must be in (0, 100]")
	}
	if c.Rebalance.CooldownMinutes < 0 {
		return fmt.Errorf("REBALANCE_COOLDOWN_MINUTES must not be negative")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
