package rebalancing

import (
	"fmt"
	"time"

	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/monitoring"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/trading"
)

// RebalanceResult bundles the outcome of one rebalancing cycle.
type RebalanceResult struct {
	Timestamp       time.Time                     `json:"timestamp"`
	TradesExecuted  []trading.TradeExecution      `json:"trades_executed"`
	AlertsProcessed int                           `json:"alerts_processed"`
	PortfolioBefore *monitoring.PortfolioSnapshot `json:"portfolio_before,omitempty"`
	PortfolioAfter  *monitoring.PortfolioSnapshot `json:"portfolio_after,omitempty"`
	DryRun          bool                          `json:"dry_run"`
}

// Summary returns a one-line human-readable summary.
func (r RebalanceResult) Summary() string {
	executed := 0
	totalValue := 0.0
	for _, t := range r.TradesExecuted {
		if t.Success {
			executed++
			totalValue += t.TotalValue
		}
	}
	prefix := ""
	if r.DryRun {
		prefix = "(DRY RUN) "
	}
	return fmt.Sprintf("Rebalance %sat %s: %d trades, $%.2f total",
		prefix, r.Timestamp.Format("15:04:05"), executed, totalValue)
}

// DailyStats reports the rebalancer's trading activity for the
// current calendar day.
type DailyStats struct {
	TradesToday     int     `json:"trades_today"`
	TradesRemaining int     `json:"trades_remaining"`
	TotalVolume     float64 `json:"total_volume"`
	Successful      int     `json:"successful"`
	Failed          int     `json:"failed"`
	DryRun          bool    `json:"dry_run_mode"`
}
