package monitoring

import (
	"time"

	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/risk"
)

// AlertType identifies the condition that raised an alert.
type AlertType string

const (
	AlertStopLossHit   AlertType = "stop_loss_hit"
	AlertTakeProfit    AlertType = "take_profit"
	AlertConcentration AlertType = "concentration"
	AlertRiskThreshold AlertType = "risk_threshold"
	AlertIdleCapital   AlertType = "idle_capital"
)

// Urgency is the severity tier of an alert, gating whether automatic
// action is taken.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyHigh      Urgency = "high"
	UrgencyMedium    Urgency = "medium"
	UrgencyLow       Urgency = "low"
)

// Rank returns the ordering rank: IMMEDIATE > HIGH > MEDIUM > LOW.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyImmediate:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	default:
		return 0
	}
}

// Alert is a typed notification that a monitored threshold was
// crossed. The Data payload carries the numeric figures that
// triggered it (pnl_pct, current_price, concentration_pct, idle_pct).
type Alert struct {
	ID        string             `json:"id"`
	Type      AlertType          `json:"alert_type"`
	Urgency   Urgency            `json:"urgency"`
	Symbol    string             `json:"symbol,omitempty"`
	Title     string             `json:"title"`
	Message   string             `json:"message"`
	Data      map[string]float64 `json:"data"`
	Timestamp time.Time          `json:"timestamp"`
}

// PortfolioSnapshot is the monitor's view of the portfolio after one
// evaluation cycle.
type PortfolioSnapshot struct {
	Timestamp     time.Time                     `json:"timestamp"`
	AccountID     string                        `json:"account_id"`
	TotalValue    float64                       `json:"total_value"`
	CashBalance   float64                       `json:"cash_balance"`
	InvestedValue float64                       `json:"invested_value"`
	UnrealizedPnL float64                       `json:"unrealized_pnl"`
	PositionCount int                           `json:"position_count"`
	RiskLevel     risk.RiskLevel                `json:"risk_level"`
	Volatility    float64                       `json:"volatility"`
	MaxDrawdown   float64                       `json:"max_drawdown"`
	Positions     []risk.PositionRiskAssessment `json:"positions"`
	Alerts        []Alert                       `json:"alerts"`
}
