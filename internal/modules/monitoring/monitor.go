package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SHLOK333/xion-trade-miniapp/internal/config"
	"github.com/SHLOK333/xion-trade-miniapp/internal/events"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/portfolio"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/risk"
	"github.com/SHLOK333/xion-trade-miniapp/pkg/formulas"
)

// idleCashPct is the cash share above which idle capital is flagged.
const idleCashPct = 30.0

// valueHistoryLimit bounds the total-value series kept for
// volatility and drawdown metrics.
const valueHistoryLimit = 252

// AlertHandler consumes alerts as they are raised.
type AlertHandler func(Alert)

// Monitor periodically reassesses the portfolio and raises typed
// alerts when thresholds are crossed. One Monitor per account.
type Monitor struct {
	accountID string
	riskCfg   config.RiskConfig
	repo      *portfolio.Repository
	assessor  *risk.Assessor
	events    *events.Manager
	log       zerolog.Logger

	mu           sync.RWMutex
	current      *PortfolioSnapshot
	valueHistory []float64
	handlers     []AlertHandler
}

// NewMonitor creates a new portfolio monitor
func NewMonitor(
	accountID string,
	riskCfg config.RiskConfig,
	repo *portfolio.Repository,
	assessor *risk.Assessor,
	ev *events.Manager,
	log zerolog.Logger,
) *Monitor {
	return &Monitor{
		accountID: accountID,
		riskCfg:   riskCfg,
		repo:      repo,
		assessor:  assessor,
		events:    ev,
		log:       log.With().Str("service", "monitor").Str("account", accountID).Logger(),
	}
}

// OnAlert registers a handler invoked for every alert raised by an
// evaluation cycle. Delivery is best-effort.
func (m *Monitor) OnAlert(h AlertHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// CurrentSnapshot returns the snapshot from the most recent
// evaluation cycle, or nil before the first cycle.
func (m *Monitor) CurrentSnapshot() *PortfolioSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Evaluate runs one evaluation cycle: reassess the portfolio, detect
// threshold crossings, store the snapshot, and deliver alerts.
func (m *Monitor) Evaluate() (*PortfolioSnapshot, error) {
	account, err := m.repo.Account(m.accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	positions, err := m.repo.Positions(m.accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	assessment, err := m.assessor.AssessPortfolio(*account, positions)
	if err != nil {
		return nil, fmt.Errorf("failed to assess portfolio: %w", err)
	}

	alerts := m.detectAlerts(assessment)

	m.mu.Lock()
	m.valueHistory = append(m.valueHistory, assessment.TotalValue)
	if len(m.valueHistory) > valueHistoryLimit {
		m.valueHistory = m.valueHistory[len(m.valueHistory)-valueHistoryLimit:]
	}
	history := make([]float64, len(m.valueHistory))
	copy(history, m.valueHistory)
	m.mu.Unlock()

	snapshot := &PortfolioSnapshot{
		Timestamp:     time.Now(),
		AccountID:     m.accountID,
		TotalValue:    assessment.TotalValue,
		CashBalance:   assessment.CashAvailable,
		InvestedValue: assessment.InvestedValue,
		UnrealizedPnL: assessment.TotalUnrealizedPnL,
		PositionCount: len(assessment.Positions),
		RiskLevel:     assessment.OverallRiskLevel,
		Volatility:    formulas.AnnualizedVolatility(formulas.Returns(history)),
		MaxDrawdown:   formulas.MaxDrawdown(history),
		Positions:     assessment.Positions,
		Alerts:        alerts,
	}

	m.mu.Lock()
	m.current = snapshot
	handlers := make([]AlertHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	m.events.Emit(events.MonitorCycleDone, "monitoring", map[string]interface{}{
		"account_id":  m.accountID,
		"total_value": snapshot.TotalValue,
		"positions":   snapshot.PositionCount,
		"alerts":      len(alerts),
		"risk_level":  string(snapshot.RiskLevel),
	})

	for _, alert := range alerts {
		m.events.Emit(events.AlertRaised, "monitoring", map[string]interface{}{
			"alert_id": alert.ID,
			"type":     string(alert.Type),
			"urgency":  string(alert.Urgency),
			"symbol":   alert.Symbol,
		})
		for _, h := range handlers {
			m.deliver(h, alert)
		}
	}

	return snapshot, nil
}

func (m *Monitor) deliver(h AlertHandler, alert Alert) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().
				Interface("panic", r).
				Str("alert_id", alert.ID).
				Msg("Alert handler panicked")
		}
	}()
	h(alert)
}

// detectAlerts converts an assessment into typed alerts.
func (m *Monitor) detectAlerts(assessment risk.PortfolioRiskAssessment) []Alert {
	var alerts []Alert

	for _, p := range assessment.Positions {
		if p.UnrealizedPnLPct < m.riskCfg.StopLossPct {
			urgency := UrgencyHigh
			if p.RiskLevel == risk.RiskCritical {
				urgency = UrgencyImmediate
			}
			alerts = append(alerts, m.newAlert(AlertStopLossHit, urgency, p.Symbol,
				fmt.Sprintf("Stop loss hit: %s", p.Symbol),
				fmt.Sprintf("%s is down %.1f%% (current $%.2f)", p.Symbol, p.UnrealizedPnLPct, p.CurrentPrice),
				map[string]float64{
					"pnl_pct":       p.UnrealizedPnLPct,
					"current_price": p.CurrentPrice,
				}))
		}

		if p.UnrealizedPnLPct > m.riskCfg.TakeProfitPct {
			urgency := UrgencyMedium
			if p.UnrealizedPnLPct > 30 {
				urgency = UrgencyHigh
			}
			alerts = append(alerts, m.newAlert(AlertTakeProfit, urgency, p.Symbol,
				fmt.Sprintf("Take profit: %s", p.Symbol),
				fmt.Sprintf("%s is up %.1f%% (current $%.2f)", p.Symbol, p.UnrealizedPnLPct, p.CurrentPrice),
				map[string]float64{
					"pnl_pct":       p.UnrealizedPnLPct,
					"current_price": p.CurrentPrice,
				}))
		}

		if p.Concentration > m.riskCfg.MaxConcentrationPct {
			urgency := UrgencyMedium
			if p.Concentration > 40 {
				urgency = UrgencyHigh
			}
			alerts = append(alerts, m.newAlert(AlertConcentration, urgency, p.Symbol,
				fmt.Sprintf("Concentration: %s", p.Symbol),
				fmt.Sprintf("%s is %.1f%% of the portfolio", p.Symbol, p.Concentration),
				map[string]float64{
					"concentration_pct": p.Concentration,
					"current_price":     p.CurrentPrice,
				}))
		}

		if p.RiskLevel == risk.RiskCritical {
			alerts = append(alerts, m.newAlert(AlertRiskThreshold, UrgencyImmediate, p.Symbol,
				fmt.Sprintf("Critical risk: %s", p.Symbol),
				fmt.Sprintf("%s reached critical risk (%.1f%% P&L)", p.Symbol, p.UnrealizedPnLPct),
				map[string]float64{
					"pnl_pct":       p.UnrealizedPnLPct,
					"current_price": p.CurrentPrice,
				}))
		}
	}

	if assessment.TotalValue > 0 {
		idlePct := assessment.CashAvailable / assessment.TotalValue * 100
		if idlePct > idleCashPct {
			alerts = append(alerts, m.newAlert(AlertIdleCapital, UrgencyLow, "",
				"Idle capital",
				fmt.Sprintf("%.1f%% of the portfolio is sitting in cash", idlePct),
				map[string]float64{"idle_pct": idlePct}))
		}
	}

	return alerts
}

func (m *Monitor) newAlert(t AlertType, urgency Urgency, symbol, title, message string, data map[string]float64) Alert {
	return Alert{
		ID:        uuid.NewString(),
		Type:      t,
		Urgency:   urgency,
		Symbol:    symbol,
		Title:     title,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// Job adapts the monitor to the scheduler's Job interface.
type Job struct {
	monitor *Monitor
}

// NewJob wraps a monitor as a schedulable job.
func NewJob(m *Monitor) *Job {
	return &Job{monitor: m}
}

// Name returns the job name.
func (j *Job) Name() string {
	return "portfolio_monitor"
}

// Run executes one evaluation cycle.
func (j *Job) Run() error {
	_, err := j.monitor.Evaluate()
	return err
}
