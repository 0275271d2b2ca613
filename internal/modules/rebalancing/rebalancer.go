package rebalancing

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SHLOK333/xion-trade-miniapp/internal/config"
	"github.com/SHLOK333/xion-trade-miniapp/internal/domain"
	"github.com/SHLOK333/xion-trade-miniapp/internal/events"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/monitoring"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/portfolio"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/trading"
)

// AlertSource is the monitor contract the rebalancer consumes.
type AlertSource interface {
	CurrentSnapshot() *monitoring.PortfolioSnapshot
}

// TradeCallback is invoked once per execution attempt, success or
// failure. Best-effort: a panic inside a callback never interrupts
// the execution pipeline.
type TradeCallback func(trading.TradeExecution)

// tradeCandidate is the outcome of dispatching one alert.
type tradeCandidate struct {
	action    trading.TradeAction
	reducePct float64
	reason    string
}

// Rebalancer converts alerts into throttled, auditable trading
// actions for a single account. Handling of one alert is a short
// non-reentrant critical section: the throttle-state read-modify-write
// is guarded by a mutex so the daily quota can never be double-spent.
type Rebalancer struct {
	accountID string
	cfg       config.RebalanceConfig
	repo      *portfolio.Repository
	ledger    *trading.Repository
	events    *events.Manager
	log       zerolog.Logger

	now func() time.Time // injectable clock for tests

	mu            sync.Mutex
	running       bool
	source        AlertSource
	history       []trading.TradeExecution
	dailyCount    int
	lastTradeTime map[string]time.Time
	lastResetDate time.Time // date at midnight
	callbacks     []TradeCallback
}

// NewRebalancer creates a new auto-rebalancer
func NewRebalancer(
	accountID string,
	cfg config.RebalanceConfig,
	repo *portfolio.Repository,
	ledger *trading.Repository,
	ev *events.Manager,
	log zerolog.Logger,
) *Rebalancer {
	now := time.Now()
	return &Rebalancer{
		accountID:     accountID,
		cfg:           cfg,
		repo:          repo,
		ledger:        ledger,
		events:        ev,
		log:           log.With().Str("service", "rebalancer").Str("account", accountID).Logger(),
		now:           time.Now,
		lastTradeTime: make(map[string]time.Time),
		lastResetDate: midnight(now),
	}
}

// OnTrade registers a callback invoked once per execution attempt.
func (r *Rebalancer) OnTrade(cb TradeCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// Start connects the rebalancer to an alert source and begins
// accepting alerts. Idempotent.
func (r *Rebalancer) Start(source AlertSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.source = source
	r.running = true
	mode := "LIVE TRADING"
	if r.cfg.DryRun {
		mode = "DRY RUN"
	}
	r.log.Info().Str("mode", mode).Msg("Auto-rebalancer started")
}

// Stop prevents new alerts from being accepted. Idempotent; in-flight
// alert handling is not interrupted.
func (r *Rebalancer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	r.log.Info().Msg("Auto-rebalancer stopped")
}

// Running reports whether the rebalancer accepts alerts.
func (r *Rebalancer) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// HandleAlert processes one inbound alert. Failures are logged or
// recorded in the execution history; nothing propagates to the caller.
func (r *Rebalancer) HandleAlert(alert monitoring.Alert) {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()

	if !running || !r.cfg.Enabled {
		return
	}

	if !r.shouldActOn(alert.Urgency) {
		r.log.Debug().
			Str("urgency", string(alert.Urgency)).
			Str("title", alert.Title).
			Msg("Skipping alert below urgency threshold")
		return
	}

	candidate, ok := r.dispatch(alert)
	if !ok {
		return
	}

	r.executeTrade(alert.Symbol, candidate, alert)
}

// shouldActOn applies the per-urgency act-on flags.
func (r *Rebalancer) shouldActOn(u monitoring.Urgency) bool {
	switch u {
	case monitoring.UrgencyImmediate:
		return r.cfg.ActOnImmediate
	case monitoring.UrgencyHigh:
		return r.cfg.ActOnHigh
	case monitoring.UrgencyMedium:
		return r.cfg.ActOnMedium
	case monitoring.UrgencyLow:
		return r.cfg.ActOnLow
	}
	return false
}

// dispatch maps an alert to a trade candidate. Returns false when the
// alert warrants no trade.
func (r *Rebalancer) dispatch(alert monitoring.Alert) (tradeCandidate, bool) {
	switch alert.Type {
	case monitoring.AlertStopLossHit:
		if alert.Symbol == "" {
			return tradeCandidate{}, false
		}
		pnlPct := alert.Data["pnl_pct"]
		if pnlPct < r.cfg.AutoExitLossPct {
			return tradeCandidate{
				action: trading.ActionSellAll,
				reason: fmt.Sprintf("Stop-loss triggered at %.1f%% loss", pnlPct),
			}, true
		}
		return tradeCandidate{
			action:    trading.ActionSell,
			reducePct: 50.0,
			reason:    fmt.Sprintf("Reducing exposure due to %.1f%% loss", pnlPct),
		}, true

	case monitoring.AlertTakeProfit:
		if alert.Symbol == "" {
			return tradeCandidate{}, false
		}
		pnlPct := alert.Data["pnl_pct"]
		if pnlPct > r.cfg.AutoReduceGainPct {
			return tradeCandidate{
				action:    trading.ActionSell,
				reducePct: math.Min(50.0, r.cfg.MaxSingleTradePct),
				reason:    fmt.Sprintf("Taking profits at %.1f%% gain", pnlPct),
			}, true
		}
		return tradeCandidate{}, false

	case monitoring.AlertConcentration:
		if alert.Symbol == "" {
			return tradeCandidate{}, false
		}
		concentration := alert.Data["concentration_pct"]
		if concentration > r.cfg.AutoReduceConcentrationPct {
			// Reduce toward the target size. When the single-trade cap
			// binds first the position can stay above target; the next
			// cycle's alert picks it up again.
			target := r.cfg.TargetPositionPct
			reducePct := (concentration - target) / concentration * 100
			reducePct = math.Min(reducePct, r.cfg.MaxSingleTradePct)
			return tradeCandidate{
				action:    trading.ActionSell,
				reducePct: reducePct,
				reason:    fmt.Sprintf("Reducing concentration from %.1f%% to ~%.1f%%", concentration, target),
			}, true
		}
		return tradeCandidate{}, false

	case monitoring.AlertRiskThreshold:
		if alert.Symbol == "" {
			return tradeCandidate{}, false
		}
		return tradeCandidate{
			action: trading.ActionSellAll,
			reason: "Critical risk threshold exceeded",
		}, true

	case monitoring.AlertIdleCapital:
		// Advisory only, no trade
		r.log.Info().
			Float64("idle_pct", alert.Data["idle_pct"]).
			Msg("Idle capital detected, consider deploying")
		return tradeCandidate{}, false
	}

	return tradeCandidate{}, false
}

// CanTrade reports whether safety limits currently allow a trade on
// the symbol. Daily counters reset lazily on the first check after
// the date rolls over.
func (r *Rebalancer) CanTrade(symbol string) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canTradeLocked(symbol)
}

func (r *Rebalancer) canTradeLocked(symbol string) (bool, string) {
	r.resetDailyLimitsLocked()

	if r.dailyCount >= r.cfg.MaxDailyTrades {
		return false, "Daily trade limit reached"
	}

	if last, ok := r.lastTradeTime[symbol]; ok {
		elapsed := r.now().Sub(last).Minutes()
		cooldown := float64(r.cfg.CooldownMinutes)
		if elapsed < cooldown {
			return false, fmt.Sprintf("Cooldown active (%.0f min left)", cooldown-elapsed)
		}
	}

	return true, "OK"
}

func (r *Rebalancer) resetDailyLimitsLocked() {
	today := midnight(r.now())
	if today.After(r.lastResetDate) {
		r.dailyCount = 0
		r.lastResetDate = today
	}
}

// executeTrade resolves, throttles, and executes (or simulates) one
// trade candidate, recording the outcome. Callbacks and events fire
// after the lock is released so a callback may call back into the
// rebalancer without deadlocking.
func (r *Rebalancer) executeTrade(symbol string, candidate tradeCandidate, alert monitoring.Alert) {
	exec, callbacks, ok := r.executeTradeLocked(symbol, candidate, alert)
	if !ok {
		return
	}

	r.events.Emit(events.TradeExecuted, "rebalancing", map[string]interface{}{
		"execution_id": exec.ID,
		"symbol":       exec.Symbol,
		"action":       string(exec.Action),
		"quantity":     exec.Quantity,
		"value":        exec.TotalValue,
		"success":      exec.Success,
		"dry_run":      r.cfg.DryRun,
	})

	for _, cb := range callbacks {
		r.notify(cb, exec)
	}
}

func (r *Rebalancer) executeTradeLocked(symbol string, candidate tradeCandidate, alert monitoring.Alert) (trading.TradeExecution, []TradeCallback, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ok, reason := r.canTradeLocked(symbol); !ok {
		throttled := &domain.ThrottledError{Symbol: symbol, Reason: reason}
		r.log.Warn().Str("symbol", symbol).Str("reason", reason).Msg("Cannot trade")
		r.events.EmitError("rebalancing", throttled, map[string]interface{}{"alert_id": alert.ID})
		return trading.TradeExecution{}, nil, false
	}

	pos, err := r.repo.PositionBySymbol(r.accountID, symbol)
	if err != nil {
		if candidate.action.IsSell() {
			var notFound *domain.NotFoundError
			if errors.As(err, &notFound) {
				r.log.Warn().Str("symbol", symbol).Msg("No position found")
			} else {
				r.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to load position")
			}
			return trading.TradeExecution{}, nil, false
		}
		pos = nil
	}

	var quantity float64
	switch candidate.action {
	case trading.ActionSellAll:
		quantity = pos.Quantity
	case trading.ActionSell:
		quantity = pos.Quantity * (candidate.reducePct / 100)
		quantity = math.Min(quantity, pos.Quantity*(r.cfg.MaxSingleTradePct/100))
	default:
		return trading.TradeExecution{}, nil, false
	}

	price := alert.Data["current_price"]
	tradeValue := 0.0
	if price > 0 {
		tradeValue = quantity * price
	}

	if tradeValue < r.cfg.MinTradeValue && candidate.action != trading.ActionSellAll {
		r.log.Info().
			Str("symbol", symbol).
			Float64("value", tradeValue).
			Msg("Trade too small, skipping")
		return trading.TradeExecution{}, nil, false
	}

	exec := trading.TradeExecution{
		ID:         uuid.NewString(),
		Timestamp:  r.now(),
		AccountID:  r.accountID,
		Symbol:     symbol,
		Action:     candidate.action,
		Quantity:   quantity,
		Price:      price,
		TotalValue: tradeValue,
		Reason:     candidate.reason,
		AlertType:  string(alert.Type),
		Success:    true,
	}

	if r.cfg.DryRun {
		r.log.Info().
			Str("symbol", symbol).
			Str("action", string(candidate.action)).
			Float64("quantity", quantity).
			Float64("price", price).
			Float64("value", tradeValue).
			Str("reason", candidate.reason).
			Msg("[DRY RUN] Would execute trade")
	} else {
		if err := r.repo.ApplyTrade(r.accountID, symbol, quantity, price); err != nil {
			execErr := &domain.ExecutionError{Symbol: symbol, Err: err}
			exec.Success = false
			exec.Error = execErr.Error()
			r.log.Error().Err(err).Str("symbol", symbol).Msg("Trade failed")
		} else {
			r.log.Info().
				Str("symbol", symbol).
				Str("action", string(candidate.action)).
				Float64("quantity", quantity).
				Float64("price", price).
				Float64("value", tradeValue).
				Msg("Trade executed")
		}
		// Failures are recorded, not hidden
		if err := r.ledger.Record(exec); err != nil {
			r.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to record trade in ledger")
		}
	}

	// Throttle state advances on any outcome, success or failure
	r.dailyCount++
	r.lastTradeTime[symbol] = r.now()
	r.history = append(r.history, exec)

	callbacks := make([]TradeCallback, len(r.callbacks))
	copy(callbacks, r.callbacks)
	return exec, callbacks, true
}

func (r *Rebalancer) notify(cb TradeCallback, exec trading.TradeExecution) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().
				Interface("panic", rec).
				Str("execution_id", exec.ID).
				Msg("Trade callback panicked")
		}
	}()
	cb(exec)
}

// ManualRebalance re-evaluates every alert in the source's current
// snapshot synchronously. Same handling path as automatic delivery,
// invoked in a batch.
func (r *Rebalancer) ManualRebalance() (RebalanceResult, error) {
	r.mu.Lock()
	source := r.source
	tradesBefore := len(r.history)
	r.mu.Unlock()

	if source == nil {
		return RebalanceResult{}, fmt.Errorf("alert source not connected, call Start first")
	}

	before := source.CurrentSnapshot()

	alertsProcessed := 0
	if before != nil {
		alertsProcessed = len(before.Alerts)
		for _, alert := range before.Alerts {
			r.HandleAlert(alert)
		}
	}

	after := source.CurrentSnapshot()

	r.mu.Lock()
	newTrades := make([]trading.TradeExecution, len(r.history)-tradesBefore)
	copy(newTrades, r.history[tradesBefore:])
	r.mu.Unlock()

	result := RebalanceResult{
		Timestamp:       r.now(),
		TradesExecuted:  newTrades,
		AlertsProcessed: alertsProcessed,
		PortfolioBefore: before,
		PortfolioAfter:  after,
		DryRun:          r.cfg.DryRun,
	}

	r.events.Emit(events.RebalanceComplete, "rebalancing", map[string]interface{}{
		"trades":  len(newTrades),
		"alerts":  alertsProcessed,
		"dry_run": r.cfg.DryRun,
	})

	return result, nil
}

// TradeHistory returns the most recent in-memory execution records,
// oldest first.
func (r *Rebalancer) TradeHistory(limit int) []trading.TradeExecution {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := len(r.history) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}
	out := make([]trading.TradeExecution, len(r.history)-start)
	copy(out, r.history[start:])
	return out
}

// DailyStats returns trading statistics for the current calendar day.
func (r *Rebalancer) DailyStats() DailyStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resetDailyLimitsLocked()

	today := midnight(r.now())
	stats := DailyStats{
		TradesRemaining: r.cfg.MaxDailyTrades - r.dailyCount,
		DryRun:          r.cfg.DryRun,
	}

	for _, t := range r.history {
		if midnight(t.Timestamp).Equal(today) {
			stats.TradesToday++
			if t.Success {
				stats.Successful++
				stats.TotalVolume += t.TotalValue
			} else {
				stats.Failed++
			}
		}
	}

	return stats
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
