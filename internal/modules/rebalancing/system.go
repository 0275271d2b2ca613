package rebalancing

import (
	"github.com/rs/zerolog"

	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/monitoring"
)

// AlertCallback is invoked for every alert the monitor raises,
// independently of whether the rebalancer acts on it.
type AlertCallback func(monitoring.Alert)

// System wires the monitor and the rebalancer together for one
// account and exposes status and manual-trigger operations.
type System struct {
	accountID  string
	monitor    *monitoring.Monitor
	rebalancer *Rebalancer
	log        zerolog.Logger

	onAlert []AlertCallback
}

// NewSystem creates the combined monitoring + rebalancing system.
func NewSystem(
	accountID string,
	monitor *monitoring.Monitor,
	rebalancer *Rebalancer,
	log zerolog.Logger,
) *System {
	s := &System{
		accountID:  accountID,
		monitor:    monitor,
		rebalancer: rebalancer,
		log:        log.With().Str("service", "rebalancing_system").Logger(),
	}

	monitor.OnAlert(func(alert monitoring.Alert) {
		for _, cb := range s.onAlert {
			cb(alert)
		}
		s.rebalancer.HandleAlert(alert)
	})

	return s
}

// OnAlert registers an alert notification callback. Must be called
// before Start.
func (s *System) OnAlert(cb AlertCallback) {
	s.onAlert = append(s.onAlert, cb)
}

// OnTrade registers a trade notification callback.
func (s *System) OnTrade(cb TradeCallback) {
	s.rebalancer.OnTrade(cb)
}

// Start begins accepting alerts.
func (s *System) Start() {
	s.log.Info().
		Str("account", s.accountID).
		Bool("dry_run", s.rebalancer.cfg.DryRun).
		Msg("Starting continuous rebalancing system")
	s.rebalancer.Start(s.monitor)
}

// Stop stops the rebalancer. Idempotent.
func (s *System) Stop() {
	s.rebalancer.Stop()
	s.log.Info().Msg("Rebalancing system stopped")
}

// Monitor returns the underlying alert source.
func (s *System) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Rebalancer returns the underlying rebalancer.
func (s *System) Rebalancer() *Rebalancer {
	return s.rebalancer
}

// TriggerRebalance runs a synchronous rebalance over the current
// snapshot's alerts.
func (s *System) TriggerRebalance() (RebalanceResult, error) {
	return s.rebalancer.ManualRebalance()
}

// Status reports the current state of the combined system.
func (s *System) Status() map[string]interface{} {
	stats := s.rebalancer.DailyStats()
	status := map[string]interface{}{
		"account_id":    s.accountID,
		"rebalancing":   s.rebalancer.Running(),
		"dry_run":       stats.DryRun,
		"daily_trades":  stats,
		"recent_trades": s.rebalancer.TradeHistory(5),
	}
	if snapshot := s.monitor.CurrentSnapshot(); snapshot != nil {
		status["portfolio"] = snapshot
	}
	return status
}
