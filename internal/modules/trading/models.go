package trading

import (
	"fmt"
	"strings"
	"time"
)

// TradeAction represents the kind of rebalancing trade.
type TradeAction string

const (
	ActionBuy      TradeAction = "buy"
	ActionSell     TradeAction = "sell"
	ActionSellAll  TradeAction = "sell_all"
	ActionNoAction TradeAction = "no_action"
)

// IsValid checks if the trade action is valid
func (a TradeAction) IsValid() bool {
	switch a {
	case ActionBuy, ActionSell, ActionSellAll, ActionNoAction:
		return true
	}
	return false
}

// IsSell returns true for either sell variant.
func (a TradeAction) IsSell() bool {
	return a == ActionSell || a == ActionSellAll
}

// TradeActionFromString creates a TradeAction from a string (case-insensitive)
func TradeActionFromString(value string) (TradeAction, error) {
	action := TradeAction(strings.ToLower(strings.TrimSpace(value)))
	if !action.IsValid() {
		return "", fmt.Errorf("invalid trade action: %q", value)
	}
	return action, nil
}

// TradeExecution is the append-only record of one execution attempt,
// real or simulated. Created once, never mutated afterward.
type TradeExecution struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	AccountID  string      `json:"account_id"`
	Symbol     string      `json:"symbol"`
	Action     TradeAction `json:"action"`
	Quantity   float64     `json:"quantity"`
	Price      float64     `json:"price"`
	TotalValue float64     `json:"total_value"`
	Reason     string      `json:"reason"`
	AlertType  string      `json:"alert_type,omitempty"`
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
}
