package domain

import "time"

// Account represents a trading account with a cash balance.
type Account struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CashBalance float64   `json:"cash_balance"`
	Currency    string    `json:"currency"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Position represents a held quantity of a tradable symbol.
type Position struct {
	ID           int64     `json:"id"`
	AccountID    string    `json:"account_id"`
	Symbol       string    `json:"symbol"`
	Quantity     float64   `json:"quantity"`
	EntryPrice   float64   `json:"entry_price"`
	CurrentPrice float64   `json:"current_price"`
	OpenedAt     time.Time `json:"opened_at"`
	LastUpdated  time.Time `json:"last_updated"`
}

// EffectivePrice returns the current price, or the entry price when
// the current price is unknown.
func (p Position) EffectivePrice() float64 {
	if p.CurrentPrice > 0 {
		return p.CurrentPrice
	}
	return p.EntryPrice
}

// MarketValue returns quantity x effective price.
func (p Position) MarketValue() float64 {
	return p.Quantity * p.EffectivePrice()
}

// CostBasis returns quantity x entry price.
func (p Position) CostBasis() float64 {
	return p.Quantity * p.EntryPrice
}

// DaysHeld returns the number of whole days since the position was opened.
func (p Position) DaysHeld(now time.Time) int {
	if p.OpenedAt.IsZero() || now.Before(p.OpenedAt) {
		return 0
	}
	return int(now.Sub(p.OpenedAt).Hours() / 24)
}
