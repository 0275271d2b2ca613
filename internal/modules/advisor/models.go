package advisor

import (
	"time"

	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/risk"
)

// Stance is the perspective an adviser argues from.
type Stance string

const (
	StanceAggressive   Stance = "aggressive"
	StanceConservative Stance = "conservative"
	StanceNeutral      Stance = "neutral"
)

// MarketContext carries technical-analysis signals for the symbol
// under debate.
type MarketContext struct {
	Trend      string  `json:"trend"` // "bullish", "bearish", "sideways"
	RSI        float64 `json:"rsi"`
	Volatility float64 `json:"volatility"`
}

// AdviceRequest is the structured input to an adviser.
type AdviceRequest struct {
	Symbol     string                      `json:"symbol"`
	Assessment risk.PositionRiskAssessment `json:"assessment"`
	Market     *MarketContext              `json:"market,omitempty"`
}

// Advice is the structured decision contract every adviser returns.
type Advice struct {
	Action     risk.PositionAction `json:"action"`
	Confidence float64             `json:"confidence"` // 0-1
	Reasoning  string              `json:"reasoning"`
	KeyPoints  []string            `json:"key_points"`
}

// DebateArgument is one stance's contribution to a debate.
type DebateArgument struct {
	Stance Stance `json:"stance"`
	Advice Advice `json:"advice"`
}

// DebateResult is the joined outcome of a fixed-arity debate.
type DebateResult struct {
	Symbol         string              `json:"symbol"`
	Arguments      []DebateArgument    `json:"arguments"`
	FinalAction    risk.PositionAction `json:"final_action"`
	FinalReasoning string              `json:"final_reasoning"`
	RiskScore      float64             `json:"risk_score"` // 0-100, higher = riskier to hold
	Timestamp      time.Time           `json:"timestamp"`
}
