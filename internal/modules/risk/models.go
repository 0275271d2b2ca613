package risk

// RiskLevel classifies how risky a position or portfolio is.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Severity returns the ordering rank: LOW < MODERATE < HIGH < CRITICAL.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 0
	case RiskModerate:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return 0
	}
}

// PositionAction is the recommended action for a position.
type PositionAction string

const (
	ActionHold       PositionAction = "hold"
	ActionReduce     PositionAction = "reduce"     // partial exit
	ActionExit       PositionAction = "exit"       // full exit
	ActionAdd        PositionAction = "add"        // increase position
	ActionReallocate PositionAction = "reallocate" // move capital elsewhere
)

// Priority returns the urgency rank used to order suggested actions;
// lower means more urgent.
func (a PositionAction) Priority() int {
	switch a {
	case ActionExit:
		return 1
	case ActionReduce:
		return 2
	case ActionReallocate:
		return 3
	case ActionAdd:
		return 4
	default:
		return 5
	}
}

// PositionRiskAssessment is the per-position result of one evaluation
// cycle. Constructed fresh on every assessment, never mutated;
// superseded by the next cycle's assessment for the same symbol.
type PositionRiskAssessment struct {
	Symbol           string  `json:"symbol"`
	Quantity         float64 `json:"quantity"`
	EntryPrice       float64 `json:"entry_price"`
	CurrentPrice     float64 `json:"current_price"`
	MarketValue      float64 `json:"market_value"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	UnrealizedPnLPct float64 `json:"unrealized_pnl_pct"`
	DaysHeld         int     `json:"days_held"`

	RiskLevel     RiskLevel `json:"risk_level"`
	Concentration float64   `json:"concentration"` // % of portfolio value

	RecommendedAction PositionAction `json:"recommended_action"`
	ActionReason      string         `json:"action_reason"`
	TargetAllocation  float64        `json:"target_allocation"`
	StopLossPrice     float64        `json:"stop_loss_price"`
	TakeProfitPrice   float64        `json:"take_profit_price"`
	ConfidenceScore   float64        `json:"confidence_score"` // 0-1
}

// SuggestedAction is one entry in the portfolio's prioritized action list.
type SuggestedAction struct {
	Priority     int     `json:"priority"`
	Symbol       string  `json:"symbol,omitempty"`
	Action       string  `json:"action"`
	Reason       string  `json:"reason"`
	CurrentValue float64 `json:"current_value"`
	PnLPct       float64 `json:"pnl_pct"`
	RiskLevel    string  `json:"risk_level"`
}

// PortfolioRiskAssessment is the portfolio-level result of one
// evaluation cycle.
type PortfolioRiskAssessment struct {
	AccountID          string  `json:"account_id"`
	TotalValue         float64 `json:"total_value"`
	CashAvailable      float64 `json:"cash_available"`
	InvestedValue      float64 `json:"invested_value"`
	TotalUnrealizedPnL float64 `json:"total_unrealized_pnl"`

	OverallRiskLevel         RiskLevel `json:"overall_risk_level"`
	DiversificationScore     float64   `json:"diversification_score"` // 0-100
	ConcentrationWarning     bool      `json:"concentration_warning"`
	MaxPositionConcentration float64   `json:"max_position_concentration"`

	Positions []PositionRiskAssessment `json:"positions"`

	RebalanceNeeded  bool              `json:"rebalance_needed"`
	CapitalAtRisk    float64           `json:"capital_at_risk"`
	SuggestedActions []SuggestedAction `json:"suggested_actions"`
}

// Opportunity is a caller-supplied candidate for freed capital.
type Opportunity struct {
	Symbol         string `json:"symbol"`
	Reason         string `json:"reason"`
	ExpectedReturn string `json:"expected_return,omitempty"`
	RiskLevel      string `json:"risk_level,omitempty"`
}

// ReallocationSuggestion pairs capital freed from a reduced or exited
// position with a new opportunity.
type ReallocationSuggestion struct {
	FromSymbol      string  `json:"from_symbol,omitempty"`
	ToSymbol        string  `json:"to_symbol,omitempty"`
	Amount          float64 `json:"amount"`
	Reason          string  `json:"reason"`
	Priority        int     `json:"priority"` // 1 is highest
	ExpectedBenefit string  `json:"expected_benefit"`
	RiskImpact      string  `json:"risk_impact"`
}
