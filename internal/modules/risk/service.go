package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/SHLOK333/xion-trade-miniapp/internal/config"
	"github.com/SHLOK333/xion-trade-miniapp/internal/domain"
)

// defaultConfidence is the confidence assigned to rule-based
// assessments; the advisor module refines it when consulted.
const defaultConfidence = 0.7

// Assessor performs position and portfolio risk assessment.
// It holds no mutable state: every assessment is a pure function of
// its inputs and the immutable thresholds.
type Assessor struct {
	cfg config.RiskConfig
	log zerolog.Logger
}

// NewAssessor creates a new risk assessor
func NewAssessor(cfg config.RiskConfig, log zerolog.Logger) *Assessor {
	return &Assessor{
		cfg: cfg,
		log: log.With().Str("service", "risk").Logger(),
	}
}

// AssessPosition evaluates a single position against the portfolio total.
// Deterministic: identical inputs always yield identical output.
func (a *Assessor) AssessPosition(pos domain.Position, totalPortfolioValue float64) (PositionRiskAssessment, error) {
	if pos.Quantity < 0 {
		return PositionRiskAssessment{}, &domain.InvalidInputError{Field: "quantity", Value: pos.Quantity, Reason: "must not be negative"}
	}
	if pos.EntryPrice < 0 {
		return PositionRiskAssessment{}, &domain.InvalidInputError{Field: "entry_price", Value: pos.EntryPrice, Reason: "must not be negative"}
	}
	if pos.CurrentPrice < 0 {
		return PositionRiskAssessment{}, &domain.InvalidInputError{Field: "current_price", Value: pos.CurrentPrice, Reason: "must not be negative"}
	}
	if totalPortfolioValue < 0 {
		return PositionRiskAssessment{}, &domain.InvalidInputError{Field: "total_portfolio_value", Value: totalPortfolioValue, Reason: "must not be negative"}
	}

	currentPrice := pos.EffectivePrice()
	marketValue := pos.Quantity * currentPrice
	costBasis := pos.CostBasis()
	unrealizedPnL := marketValue - costBasis

	pnlPct := 0.0
	if costBasis > 0 {
		pnlPct = unrealizedPnL / costBasis * 100
	}

	concentration := 0.0
	if totalPortfolioValue > 0 {
		concentration = marketValue / totalPortfolioValue * 100
	}

	riskLevel := a.riskLevel(pnlPct, concentration)
	action, reason := a.determineAction(pnlPct, concentration, riskLevel)

	return PositionRiskAssessment{
		Symbol:            pos.Symbol,
		Quantity:          pos.Quantity,
		EntryPrice:        pos.EntryPrice,
		CurrentPrice:      currentPrice,
		MarketValue:       marketValue,
		UnrealizedPnL:     unrealizedPnL,
		UnrealizedPnLPct:  pnlPct,
		DaysHeld:          pos.DaysHeld(time.Now()),
		RiskLevel:         riskLevel,
		Concentration:     concentration,
		RecommendedAction: action,
		ActionReason:      reason,
		TargetAllocation:  math.Min(concentration, a.cfg.MaxConcentrationPct),
		StopLossPrice:     pos.EntryPrice * (1 + a.cfg.StopLossPct/100),
		TakeProfitPrice:   pos.EntryPrice * (1 + a.cfg.TakeProfitPct/100),
		ConfidenceScore:   defaultConfidence,
	}, nil
}

// riskLevel classifies a position. First matching rule wins.
func (a *Assessor) riskLevel(pnlPct, concentration float64) RiskLevel {
	// Deep losses dominate everything else
	if pnlPct < -20 {
		return RiskCritical
	}
	if pnlPct < -10 {
		return RiskHigh
	}

	if concentration > 40 {
		return RiskHigh
	}
	if concentration > 25 {
		return RiskModerate
	}

	// Large gains are reversal-prone, profit-taking territory
	if pnlPct > 30 {
		return RiskModerate
	}

	return RiskLow
}

// determineAction picks the recommended action. First matching rule wins.
func (a *Assessor) determineAction(pnlPct, concentration float64, level RiskLevel) (PositionAction, string) {
	if pnlPct < a.cfg.StopLossPct {
		return ActionExit, fmt.Sprintf("Stop loss triggered: %.1f%% loss exceeds %.0f%% threshold", pnlPct, a.cfg.StopLossPct)
	}
	if pnlPct > a.cfg.TakeProfitPct {
		return ActionReduce, fmt.Sprintf("Take profit opportunity: %.1f%% gain exceeds %.0f%% threshold", pnlPct, a.cfg.TakeProfitPct)
	}
	if concentration > a.cfg.MaxConcentrationPct {
		return ActionReduce, fmt.Sprintf("Position too concentrated at %.1f%% of portfolio (max %.0f%%)", concentration, a.cfg.MaxConcentrationPct)
	}
	if level == RiskCritical {
		return ActionExit, "Critical risk level - recommend full exit"
	}
	if level == RiskHigh {
		return ActionReduce, "High risk level - consider reducing exposure"
	}
	return ActionHold, "Position within acceptable risk parameters"
}

// AssessPortfolio evaluates every open position and aggregates
// portfolio-level metrics and a prioritized action list.
func (a *Assessor) AssessPortfolio(account domain.Account, positions []domain.Position) (PortfolioRiskAssessment, error) {
	totalInvested := 0.0
	for _, p := range positions {
		totalInvested += p.MarketValue()
	}
	cashAvailable := account.CashBalance
	totalValue := totalInvested + cashAvailable

	assessments := make([]PositionRiskAssessment, 0, len(positions))
	for _, p := range positions {
		// Closed positions carry no risk. Negative quantities are not
		// coerced; AssessPosition rejects them below.
		if p.Quantity == 0 {
			continue
		}
		pa, err := a.AssessPosition(p, totalValue)
		if err != nil {
			return PortfolioRiskAssessment{}, fmt.Errorf("failed to assess %s: %w", p.Symbol, err)
		}
		assessments = append(assessments, pa)
	}

	totalPnL := 0.0
	for _, pa := range assessments {
		totalPnL += pa.UnrealizedPnL
	}

	assessment := PortfolioRiskAssessment{
		AccountID:          account.ID,
		TotalValue:         totalValue,
		CashAvailable:      cashAvailable,
		InvestedValue:      totalInvested,
		TotalUnrealizedPnL: totalPnL,
		Positions:          assessments,
	}

	a.analyzeComposition(&assessment)
	a.generateRecommendations(&assessment)

	return assessment, nil
}

// analyzeComposition sets diversification, concentration and overall
// risk metrics on the assessment.
func (a *Assessor) analyzeComposition(assessment *PortfolioRiskAssessment) {
	if len(assessment.Positions) == 0 {
		// All cash
		assessment.DiversificationScore = 100
		assessment.OverallRiskLevel = RiskLow
		return
	}

	numPositions := len(assessment.Positions)
	switch {
	case numPositions >= 10:
		assessment.DiversificationScore = 90
	case numPositions >= 5:
		assessment.DiversificationScore = 70
	case numPositions >= 3:
		assessment.DiversificationScore = 50
	default:
		assessment.DiversificationScore = 30
	}

	maxConcentration := 0.0
	for _, p := range assessment.Positions {
		if p.Concentration > maxConcentration {
			maxConcentration = p.Concentration
		}
	}
	assessment.MaxPositionConcentration = maxConcentration

	if maxConcentration > a.cfg.MaxConcentrationPct {
		assessment.ConcentrationWarning = true
		assessment.DiversificationScore -= 20
	}

	riskCounts := make(map[RiskLevel]int)
	for _, p := range assessment.Positions {
		riskCounts[p.RiskLevel]++
	}

	total := float64(numPositions)
	switch {
	case riskCounts[RiskCritical] > 0:
		assessment.OverallRiskLevel = RiskCritical
	case float64(riskCounts[RiskHigh]) > total*0.3:
		assessment.OverallRiskLevel = RiskHigh
	case float64(riskCounts[RiskModerate]) > total*0.5:
		assessment.OverallRiskLevel = RiskModerate
	default:
		assessment.OverallRiskLevel = RiskLow
	}

	for _, p := range assessment.Positions {
		if p.RecommendedAction != ActionHold {
			assessment.RebalanceNeeded = true
		}
		if p.UnrealizedPnL < 0 {
			assessment.CapitalAtRisk += math.Abs(p.UnrealizedPnL)
		}
	}
}

// generateRecommendations builds the prioritized suggested-action list.
func (a *Assessor) generateRecommendations(assessment *PortfolioRiskAssessment) {
	sorted := make([]PositionRiskAssessment, len(assessment.Positions))
	copy(sorted, assessment.Positions)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].RecommendedAction.Priority(), sorted[j].RecommendedAction.Priority()
		if pi != pj {
			return pi < pj
		}
		return math.Abs(sorted[i].UnrealizedPnLPct) > math.Abs(sorted[j].UnrealizedPnLPct)
	})

	suggestions := []SuggestedAction{}
	for i, p := range sorted {
		if p.RecommendedAction == ActionHold {
			continue
		}
		suggestions = append(suggestions, SuggestedAction{
			Priority:     i + 1,
			Symbol:       p.Symbol,
			Action:       string(p.RecommendedAction),
			Reason:       p.ActionReason,
			CurrentValue: p.MarketValue,
			PnLPct:       p.UnrealizedPnLPct,
			RiskLevel:    string(p.RiskLevel),
		})
	}

	cashPct := 0.0
	if assessment.TotalValue > 0 {
		cashPct = assessment.CashAvailable / assessment.TotalValue * 100
	}
	if cashPct > 30 {
		suggestions = append(suggestions, SuggestedAction{
			Priority:     len(suggestions) + 1,
			Action:       "deploy_cash",
			Reason:       fmt.Sprintf("Cash position at %.1f%% - consider deploying to opportunities", cashPct),
			CurrentValue: assessment.CashAvailable,
			RiskLevel:    string(RiskLow),
		})
	}

	assessment.SuggestedActions = suggestions
}

// ReallocationSuggestions pairs capital freed from REDUCE/EXIT
// positions against a caller-supplied opportunity list.
func (a *Assessor) ReallocationSuggestions(assessment PortfolioRiskAssessment, opportunities []Opportunity) []ReallocationSuggestion {
	suggestions := []ReallocationSuggestion{}

	var toReduce []PositionRiskAssessment
	for _, p := range assessment.Positions {
		if p.RecommendedAction == ActionReduce || p.RecommendedAction == ActionExit {
			toReduce = append(toReduce, p)
		}
	}

	if len(toReduce) == 0 && len(opportunities) == 0 {
		return suggestions
	}

	freedCapital := 0.0
	for _, p := range toReduce {
		var amount float64
		if p.RecommendedAction == ActionExit {
			amount = p.MarketValue
		} else {
			// Reduce down to the target allocation
			targetValue := assessment.TotalValue * (p.TargetAllocation / 100)
			amount = math.Max(0, p.MarketValue-targetValue)
		}
		freedCapital += amount

		priority := 2
		if p.RecommendedAction == ActionExit {
			priority = 1
		}

		suggestions = append(suggestions, ReallocationSuggestion{
			FromSymbol:      p.Symbol,
			Amount:          amount,
			Reason:          p.ActionReason,
			Priority:        priority,
			ExpectedBenefit: "Reduce risk exposure",
			RiskImpact:      fmt.Sprintf("Reduces portfolio risk from %s", assessment.OverallRiskLevel),
		})
	}

	if len(opportunities) > 0 && freedCapital > 0 {
		top := opportunities
		if len(top) > 3 {
			top = top[:3]
		}
		share := freedCapital / float64(len(top))
		for i, opp := range top {
			reason := opp.Reason
			if reason == "" {
				reason = "Identified opportunity"
			}
			benefit := opp.ExpectedReturn
			if benefit == "" {
				benefit = "Potential upside"
			}
			impact := opp.RiskLevel
			if impact == "" {
				impact = string(RiskModerate)
			}
			suggestions = append(suggestions, ReallocationSuggestion{
				FromSymbol:      "freed_capital",
				ToSymbol:        opp.Symbol,
				Amount:          share,
				Reason:          fmt.Sprintf("New opportunity: %s", reason),
				Priority:        3 + i,
				ExpectedBenefit: benefit,
				RiskImpact:      impact,
			})
		}
	}

	return suggestions
}

// PositionRecommendation returns the assessment for a single symbol.
func (a *Assessor) PositionRecommendation(assessment PortfolioRiskAssessment, symbol string) (*PositionRiskAssessment, error) {
	for i := range assessment.Positions {
		if strings.EqualFold(assessment.Positions[i].Symbol, symbol) {
			p := assessment.Positions[i]
			return &p, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "position", Key: symbol}
}
