package risk

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SHLOK333/xion-trade-miniapp/internal/config"
	"github.com/SHLOK333/xion-trade-miniapp/internal/domain"
)

func testAssessor() *Assessor {
	return NewAssessor(config.RiskConfig{
		StopLossPct:         -10,
		TakeProfitPct:       20,
		MaxConcentrationPct: 25,
	}, zerolog.Nop())
}

func TestAssessPosition_StopLossExit(t *testing.T) {
	a := testAssessor()

	// Entry $150, current $100 -> -33.3% pnl
	pos := domain.Position{
		Symbol:       "AAPL",
		Quantity:     10,
		EntryPrice:   150,
		CurrentPrice: 100,
	}

	result, err := a.AssessPosition(pos, 10000)
	require.NoError(t, err)

	assert.Equal(t, RiskCritical, result.RiskLevel)
	assert.Equal(t, ActionExit, result.RecommendedAction)
	assert.Contains(t, result.ActionReason, "Stop loss")
	assert.InDelta(t, -33.33, result.UnrealizedPnLPct, 0.01)
	assert.InDelta(t, 10.0, result.Concentration, 0.001) // 1000 / 10000
	assert.InDelta(t, 135.0, result.StopLossPrice, 0.001)
	assert.InDelta(t, 180.0, result.TakeProfitPrice, 0.001)
}

func TestAssessPosition_TakeProfitReduce(t *testing.T) {
	a := testAssessor()

	// Entry $100, current $135 -> +35% pnl, 10% concentration
	pos := domain.Position{
		Symbol:       "NVDA",
		Quantity:     10,
		EntryPrice:   100,
		CurrentPrice: 135,
	}

	result, err := a.AssessPosition(pos, 13500)
	require.NoError(t, err)

	assert.Equal(t, RiskModerate, result.RiskLevel)
	assert.Equal(t, ActionReduce, result.RecommendedAction)
	assert.Contains(t, result.ActionReason, "Take profit")
	assert.InDelta(t, 35.0, result.UnrealizedPnLPct, 0.01)
	assert.InDelta(t, 10.0, result.Concentration, 0.001)
}

func TestAssessPosition_RiskLevels(t *testing.T) {
	a := testAssessor()

	tests := []struct {
		name          string
		entry         float64
		current       float64
		total         float64
		expectedLevel RiskLevel
	}{
		{"deep loss is critical", 100, 75, 100000, RiskCritical},
		{"moderate loss is high", 100, 85, 100000, RiskHigh},
		{"concentration near 45pct is high", 100, 100, 2200, RiskHigh},
		{"concentration near 29pct is moderate", 100, 100, 3500, RiskModerate},
		{"big gain is moderate", 100, 135, 100000, RiskModerate},
		{"quiet position is low", 100, 102, 100000, RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := domain.Position{Symbol: "X", Quantity: 10, EntryPrice: tt.entry, CurrentPrice: tt.current}
			result, err := a.AssessPosition(pos, tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedLevel, result.RiskLevel)
		})
	}
}

func TestAssessPosition_RiskNeverDecreasesAsLossDeepens(t *testing.T) {
	a := testAssessor()

	// Fixed concentration, strictly decreasing pnl
	prev := -1
	for _, current := range []float64{110, 100, 95, 91, 89, 85, 81, 79, 70, 50} {
		pos := domain.Position{Symbol: "X", Quantity: 1, EntryPrice: 100, CurrentPrice: current}
		result, err := a.AssessPosition(pos, 1000000)
		require.NoError(t, err)
		if result.RiskLevel.Severity() < prev {
			t.Fatalf("risk severity decreased to %d at current price %.0f", result.RiskLevel.Severity(), current)
		}
		prev = result.RiskLevel.Severity()
	}
}

func TestAssessPosition_ZeroCostBasis(t *testing.T) {
	a := testAssessor()

	pos := domain.Position{Symbol: "FREE", Quantity: 10, EntryPrice: 0, CurrentPrice: 5}
	result, err := a.AssessPosition(pos, 1000)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.UnrealizedPnLPct)
	assert.Equal(t, 50.0, result.UnrealizedPnL)
}

func TestAssessPosition_ZeroPortfolioValue(t *testing.T) {
	a := testAssessor()

	pos := domain.Position{Symbol: "X", Quantity: 10, EntryPrice: 10, CurrentPrice: 10}
	result, err := a.AssessPosition(pos, 0)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Concentration)
}

func TestAssessPosition_FallsBackToEntryPrice(t *testing.T) {
	a := testAssessor()

	pos := domain.Position{Symbol: "X", Quantity: 10, EntryPrice: 50, CurrentPrice: 0}
	result, err := a.AssessPosition(pos, 1000)
	require.NoError(t, err)

	assert.Equal(t, 50.0, result.CurrentPrice)
	assert.Equal(t, 0.0, result.UnrealizedPnL)
}

func TestAssessPosition_Deterministic(t *testing.T) {
	a := testAssessor()

	pos := domain.Position{Symbol: "X", Quantity: 7, EntryPrice: 93.5, CurrentPrice: 101.25}
	first, err := a.AssessPosition(pos, 12345.67)
	require.NoError(t, err)
	second, err := a.AssessPosition(pos, 12345.67)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssessPosition_InvalidInput(t *testing.T) {
	a := testAssessor()

	tests := []struct {
		name string
		pos  domain.Position
	}{
		{"negative quantity", domain.Position{Symbol: "X", Quantity: -1, EntryPrice: 10, CurrentPrice: 10}},
		{"negative entry price", domain.Position{Symbol: "X", Quantity: 1, EntryPrice: -10, CurrentPrice: 10}},
		{"negative current price", domain.Position{Symbol: "X", Quantity: 1, EntryPrice: 10, CurrentPrice: -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.AssessPosition(tt.pos, 1000)
			require.Error(t, err)
			var invalid *domain.InvalidInputError
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestAssessPortfolio_Empty(t *testing.T) {
	a := testAssessor()

	account := domain.Account{ID: "acc1", CashBalance: 5000}
	assessment, err := a.AssessPortfolio(account, nil)
	require.NoError(t, err)

	assert.Equal(t, 100.0, assessment.DiversificationScore)
	assert.Equal(t, RiskLow, assessment.OverallRiskLevel)
	assert.False(t, assessment.RebalanceNeeded)
	assert.Empty(t, assessment.Positions)
	// All cash portfolio still reports the idle-cash suggestion
	require.Len(t, assessment.SuggestedActions, 1)
	assert.Equal(t, "deploy_cash", assessment.SuggestedActions[0].Action)
}

func TestAssessPortfolio_SkipsClosedButRejectsNegative(t *testing.T) {
	a := testAssessor()

	account := domain.Account{ID: "acc1", CashBalance: 1000}

	assessment, err := a.AssessPortfolio(account, []domain.Position{
		{Symbol: "CLOSED", Quantity: 0, EntryPrice: 100, CurrentPrice: 110},
		{Symbol: "AAPL", Quantity: 10, EntryPrice: 100, CurrentPrice: 105},
	})
	require.NoError(t, err)
	require.Len(t, assessment.Positions, 1)
	assert.Equal(t, "AAPL", assessment.Positions[0].Symbol)

	_, err = a.AssessPortfolio(account, []domain.Position{
		{Symbol: "SHORT", Quantity: -5, EntryPrice: 100, CurrentPrice: 105},
	})
	require.Error(t, err)
	var invalid *domain.InvalidInputError
	assert.True(t, errors.As(err, &invalid))
}

func TestAssessPortfolio_TotalsInvariant(t *testing.T) {
	a := testAssessor()

	account := domain.Account{ID: "acc1", CashBalance: 2000}
	positions := []domain.Position{
		{Symbol: "AAPL", Quantity: 10, EntryPrice: 90, CurrentPrice: 100},
		{Symbol: "MSFT", Quantity: 5, EntryPrice: 200, CurrentPrice: 220},
	}

	assessment, err := a.AssessPortfolio(account, positions)
	require.NoError(t, err)

	assert.InDelta(t, assessment.TotalValue, assessment.CashAvailable+assessment.InvestedValue, 0.001)
	assert.InDelta(t, 2100.0, assessment.Positions[1].MarketValue, 0.001)
}

func TestAssessPortfolio_DiversificationScores(t *testing.T) {
	a := testAssessor()

	makePositions := func(n int) []domain.Position {
		out := make([]domain.Position, n)
		for i := range out {
			out[i] = domain.Position{
				Symbol:       string(rune('A' + i)),
				Quantity:     1,
				EntryPrice:   100,
				CurrentPrice: 100,
			}
		}
		return out
	}

	tests := []struct {
		count    int
		expected float64
	}{
		{10, 90},
		{5, 70},
		{3, 50},
		{2, 30},
	}

	for _, tt := range tests {
		// Enough cash that no position breaches concentration limits
		account := domain.Account{ID: "acc1", CashBalance: 10000}
		assessment, err := a.AssessPortfolio(account, makePositions(tt.count))
		require.NoError(t, err)
		assert.Equal(t, tt.expected, assessment.DiversificationScore, "count=%d", tt.count)
	}
}

func TestAssessPortfolio_ConcentrationWarning(t *testing.T) {
	a := testAssessor()

	account := domain.Account{ID: "acc1", CashBalance: 100}
	positions := []domain.Position{
		{Symbol: "BIG", Quantity: 10, EntryPrice: 100, CurrentPrice: 100}, // dominates
		{Symbol: "SMALL", Quantity: 1, EntryPrice: 50, CurrentPrice: 50},
	}

	assessment, err := a.AssessPortfolio(account, positions)
	require.NoError(t, err)

	assert.True(t, assessment.ConcentrationWarning)
	assert.Equal(t, 10.0, assessment.DiversificationScore) // 30 - 20
	assert.Greater(t, assessment.MaxPositionConcentration, 25.0)
	assert.True(t, assessment.RebalanceNeeded)
}

func TestAssessPortfolio_CapitalAtRisk(t *testing.T) {
	a := testAssessor()

	account := domain.Account{ID: "acc1", CashBalance: 100000}
	positions := []domain.Position{
		{Symbol: "WIN", Quantity: 10, EntryPrice: 100, CurrentPrice: 110},  // +100
		{Symbol: "LOSE1", Quantity: 10, EntryPrice: 100, CurrentPrice: 95}, // -50
		{Symbol: "LOSE2", Quantity: 10, EntryPrice: 100, CurrentPrice: 92}, // -80
	}

	assessment, err := a.AssessPortfolio(account, positions)
	require.NoError(t, err)

	assert.InDelta(t, 130.0, assessment.CapitalAtRisk, 0.001)
}

func TestAssessPortfolio_SuggestedActionOrdering(t *testing.T) {
	a := testAssessor()

	account := domain.Account{ID: "acc1", CashBalance: 0}
	positions := []domain.Position{
		{Symbol: "HOLDME", Quantity: 1, EntryPrice: 100, CurrentPrice: 101},
		{Symbol: "REDUCEME", Quantity: 10, EntryPrice: 100, CurrentPrice: 125}, // +25% -> reduce
		{Symbol: "EXITME", Quantity: 10, EntryPrice: 100, CurrentPrice: 60},    // -40% -> exit
	}

	assessment, err := a.AssessPortfolio(account, positions)
	require.NoError(t, err)

	require.NotEmpty(t, assessment.SuggestedActions)
	assert.Equal(t, "EXITME", assessment.SuggestedActions[0].Symbol)
	assert.Equal(t, string(ActionExit), assessment.SuggestedActions[0].Action)

	// HOLD positions are never suggested
	for _, s := range assessment.SuggestedActions {
		assert.NotEqual(t, "HOLDME", s.Symbol)
	}
}

func TestReallocationSuggestions(t *testing.T) {
	a := testAssessor()

	account := domain.Account{ID: "acc1", CashBalance: 10000}
	positions := []domain.Position{
		{Symbol: "EXITME", Quantity: 10, EntryPrice: 100, CurrentPrice: 60},
		{Symbol: "KEEP", Quantity: 10, EntryPrice: 100, CurrentPrice: 101},
	}

	assessment, err := a.AssessPortfolio(account, positions)
	require.NoError(t, err)

	opportunities := []Opportunity{
		{Symbol: "NEW1", Reason: "momentum"},
		{Symbol: "NEW2", Reason: "value"},
	}

	suggestions := a.ReallocationSuggestions(assessment, opportunities)
	require.NotEmpty(t, suggestions)

	// Full market value is freed on exit
	assert.Equal(t, "EXITME", suggestions[0].FromSymbol)
	assert.Equal(t, 1, suggestions[0].Priority)
	assert.InDelta(t, 600.0, suggestions[0].Amount, 0.001)

	// Freed capital split equally across opportunities
	var opportunitySuggestions []ReallocationSuggestion
	for _, s := range suggestions {
		if s.FromSymbol == "freed_capital" {
			opportunitySuggestions = append(opportunitySuggestions, s)
		}
	}
	require.Len(t, opportunitySuggestions, 2)
	assert.InDelta(t, 300.0, opportunitySuggestions[0].Amount, 0.001)
	assert.Equal(t, "NEW1", opportunitySuggestions[0].ToSymbol)
}

func TestReallocationSuggestions_HealthyPortfolio(t *testing.T) {
	a := testAssessor()

	account := domain.Account{ID: "acc1", CashBalance: 100000}
	positions := []domain.Position{
		{Symbol: "OK", Quantity: 10, EntryPrice: 100, CurrentPrice: 102},
	}

	assessment, err := a.AssessPortfolio(account, positions)
	require.NoError(t, err)

	suggestions := a.ReallocationSuggestions(assessment, nil)
	assert.Empty(t, suggestions)
}

func TestPositionRecommendation(t *testing.T) {
	a := testAssessor()

	account := domain.Account{ID: "acc1", CashBalance: 1000}
	positions := []domain.Position{
		{Symbol: "AAPL", Quantity: 10, EntryPrice: 100, CurrentPrice: 105},
	}

	assessment, err := a.AssessPortfolio(account, positions)
	require.NoError(t, err)

	rec, err := a.PositionRecommendation(assessment, "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rec.Symbol)

	_, err = a.PositionRecommendation(assessment, "TSLA")
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}
