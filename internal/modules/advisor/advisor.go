package advisor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/risk"
)

// Adviser produces a structured position recommendation from one
// stance. Implementations may call out to an external reasoning
// backend; the contract is always a typed Advice.
type Adviser interface {
	Advise(ctx context.Context, stance Stance, req AdviceRequest) (Advice, error)
}

// DebateService runs the fixed-arity three-stance debate: aggressive,
// conservative, and neutral advisers consulted concurrently, joined
// by a deterministic judge.
type DebateService struct {
	adviser Adviser
	log     zerolog.Logger
}

// NewDebateService creates a new debate service
func NewDebateService(adviser Adviser, log zerolog.Logger) *DebateService {
	return &DebateService{
		adviser: adviser,
		log:     log.With().Str("service", "advisor").Logger(),
	}
}

var stances = []Stance{StanceAggressive, StanceConservative, StanceNeutral}

// AnalyzePosition runs the debate for one position.
func (s *DebateService) AnalyzePosition(ctx context.Context, req AdviceRequest) (DebateResult, error) {
	arguments := make([]DebateArgument, len(stances))

	g, gctx := errgroup.WithContext(ctx)
	for i, stance := range stances {
		i, stance := i, stance
		g.Go(func() error {
			advice, err := s.adviser.Advise(gctx, stance, req)
			if err != nil {
				return fmt.Errorf("%s adviser failed: %w", stance, err)
			}
			arguments[i] = DebateArgument{Stance: stance, Advice: advice}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DebateResult{}, err
	}

	finalAction, reasoning := judge(arguments)

	result := DebateResult{
		Symbol:         req.Symbol,
		Arguments:      arguments,
		FinalAction:    finalAction,
		FinalReasoning: reasoning,
		RiskScore:      riskScore(req.Assessment, arguments),
		Timestamp:      time.Now(),
	}

	s.log.Info().
		Str("symbol", req.Symbol).
		Str("final_action", string(finalAction)).
		Float64("risk_score", result.RiskScore).
		Msg("Debate concluded")

	return result, nil
}

// safetyRank orders actions from safest to boldest for tie-breaking.
var safetyRank = map[risk.PositionAction]int{
	risk.ActionExit:   0,
	risk.ActionReduce: 1,
	risk.ActionHold:   2,
	risk.ActionAdd:    3,
}

// judge joins the arguments deterministically: confidence-weighted
// vote per action, ties resolved toward the safer action.
func judge(arguments []DebateArgument) (risk.PositionAction, string) {
	weights := make(map[risk.PositionAction]float64)
	for _, arg := range arguments {
		weights[arg.Advice.Action] += arg.Advice.Confidence
	}

	actions := make([]risk.PositionAction, 0, len(weights))
	for action := range weights {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool {
		wi, wj := weights[actions[i]], weights[actions[j]]
		if wi != wj {
			return wi > wj
		}
		return safetyRank[actions[i]] < safetyRank[actions[j]]
	})

	winner := actions[0]

	var backing []string
	for _, arg := range arguments {
		if arg.Advice.Action == winner {
			backing = append(backing, fmt.Sprintf("%s: %s", arg.Stance, arg.Advice.Reasoning))
		}
	}
	reasoning := fmt.Sprintf("Consensus %s (weight %.2f).", winner, weights[winner])
	for _, b := range backing {
		reasoning += " " + b
	}

	return winner, reasoning
}

// riskScore maps the assessment and debate outcome to 0-100, higher
// meaning riskier to keep holding.
func riskScore(assessment risk.PositionRiskAssessment, arguments []DebateArgument) float64 {
	score := float64(assessment.RiskLevel.Severity()) * 25

	for _, arg := range arguments {
		switch arg.Advice.Action {
		case risk.ActionExit:
			score += 8 * arg.Advice.Confidence
		case risk.ActionReduce:
			score += 4 * arg.Advice.Confidence
		case risk.ActionAdd:
			score -= 4 * arg.Advice.Confidence
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
