package advisor

import (
	"context"
	"fmt"

	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/risk"
)

// RuleAdviser is a deterministic adviser built on threshold
// heuristics. Each stance applies different loss and gain tolerances,
// so the three debate perspectives genuinely disagree on borderline
// positions.
type RuleAdviser struct{}

// NewRuleAdviser creates a new rule-based adviser
func NewRuleAdviser() *RuleAdviser {
	return &RuleAdviser{}
}

// stanceParams are the tolerances one stance argues from.
type stanceParams struct {
	exitLossPct    float64 // exit below this loss
	reduceLossPct  float64 // reduce below this loss
	takeGainPct    float64 // reduce above this gain
	addDipPct      float64 // aggressive averages down between this and the reduce threshold
	maxConcPct     float64
	baseConfidence float64
}

var paramsByStance = map[Stance]stanceParams{
	StanceAggressive: {
		exitLossPct:    -30,
		reduceLossPct:  -20,
		takeGainPct:    50,
		addDipPct:      -8,
		maxConcPct:     40,
		baseConfidence: 0.65,
	},
	StanceConservative: {
		exitLossPct:    -10,
		reduceLossPct:  -5,
		takeGainPct:    15,
		addDipPct:      0, // never averages down
		maxConcPct:     20,
		baseConfidence: 0.8,
	},
	StanceNeutral: {
		exitLossPct:    -20,
		reduceLossPct:  -10,
		takeGainPct:    25,
		addDipPct:      0,
		maxConcPct:     25,
		baseConfidence: 0.7,
	},
}

// Advise evaluates the position from the given stance.
func (a *RuleAdviser) Advise(_ context.Context, stance Stance, req AdviceRequest) (Advice, error) {
	params, ok := paramsByStance[stance]
	if !ok {
		return Advice{}, fmt.Errorf("unknown stance: %q", stance)
	}

	pnl := req.Assessment.UnrealizedPnLPct
	conc := req.Assessment.Concentration

	var action risk.PositionAction
	var reasoning string
	confidence := params.baseConfidence
	var keyPoints []string

	switch {
	case pnl < params.exitLossPct:
		action = risk.ActionExit
		reasoning = fmt.Sprintf("Loss of %.1f%% is beyond the %.0f%% tolerance, capital is better deployed elsewhere", pnl, params.exitLossPct)
		confidence += 0.1
		keyPoints = append(keyPoints, "loss beyond stance tolerance")
	case pnl < params.reduceLossPct:
		action = risk.ActionReduce
		reasoning = fmt.Sprintf("Loss of %.1f%% warrants trimming exposure before it deepens", pnl)
		keyPoints = append(keyPoints, "loss past reduce threshold")
	case stance == StanceAggressive && pnl < params.addDipPct:
		action = risk.ActionAdd
		reasoning = fmt.Sprintf("A %.1f%% dip is a buying opportunity if the thesis holds", pnl)
		confidence -= 0.1
		keyPoints = append(keyPoints, "dip within averaging range")
	case pnl > params.takeGainPct:
		action = risk.ActionReduce
		reasoning = fmt.Sprintf("Gain of %.1f%% exceeds the %.0f%% target, lock in part of the profit", pnl, params.takeGainPct)
		keyPoints = append(keyPoints, "gain past take-profit target")
	case conc > params.maxConcPct:
		action = risk.ActionReduce
		reasoning = fmt.Sprintf("Concentration of %.1f%% exceeds the %.0f%% cap for this risk posture", conc, params.maxConcPct)
		keyPoints = append(keyPoints, "position oversized")
	default:
		action = risk.ActionHold
		reasoning = "Position is within tolerances for this stance"
	}

	if req.Market != nil {
		keyPoints = append(keyPoints, fmt.Sprintf("market trend %s, RSI %.0f", req.Market.Trend, req.Market.RSI))
		// An overbought reading softens conviction in holding winners
		if req.Market.RSI > 70 && action == risk.ActionHold && pnl > 0 {
			confidence -= 0.05
		}
	}

	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}

	return Advice{
		Action:     action,
		Confidence: confidence,
		Reasoning:  reasoning,
		KeyPoints:  keyPoints,
	}, nil
}
