package advisor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/risk"
)

// maxKeyPoints caps the key points kept from an adviser response.
const maxKeyPoints = 5

// ParseAdvice decodes a free-text adviser response into the
// structured contract. This is the only place the line-based
// ACTION/CONFIDENCE/REASONING/KEY_POINTS format is interpreted;
// backends that already produce structured output bypass it entirely.
func ParseAdvice(content string) (Advice, error) {
	if strings.TrimSpace(content) == "" {
		return Advice{}, fmt.Errorf("empty adviser response")
	}

	advice := Advice{
		Action:     risk.ActionHold,
		Confidence: 0.7,
		Reasoning:  content,
	}

	inKeyPoints := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		switch {
		case strings.HasPrefix(upper, "ACTION:"):
			advice.Action = parseAction(valueAfterColon(trimmed))
			inKeyPoints = false
		case strings.HasPrefix(upper, "CONFIDENCE:"):
			if v, err := strconv.ParseFloat(valueAfterColon(trimmed), 64); err == nil && v >= 0 && v <= 1 {
				advice.Confidence = v
			}
			inKeyPoints = false
		case strings.HasPrefix(upper, "REASONING:"):
			advice.Reasoning = valueAfterColon(trimmed)
			inKeyPoints = false
		case strings.HasPrefix(upper, "KEY_POINTS:"):
			inKeyPoints = true
		case inKeyPoints && strings.HasPrefix(trimmed, "-"):
			if len(advice.KeyPoints) < maxKeyPoints {
				advice.KeyPoints = append(advice.KeyPoints, strings.TrimSpace(trimmed[1:]))
			}
		}
	}

	return advice, nil
}

func valueAfterColon(line string) string {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parseAction(text string) risk.PositionAction {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "exit"):
		return risk.ActionExit
	case strings.Contains(lower, "reduce"):
		return risk.ActionReduce
	case strings.Contains(lower, "add"):
		return risk.ActionAdd
	default:
		return risk.ActionHold
	}
}
