package formulas

// MaxDrawdown calculates the maximum drawdown from a price series.
//
// Drawdown = (peak value - current value) / peak value; the maximum
// over the series is returned as a positive fraction (0.25 = 25% loss
// from peak). Returns 0 for series shorter than two points.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	maxDrawdown := 0.0
	peak := prices[0]

	for _, price := range prices {
		if price > peak {
			peak = price
		}
		if peak > 0 {
			drawdown := (peak - price) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}
