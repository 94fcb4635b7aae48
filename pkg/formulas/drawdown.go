package formulas

// MaxDrawdown calculates the maximum drawdown from a value curve.
//
// Drawdown Formula:
//
//	Drawdown = (Peak Value - Current Value) / Peak Value
//	Max Drawdown = Maximum of all drawdowns
//
// Args:
//
//	values: Array of portfolio values or a cumulative growth curve
//
// Returns:
//
//	Maximum drawdown as a positive fraction (0.25 = 25% loss from peak).
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, v := range values {
		if v > peak {
			peak = v
		}

		if peak > 0 {
			drawdown := (peak - v) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// MaxDrawdownFromReturns compounds daily returns into a growth curve and
// reports its maximum drawdown.
func MaxDrawdownFromReturns(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return MaxDrawdown(CumulativeCurve(dailyReturns))
}
