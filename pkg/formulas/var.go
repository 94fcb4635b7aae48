package formulas

import (
	"math"
	"sort"
)

// HistoricalVaR calculates Value at Risk at the specified confidence level
// using historical simulation (empirical quantile), not a parametric model.
//
// VaR Formula:
//
//	VaR(c) = the (1-c) quantile of the historical return distribution
//
// Args:
//
//	returns: Historical daily returns (negative values are losses)
//	confidence: Confidence level (e.g., 0.95 for 95%)
//
// Returns:
//
//	The return at the quantile (negative for a loss threshold), or 0 for
//	an empty series.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	// Index of the (1-c) quantile, worst returns first.
	tailProbability := 1.0 - confidence
	idx := int(math.Floor(float64(len(sorted)) * tailProbability))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return sorted[idx]
}

// ExpectedShortfall calculates the mean of all returns at or below the VaR
// threshold at the given confidence level (conditional VaR). For a
// degenerate series where no return falls below the threshold, it equals
// the VaR itself, so ES ≤ VaR always holds.
func ExpectedShortfall(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0.0
	}

	varThreshold := HistoricalVaR(returns, confidence)

	var sum float64
	var count int
	for _, r := range returns {
		if r <= varThreshold {
			sum += r
			count++
		}
	}

	if count == 0 {
		return varThreshold
	}

	return sum / float64(count)
}
