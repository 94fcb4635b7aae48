package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharpeRatio(t *testing.T) {
	returns := []float64{0.01, -0.005, 0.02, -0.01, 0.015}

	want := (AnnualizedReturn(returns) - 0.06) / AnnualizedVolatility(returns)
	assert.InDelta(t, want, SharpeRatio(returns, 0.06), 1e-12)
}

func TestSharpeRatio_ZeroVolatility(t *testing.T) {
	// Constant returns: volatility is zero, ratio is undefined, reported 0.
	returns := []float64{0.01, 0.01, 0.01, 0.01}
	if got := SharpeRatio(returns, 0.06); got != 0 {
		t.Errorf("Expected 0 for zero volatility, got %f", got)
	}
}

func TestSortinoRatio(t *testing.T) {
	returns := []float64{0.02, -0.01, 0.03, -0.02, 0.01}

	want := (AnnualizedReturn(returns) - 0.06) / DownsideDeviation(returns)
	assert.InDelta(t, want, SortinoRatio(returns, 0.06), 1e-12)

	// No downside deviation: reported 0, not +Inf.
	if SortinoRatio([]float64{0.01, 0.02, 0.03}, 0.06) != 0 {
		t.Error("Expected 0 with no downside deviation")
	}
}

func TestAlpha(t *testing.T) {
	benchmark := []float64{0.01, -0.02, 0.03, -0.01, 0.02}

	// A series identical to the benchmark has beta 1 and alpha 0.
	got := Alpha(benchmark, benchmark, 0.06)
	assert.InDelta(t, 0, got, 1e-9)

	// Doubling the benchmark doubles beta; alpha stays at the CAPM residual.
	doubled := make([]float64, len(benchmark))
	for i, r := range benchmark {
		doubled[i] = 2 * r
	}
	rb := AnnualizedReturn(benchmark)
	want := AnnualizedReturn(doubled) - 0.06 - 2*(rb-0.06)
	assert.InDelta(t, want, Alpha(doubled, benchmark, 0.06), 1e-9)
}
