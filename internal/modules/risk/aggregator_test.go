package risk

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/arthalabs/risk-engine/internal/domain"
)

func TestAggregator_AllQuiet(t *testing.T) {
	agg := NewAggregator(testConfig(), zerolog.Nop())

	m := Metrics{}
	agg.Aggregate(&m)

	assert.Zero(t, m.RiskScore)
	assert.Equal(t, domain.RiskLevelVeryLow, m.RiskLevel)
	assert.Empty(t, m.Recommendations)
}

func TestAggregator_AllSaturated(t *testing.T) {
	agg := NewAggregator(testConfig(), zerolog.Nop())

	m := Metrics{
		DailyVaR95:        -0.05, // beyond the 4% full scale
		ExpectedShortfall: -0.06,
		MaximumDrawdown:   0.50,
		ConcentrationRisk: 1.0,
		CorrelationScore:  1.0,
		LiquidityRisk:     1.0,
	}
	agg.Aggregate(&m)

	assert.InDelta(t, 10.0, m.RiskScore, 1e-9)
	assert.Equal(t, domain.RiskLevelExtreme, m.RiskLevel)

	// Every threshold breached: four recommendations, fixed order.
	assert.Len(t, m.Recommendations, 4)
	assert.Contains(t, m.Recommendations[0], "value at risk")
	assert.Contains(t, m.Recommendations[1], "concentration")
	assert.Contains(t, m.Recommendations[2], "correlation")
	assert.Contains(t, m.Recommendations[3], "low-volume")
}

func TestAggregator_WeightedScore(t *testing.T) {
	agg := NewAggregator(testConfig(), zerolog.Nop())

	// Only the VaR component contributes: 2% daily VaR is half of the 4%
	// full scale, so score = 0.25 * 0.5 * 10 = 1.25.
	m := Metrics{DailyVaR95: -0.02}
	agg.Aggregate(&m)

	assert.InDelta(t, 1.25, m.RiskScore, 1e-9)
	assert.Equal(t, domain.RiskLevelVeryLow, m.RiskLevel)
	assert.Empty(t, m.Recommendations, "2% VaR sits exactly on the recommendation threshold")
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.RiskLevel
	}{
		{0, domain.RiskLevelVeryLow},
		{1.99, domain.RiskLevelVeryLow},
		{2, domain.RiskLevelLow},
		{3.99, domain.RiskLevelLow},
		{4, domain.RiskLevelMedium},
		{5.99, domain.RiskLevelMedium},
		{6, domain.RiskLevelHigh},
		{7.49, domain.RiskLevelHigh},
		{7.5, domain.RiskLevelVeryHigh},
		{8.99, domain.RiskLevelVeryHigh},
		{9, domain.RiskLevelExtreme},
		{10, domain.RiskLevelExtreme},
	}

	for _, tt := range tests {
		if got := levelForScore(tt.score); got != tt.want {
			t.Errorf("levelForScore(%.2f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestAggregator_CorrelationRecommendationThreshold(t *testing.T) {
	agg := NewAggregator(testConfig(), zerolog.Nop())

	below := Metrics{CorrelationScore: 0.60}
	agg.Aggregate(&below)
	assert.Empty(t, below.Recommendations)

	above := Metrics{CorrelationScore: 0.61}
	agg.Aggregate(&above)
	assert.Len(t, above.Recommendations, 1)
	assert.Contains(t, above.Recommendations[0], "correlation")
}
