package risk

import (
	"github.com/arthalabs/risk-engine/internal/domain"
)

// Metrics is the complete risk picture for one portfolio. Fully determined
// by its inputs; no identity, never mutated after construction.
type Metrics struct {
	PortfolioValue    float64            `json:"portfolio_value"`
	DailyVaR95        float64            `json:"daily_var_95"`
	DailyVaR99        float64            `json:"daily_var_99"`
	ExpectedShortfall float64            `json:"expected_shortfall"`
	MaximumDrawdown   float64            `json:"maximum_drawdown"`
	SharpeRatio       float64            `json:"sharpe_ratio"`
	SortinoRatio      float64            `json:"sortino_ratio"`
	Beta              float64            `json:"beta"`
	Alpha             float64            `json:"alpha"`
	Volatility        float64            `json:"volatility"`
	CorrelationScore  float64            `json:"correlation_score"`
	ConcentrationRisk float64            `json:"concentration_risk"`
	LiquidityRisk     float64            `json:"liquidity_risk"`
	StressTestResults map[string]float64 `json:"stress_test_results"`
	RiskScore         float64            `json:"risk_score"`
	RiskLevel         domain.RiskLevel   `json:"risk_level"`
	Recommendations   []string           `json:"recommendations"`
	Warnings          []string           `json:"warnings,omitempty"`
}

// EmptyMetrics is the defined result for a portfolio with no usable
// holdings: all metrics zero, risk level MEDIUM. "No risk data" is not the
// same as "zero risk", so the level defaults to the middle of the scale.
func EmptyMetrics(portfolioValue float64) Metrics {
	return Metrics{
		PortfolioValue:    portfolioValue,
		StressTestResults: map[string]float64{},
		RiskLevel:         domain.RiskLevelMedium,
		Recommendations:   []string{},
	}
}

// StressImpact is the effect of one scenario on a portfolio.
type StressImpact struct {
	Scenario    string  `json:"scenario"`
	PctImpact   float64 `json:"pct_impact"`   // portfolio-level fraction, e.g. -0.20
	ValueImpact float64 `json:"value_impact"` // absolute value change
}

// CoreMetrics holds the return-distribution statistics produced by the
// metrics calculator before concentration, stress and aggregation fill the
// rest of Metrics.
type CoreMetrics struct {
	DailyVaR95        float64
	DailyVaR99        float64
	ExpectedShortfall float64
	MaximumDrawdown   float64
	SharpeRatio       float64
	SortinoRatio      float64
	Beta              float64
	Alpha             float64
	Volatility        float64
	Warnings          []string
	Usable            bool // false when every holding was excluded
}
