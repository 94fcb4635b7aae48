package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/arthalabs/risk-engine/internal/config"
	"github.com/arthalabs/risk-engine/internal/domain"
)

// Normalization caps: the sub-metric magnitude that maps to a full 10.
// Documented alongside the weight table in the configuration.
const (
	varFullScale       = 0.04 // 4% daily VaR saturates the VaR component
	shortfallFullScale = 0.05
	drawdownFullScale  = 0.40
)

// Recommendation thresholds, compared in the fixed emission order
// VaR → concentration → correlation → liquidity.
const (
	varRecommendThreshold         = 0.02
	correlationRecommendThreshold = 0.60
	liquidityRecommendThreshold   = 0.30
)

// Aggregator combines risk sub-metrics into one 0-10 score, a risk level
// and an ordered recommendation list.
type Aggregator struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewAggregator creates a new risk score aggregator.
func NewAggregator(cfg *config.Config, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		cfg: cfg,
		log: log.With().Str("component", "risk_aggregator").Logger(),
	}
}

// Aggregate fills RiskScore, RiskLevel and Recommendations on a metrics
// object whose sub-metrics are already populated.
func (a *Aggregator) Aggregate(m *Metrics) {
	w := a.cfg.RiskScoreWeights

	components := []struct {
		weight float64
		value  float64 // normalized to [0, 1]
	}{
		{w.VaR, clamp01(math.Abs(m.DailyVaR95) / varFullScale)},
		{w.Shortfall, clamp01(math.Abs(m.ExpectedShortfall) / shortfallFullScale)},
		{w.Drawdown, clamp01(m.MaximumDrawdown / drawdownFullScale)},
		{w.Concentration, clamp01(m.ConcentrationRisk)},
		{w.Correlation, clamp01(m.CorrelationScore)},
		{w.Liquidity, clamp01(m.LiquidityRisk)},
	}

	var score, weightTotal float64
	for _, c := range components {
		score += c.weight * c.value * 10
		weightTotal += c.weight
	}
	if weightTotal > 0 {
		score /= weightTotal
	}

	m.RiskScore = math.Round(score*100) / 100
	m.RiskLevel = levelForScore(m.RiskScore)
	m.Recommendations = a.recommendations(m)
}

// levelForScore maps a 0-10 score to a risk level using fixed thresholds:
// [0,2) VERY_LOW, [2,4) LOW, [4,6) MEDIUM, [6,7.5) HIGH, [7.5,9) VERY_HIGH,
// [9,10] EXTREME.
func levelForScore(score float64) domain.RiskLevel {
	switch {
	case score < 2:
		return domain.RiskLevelVeryLow
	case score < 4:
		return domain.RiskLevelLow
	case score < 6:
		return domain.RiskLevelMedium
	case score < 7.5:
		return domain.RiskLevelHigh
	case score < 9:
		return domain.RiskLevelVeryHigh
	default:
		return domain.RiskLevelExtreme
	}
}

// recommendations emits one templated sentence per breached threshold in a
// deterministic order so identical inputs yield identical lists.
func (a *Aggregator) recommendations(m *Metrics) []string {
	recs := []string{}

	if math.Abs(m.DailyVaR95) > varRecommendThreshold {
		recs = append(recs, fmt.Sprintf(
			"Daily value at risk of %.1f%% exceeds %.1f%%; consider reducing position sizes or hedging.",
			math.Abs(m.DailyVaR95)*100, varRecommendThreshold*100))
	}

	if m.ConcentrationRisk > 0 {
		recs = append(recs, fmt.Sprintf(
			"Portfolio concentration breaches the %.0f%% single-name or %.0f%% sector limit; diversify across more instruments.",
			a.cfg.SingleNameLimit*100, a.cfg.SectorLimit*100))
	}

	if m.CorrelationScore > correlationRecommendThreshold {
		recs = append(recs, fmt.Sprintf(
			"Average holding correlation of %.2f is high; add uncorrelated assets to improve diversification.",
			m.CorrelationScore))
	}

	if m.LiquidityRisk > liquidityRecommendThreshold {
		recs = append(recs, fmt.Sprintf(
			"%.0f%% of portfolio value is in low-volume instruments; review exit capacity.",
			m.LiquidityRisk*100))
	}

	return recs
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
