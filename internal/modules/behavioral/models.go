package behavioral

import (
	"github.com/arthalabs/risk-engine/internal/domain"
)

// Analysis is the per-user behavioral summary over one analysis window.
// Value object; fully determined by the trade history and price inputs.
type Analysis struct {
	UserID     string `json:"user_id"`
	PeriodDays int    `json:"period_days"`
	TradeCount int    `json:"trade_count"`

	DetectedBiases []domain.Bias `json:"detected_biases"`

	OvertradingScore    float64 `json:"overtrading_score"`
	RevengeTradingScore float64 `json:"revenge_trading_score"`
	FOMOScore           float64 `json:"fomo_score"`
	LossAversionScore   float64 `json:"loss_aversion_score"`
	ConfidenceScore     float64 `json:"confidence_score"`
	DisciplineScore     float64 `json:"discipline_score"`

	// BehavioralRiskScore is the mean of the risk sub-scores with
	// discipline inverted (10 - discipline).
	BehavioralRiskScore float64 `json:"behavioral_risk_score"`

	ImprovementSuggestions []string `json:"improvement_suggestions"`
	InterventionTriggers   []string `json:"intervention_triggers"`
}

// EmptyAnalysis is the defined result for a window with fewer than the
// minimum number of trades: all scores zero, no biases, never an error.
func EmptyAnalysis(userID string, periodDays int, tradeCount int) Analysis {
	return Analysis{
		UserID:                 userID,
		PeriodDays:             periodDays,
		TradeCount:             tradeCount,
		DetectedBiases:         []domain.Bias{},
		ImprovementSuggestions: []string{"insufficient trading history"},
		InterventionTriggers:   []string{},
	}
}
