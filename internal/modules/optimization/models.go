package optimization

// ActionType tags a rebalancing action direction.
type ActionType string

const (
	ActionIncrease ActionType = "Increase"
	ActionDecrease ActionType = "Decrease"
)

// RebalanceAction is one suggested weight adjustment.
type RebalanceAction struct {
	Symbol      string     `json:"symbol"`
	Action      ActionType `json:"action"`
	WeightDelta float64    `json:"weight_delta"`
	ValueDelta  float64    `json:"value_delta"`
}

// Result is the outcome of one optimization run. Solver failures are
// structured results, never panics or raw errors to the caller.
type Result struct {
	Success        bool   `json:"optimization_successful"`
	Error          string `json:"error,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`

	CurrentExpectedReturn   float64 `json:"current_expected_return"`
	CurrentVolatility       float64 `json:"current_volatility"`
	CurrentSharpe           float64 `json:"current_sharpe"`
	OptimizedExpectedReturn float64 `json:"optimized_expected_return"`
	OptimizedVolatility     float64 `json:"optimized_volatility"`
	OptimizedSharpe         float64 `json:"optimized_sharpe"`

	OptimalWeights     map[string]float64 `json:"optimal_weights,omitempty"`
	Actions            []RebalanceAction  `json:"rebalancing_actions,omitempty"`
	ImplementationCost float64            `json:"implementation_cost"`
	RiskReduction      float64            `json:"risk_reduction"`

	Warnings []string `json:"warnings,omitempty"`
}

// failure builds a structured failure result.
func failure(reason string) Result {
	return Result{
		Success: false,
		Error:   reason,
	}
}
