package optimization

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/optimize"

	"github.com/arthalabs/risk-engine/internal/config"
	"github.com/arthalabs/risk-engine/internal/domain"
)

// penaltyWeight is the quadratic penalty multiplier for constraint
// violations in the solver objective.
const penaltyWeight = 1000.0

// Optimizer solves the constrained max-Sharpe mean-variance problem:
//
//	maximize   (w·μ - r_f) / sqrt(w'Σw)
//	subject to Σw = 1
//	           w·μ ≥ target_return
//	           sqrt(w'Σw) ≤ max_volatility
//	           0 ≤ w_i ≤ max_asset_weight
//
// Equality and inequality constraints enter the objective as quadratic
// penalties; per-asset bounds are enforced by projection.
type Optimizer struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewOptimizer creates a new portfolio optimizer.
func NewOptimizer(cfg *config.Config, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		cfg: cfg,
		log: log.With().Str("component", "optimizer").Logger(),
	}
}

// Optimize runs the solver against a portfolio and its return series.
// targetReturn and maxVolatility fall back to configured defaults when nil.
// All failure modes produce a structured Result, never a panic.
func (o *Optimizer) Optimize(
	portfolio *domain.Portfolio,
	series map[string]domain.ReturnSeries,
	targetReturn, maxVolatility *float64,
) Result {
	if err := portfolio.Validate(); err != nil {
		return failure("invalid portfolio: " + err.Error())
	}

	if len(portfolio.Holdings) < 2 {
		return failure("optimization requires at least 2 holdings")
	}

	model, err := BuildRiskModel(portfolio.Symbols(), series)
	if err != nil {
		return failure(err.Error())
	}

	target := o.cfg.DefaultTargetReturn
	if targetReturn != nil {
		target = *targetReturn
	}
	maxVol := o.cfg.DefaultMaxVol
	if maxVolatility != nil {
		maxVol = *maxVolatility
	}

	currentWeights := o.currentWeights(portfolio, model)
	currentReturn := model.PortfolioReturn(currentWeights)
	currentVol := math.Sqrt(math.Max(model.PortfolioVariance(currentWeights), 0))

	bound, relaxed := o.assetBound(len(model.Symbols))
	if relaxed {
		model.Warnings = append(model.Warnings, fmt.Sprintf(
			"max asset weight %.2f cannot sum to 1 across %d assets, relaxed to %.2f",
			o.cfg.MaxAssetWeight, len(model.Symbols), bound))
	}

	optimal, status, err := o.solve(model, target, maxVol, bound)
	if err != nil {
		o.log.Warn().Err(err).Msg("Optimization did not converge")
		result := failure("solver failed to converge: " + err.Error())
		result.Recommendation = "current allocation may already be near-optimal"
		result.CurrentExpectedReturn = currentReturn
		result.CurrentVolatility = currentVol
		result.CurrentSharpe = o.sharpe(currentReturn, currentVol)
		result.Warnings = model.Warnings
		return result
	}

	optimizedReturn := model.PortfolioReturn(optimal)
	optimizedVol := math.Sqrt(math.Max(model.PortfolioVariance(optimal), 0))

	result := Result{
		Success:                 true,
		CurrentExpectedReturn:   currentReturn,
		CurrentVolatility:       currentVol,
		CurrentSharpe:           o.sharpe(currentReturn, currentVol),
		OptimizedExpectedReturn: optimizedReturn,
		OptimizedVolatility:     optimizedVol,
		OptimizedSharpe:         o.sharpe(optimizedReturn, optimizedVol),
		OptimalWeights:          make(map[string]float64, len(model.Symbols)),
		RiskReduction:           math.Max(0, currentVol-optimizedVol),
		Warnings:                model.Warnings,
	}

	for i, symbol := range model.Symbols {
		result.OptimalWeights[symbol] = optimal[i]
		if optimal[i] > bound+1e-6 {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"weight for %s exceeds the %.2f asset cap after normalization", symbol, bound))
		}
	}

	result.Actions = o.rebalanceActions(portfolio, model.Symbols, currentWeights, optimal)
	result.ImplementationCost = float64(len(result.Actions)) * o.cfg.TransactionCostRate

	o.log.Info().
		Int("num_assets", len(model.Symbols)).
		Str("status", status).
		Float64("optimized_sharpe", result.OptimizedSharpe).
		Int("actions", len(result.Actions)).
		Msg("Optimization completed")

	return result
}

// assetBound returns the per-asset weight cap, relaxed to 1/n when the
// configured cap cannot sum to 1 across n assets.
func (o *Optimizer) assetBound(n int) (float64, bool) {
	bound := o.cfg.MaxAssetWeight
	if bound*float64(n) < 1.0 {
		return 1.0 / float64(n), true
	}
	return bound, false
}

// problemFor builds the penalized negative-Sharpe objective and its
// analytic gradient. Both are evaluated on the bound-projected point.
func (o *Optimizer) problemFor(model *RiskModel, targetReturn, maxVol float64, bounds [][2]float64) optimize.Problem {
	n := len(model.Symbols)
	rf := o.cfg.RiskFreeRate

	return optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectToBounds(x, bounds)

			ret := model.PortfolioReturn(w)
			variance := model.PortfolioVariance(w)
			stdDev := math.Sqrt(math.Max(variance, 1e-10))

			obj := -(ret - rf) / stdDev

			sum := 0.0
			for i := range w {
				sum += w[i]
			}
			obj += penaltyWeight * (sum - 1.0) * (sum - 1.0)

			// Inequality penalties are one-sided.
			if short := targetReturn - ret; short > 0 {
				obj += penaltyWeight * short * short
			}
			if excess := stdDev - maxVol; excess > 0 {
				obj += penaltyWeight * excess * excess
			}

			return obj
		},
		Grad: func(grad, x []float64) {
			w := projectToBounds(x, bounds)

			ret := model.PortfolioReturn(w)
			variance := model.PortfolioVariance(w)
			stdDev := math.Sqrt(math.Max(variance, 1e-10))

			// (Σw)_i drives both the Sharpe and volatility terms.
			cov := make([]float64, n)
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					cov[i] += model.Covariance.At(i, j) * w[j]
				}
			}

			sum := 0.0
			for i := range w {
				sum += w[i]
			}

			short := targetReturn - ret
			excess := stdDev - maxVol

			for i := 0; i < n; i++ {
				// d/dw_i of -(μ'w - r_f)/σ
				grad[i] = -model.ExpectedReturns[i]/stdDev +
					(ret-rf)*cov[i]/(stdDev*stdDev*stdDev)

				grad[i] += 2 * penaltyWeight * (sum - 1.0)

				if short > 0 {
					grad[i] -= 2 * penaltyWeight * short * model.ExpectedReturns[i]
				}
				if excess > 0 {
					grad[i] += 2 * penaltyWeight * excess * cov[i] / stdDev
				}
			}
		},
	}
}

// solve minimizes the penalized negative Sharpe ratio, trying BFGS first
// and falling back to Nelder-Mead. Solver panics surface as errors.
func (o *Optimizer) solve(model *RiskModel, targetReturn, maxVol, bound float64) (weights []float64, status string, err error) {
	defer func() {
		if r := recover(); r != nil {
			weights, status = nil, ""
			err = fmt.Errorf("solver panic: %v", r)
		}
	}()

	n := len(model.Symbols)

	bounds := make([][2]float64, n)
	for i := range bounds {
		bounds[i] = [2]float64{0, bound}
	}

	problem := o.problemFor(model, targetReturn, maxVol, bounds)

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	successStatuses := map[optimize.Status]bool{
		optimize.Success:             true,
		optimize.GradientThreshold:   true,
		optimize.FunctionConvergence: true,
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !successStatuses[result.Status] {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return nil, "", err
		}
		if !successStatuses[result.Status] {
			return nil, "", &divergenceError{status: result.Status.String()}
		}
	}

	// Project to bounds and normalize so weights sum to exactly 1.
	weights = projectToBounds(result.X, bounds)
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return nil, "", &divergenceError{status: "degenerate solution"}
	}
	for i := range weights {
		weights[i] = math.Max(0, weights[i]/sum)
	}

	// Renormalize after clipping negatives.
	sum = 0.0
	for _, w := range weights {
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}

	return weights, result.Status.String(), nil
}

// currentWeights returns the portfolio's weights over the modeled symbols,
// renormalized when some holdings were excluded from the model.
func (o *Optimizer) currentWeights(portfolio *domain.Portfolio, model *RiskModel) []float64 {
	valueBySymbol := make(map[string]float64, len(portfolio.Holdings))
	for _, h := range portfolio.Holdings {
		valueBySymbol[h.Symbol] += h.CurrentValue
	}

	var modeledValue float64
	for _, symbol := range model.Symbols {
		modeledValue += valueBySymbol[symbol]
	}

	weights := make([]float64, len(model.Symbols))
	if modeledValue <= 0 {
		return weights
	}
	for i, symbol := range model.Symbols {
		weights[i] = valueBySymbol[symbol] / modeledValue
	}
	return weights
}

// rebalanceActions emits an action for every symbol whose optimal weight
// differs from the current weight by more than the configured threshold.
func (o *Optimizer) rebalanceActions(
	portfolio *domain.Portfolio,
	symbols []string,
	current, optimal []float64,
) []RebalanceAction {
	actions := []RebalanceAction{}
	for i, symbol := range symbols {
		delta := optimal[i] - current[i]
		if math.Abs(delta) <= o.cfg.RebalanceThreshold {
			continue
		}

		action := ActionIncrease
		if delta < 0 {
			action = ActionDecrease
		}

		actions = append(actions, RebalanceAction{
			Symbol:      symbol,
			Action:      action,
			WeightDelta: delta,
			ValueDelta:  delta * portfolio.TotalValue,
		})
	}
	return actions
}

func (o *Optimizer) sharpe(annualReturn, annualVol float64) float64 {
	if annualVol == 0 {
		return 0
	}
	return (annualReturn - o.cfg.RiskFreeRate) / annualVol
}

func projectToBounds(x []float64, bounds [][2]float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(bounds[i][0], math.Min(bounds[i][1], x[i]))
	}
	return proj
}

// divergenceError reports solver non-convergence.
type divergenceError struct {
	status string
}

func (e *divergenceError) Error() string {
	return "optimization did not converge: status=" + e.status
}
