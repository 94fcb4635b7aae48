package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthalabs/risk-engine/internal/cache"
	"github.com/arthalabs/risk-engine/internal/config"
	"github.com/arthalabs/risk-engine/internal/domain"
	"github.com/arthalabs/risk-engine/internal/events"
	"github.com/arthalabs/risk-engine/internal/marketdata"
	"github.com/arthalabs/risk-engine/internal/modules/behavioral"
	"github.com/arthalabs/risk-engine/internal/modules/optimization"
	"github.com/arthalabs/risk-engine/internal/modules/risk"
	"github.com/arthalabs/risk-engine/pkg/formulas"
)

// Monitor orchestrates the risk, behavioral and optimization calculators
// for a user's portfolio. It is stateless per call apart from an
// injectable TTL result cache keyed by user id.
type Monitor struct {
	cfg      *config.Config
	provider marketdata.Provider
	cache    *cache.Cache
	events   *events.Manager
	log      zerolog.Logger

	metrics       *risk.MetricsCalculator
	concentration *risk.ConcentrationAnalyzer
	stress        *risk.StressEngine
	aggregator    *risk.Aggregator
	behavioral    *behavioral.Analyzer
	optimizer     *optimization.Optimizer
}

// New creates a monitor wired to the given provider and cache.
func New(
	cfg *config.Config,
	provider marketdata.Provider,
	resultCache *cache.Cache,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Monitor {
	return &Monitor{
		cfg:      cfg,
		provider: provider,
		cache:    resultCache,
		events:   eventManager,
		log:      log.With().Str("component", "risk_monitor").Logger(),

		metrics:       risk.NewMetricsCalculator(cfg, log),
		concentration: risk.NewConcentrationAnalyzer(cfg, log),
		stress:        risk.NewStressEngine(cfg, log),
		aggregator:    risk.NewAggregator(cfg, log),
		behavioral:    behavioral.NewAnalyzer(cfg, log),
		optimizer:     optimization.NewOptimizer(cfg, log),
	}
}

// CalculatePortfolioRisk computes the full risk picture for a portfolio.
// Results are cached per user for the configured TTL. Malformed portfolios
// (negative quantity or price, broken value invariant) are caller errors;
// an empty portfolio or one with no usable data yields the defined empty
// metrics instead.
func (m *Monitor) CalculatePortfolioRisk(
	ctx context.Context,
	userID string,
	portfolio *domain.Portfolio,
	lookbackDays int,
) (risk.Metrics, error) {
	if err := portfolio.Validate(); err != nil {
		return risk.Metrics{}, fmt.Errorf("invalid portfolio: %w", err)
	}

	if lookbackDays <= 0 {
		lookbackDays = m.cfg.LookbackDays
	}

	cacheKey := "risk:" + userID
	if cached, ok := m.cache.Get(cacheKey); ok {
		if metrics, ok := cached.(risk.Metrics); ok {
			return metrics, nil
		}
	}

	if portfolio.IsEmpty() {
		return risk.EmptyMetrics(0), nil
	}

	symbols := portfolio.Symbols()
	series, err := m.provider.GetReturnSeries(ctx, symbols, lookbackDays)
	if err != nil {
		return risk.Metrics{}, fmt.Errorf("failed to fetch return series: %w", err)
	}

	var warnings []string

	benchmark, err := m.provider.GetBenchmarkSeries(ctx, m.cfg.BenchmarkSymbol, lookbackDays)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("benchmark %s unavailable, beta and alpha set to 0", m.cfg.BenchmarkSymbol))
	}

	// Independent sub-calculations fan out; the aggregation step joins on
	// all of them. A panicking sub-calculation degrades to its zero-value
	// default and a warning instead of failing the request.
	var (
		core          risk.CoreMetrics
		concentration float64
		correlation   float64
		liquidity     float64
		liqWarnings   []string
		stressResults map[string]risk.StressImpact

		mu sync.Mutex
		wg sync.WaitGroup
	)

	runSub := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					m.log.Error().
						Str("sub_calculation", name).
						Interface("panic", r).
						Msg("Sub-calculation failed, degrading to default")
					mu.Lock()
					warnings = append(warnings, fmt.Sprintf("%s calculation failed, using default", name))
					mu.Unlock()
				}
			}()
			fn()
		}()
	}

	runSub("metrics", func() {
		core = m.metrics.Calculate(portfolio, series, benchmark)
	})
	runSub("concentration", func() {
		concentration = m.concentration.ConcentrationRisk(portfolio)
	})
	runSub("correlation", func() {
		correlation = m.concentration.CorrelationScore(portfolio, series)
	})
	runSub("liquidity", func() {
		volumes := m.fetchVolumes(ctx, symbols)
		liquidity, liqWarnings = m.concentration.LiquidityRisk(portfolio, volumes)
	})
	runSub("stress", func() {
		stressResults = m.stress.Run(portfolio)
	})

	wg.Wait()

	warnings = append(warnings, core.Warnings...)
	warnings = append(warnings, liqWarnings...)

	if !core.Usable {
		empty := risk.EmptyMetrics(portfolio.TotalValue)
		empty.Warnings = warnings
		return empty, nil
	}

	metrics := risk.Metrics{
		PortfolioValue:    portfolio.TotalValue,
		DailyVaR95:        core.DailyVaR95,
		DailyVaR99:        core.DailyVaR99,
		ExpectedShortfall: core.ExpectedShortfall,
		MaximumDrawdown:   core.MaximumDrawdown,
		SharpeRatio:       core.SharpeRatio,
		SortinoRatio:      core.SortinoRatio,
		Beta:              core.Beta,
		Alpha:             core.Alpha,
		Volatility:        core.Volatility,
		CorrelationScore:  correlation,
		ConcentrationRisk: concentration,
		LiquidityRisk:     liquidity,
		StressTestResults: make(map[string]float64, len(stressResults)),
		Warnings:          warnings,
	}

	for name, impact := range stressResults {
		metrics.StressTestResults[name] = impact.PctImpact
	}

	m.aggregator.Aggregate(&metrics)

	m.cache.Set(cacheKey, metrics, m.cfg.RiskCacheTTL)

	if metrics.RiskLevel == domain.RiskLevelHigh ||
		metrics.RiskLevel == domain.RiskLevelVeryHigh ||
		metrics.RiskLevel == domain.RiskLevelExtreme {
		m.events.Emit(events.RiskAlert, "risk_monitor", map[string]interface{}{
			"user_id":    userID,
			"risk_score": metrics.RiskScore,
			"risk_level": string(metrics.RiskLevel),
		})
	}

	return metrics, nil
}

// AnalyzeBehavioralPatterns scores a user's trade history for bias
// signatures. Fewer than three trades in the window yields the defined
// empty analysis; malformed trades are caller errors.
func (m *Monitor) AnalyzeBehavioralPatterns(
	ctx context.Context,
	userID string,
	tradeHistory []domain.TradeRecord,
	periodDays int,
) (behavioral.Analysis, error) {
	for i := range tradeHistory {
		if err := tradeHistory[i].Validate(); err != nil {
			return behavioral.Analysis{}, fmt.Errorf("invalid trade record: %w", err)
		}
	}

	if periodDays <= 0 {
		periodDays = m.cfg.AnalysisWindowDays
	}

	cacheKey := "behavioral:" + userID
	if cached, ok := m.cache.Get(cacheKey); ok {
		if analysis, ok := cached.(behavioral.Analysis); ok {
			return analysis, nil
		}
	}

	closes := m.fetchCloseCurves(ctx, tradeHistory)

	analysis := m.behavioral.Analyze(userID, tradeHistory, periodDays, closes, time.Now())

	m.cache.Set(cacheKey, analysis, m.cfg.BehavioralCacheTTL)

	for _, trigger := range analysis.InterventionTriggers {
		m.events.Emit(events.InterventionTriggered, "risk_monitor", map[string]interface{}{
			"user_id": userID,
			"trigger": trigger,
		})
	}

	return analysis, nil
}

// OptimizePortfolio solves the constrained max-Sharpe allocation for a
// portfolio. All solver and input problems surface as a structured
// Result, not an error.
func (m *Monitor) OptimizePortfolio(
	ctx context.Context,
	userID string,
	portfolio *domain.Portfolio,
	targetReturn, maxVolatility *float64,
) (optimization.Result, error) {
	series, err := m.provider.GetReturnSeries(ctx, portfolio.Symbols(), m.cfg.LookbackDays)
	if err != nil {
		return optimization.Result{}, fmt.Errorf("failed to fetch return series: %w", err)
	}

	result := m.optimizer.Optimize(portfolio, series, targetReturn, maxVolatility)

	m.events.Emit(events.OptimizationCompleted, "risk_monitor", map[string]interface{}{
		"user_id": userID,
		"success": result.Success,
		"actions": len(result.Actions),
	})

	return result, nil
}

// InvalidateRisk drops a user's cached risk metrics so the next
// calculation recomputes from fresh inputs. Behavioral results keep their
// own, longer TTL.
func (m *Monitor) InvalidateRisk(userID string) {
	m.cache.Delete("risk:" + userID)
}

// fetchVolumes collects average daily volume per symbol, skipping symbols
// the provider cannot serve.
func (m *Monitor) fetchVolumes(ctx context.Context, symbols []string) map[string]float64 {
	volumes := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		vol, err := m.provider.GetAverageVolume(ctx, symbol)
		if err != nil {
			m.log.Warn().Str("symbol", symbol).Err(err).Msg("Failed to fetch average volume")
			continue
		}
		volumes[symbol] = vol
	}
	return volumes
}

// fetchCloseCurves rebuilds growth-of-1 close curves from return series for
// the symbols a user traded, for run-up detection. Provider failures leave
// the analyzer on its entry-price fallback.
func (m *Monitor) fetchCloseCurves(ctx context.Context, trades []domain.TradeRecord) map[string][]float64 {
	symbolSet := make(map[string]bool)
	for _, t := range trades {
		symbolSet[t.Symbol] = true
	}
	symbols := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbols = append(symbols, s)
	}

	series, err := m.provider.GetReturnSeries(ctx, symbols, m.cfg.LookbackDays)
	if err != nil {
		m.log.Warn().Err(err).Msg("Failed to fetch series for run-up detection")
		return nil
	}

	closes := make(map[string][]float64, len(series))
	for symbol, rs := range series {
		if rs.Sufficient() {
			closes[symbol] = formulas.CumulativeCurve(rs.DailyReturns)
		}
	}
	return closes
}
