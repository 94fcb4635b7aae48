package risk

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arthalabs/risk-engine/internal/config"
	"github.com/arthalabs/risk-engine/internal/domain"
	"github.com/arthalabs/risk-engine/pkg/formulas"
)

// MetricsCalculator computes return-distribution risk statistics for a
// portfolio from per-holding return series and a benchmark series.
type MetricsCalculator struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewMetricsCalculator creates a new metrics calculator.
func NewMetricsCalculator(cfg *config.Config, log zerolog.Logger) *MetricsCalculator {
	return &MetricsCalculator{
		cfg: cfg,
		log: log.With().Str("component", "risk_metrics").Logger(),
	}
}

// Calculate builds the value-weighted portfolio return series and derives
// VaR, expected shortfall, drawdown, volatility, Sharpe/Sortino and CAPM
// beta/alpha against the benchmark.
//
// Holdings whose series are missing or shorter than two points are excluded
// from the weighted series with a warning, never an error. When every
// holding is excluded the result is unusable and the caller falls back to
// the defined empty metrics.
func (mc *MetricsCalculator) Calculate(
	portfolio *domain.Portfolio,
	series map[string]domain.ReturnSeries,
	benchmark domain.ReturnSeries,
) CoreMetrics {
	portfolioReturns, benchReturns, warnings := mc.buildPortfolioSeries(portfolio, series, benchmark)

	if len(portfolioReturns) < 2 {
		mc.log.Warn().
			Int("num_holdings", len(portfolio.Holdings)).
			Msg("No usable return series, returning empty metrics")
		return CoreMetrics{Warnings: warnings, Usable: false}
	}

	rf := mc.cfg.RiskFreeRate

	core := CoreMetrics{
		DailyVaR95:        formulas.HistoricalVaR(portfolioReturns, mc.cfg.VaRConfidence),
		DailyVaR99:        formulas.HistoricalVaR(portfolioReturns, mc.cfg.VaRConfidenceHigh),
		ExpectedShortfall: formulas.ExpectedShortfall(portfolioReturns, mc.cfg.VaRConfidence),
		MaximumDrawdown:   formulas.MaxDrawdownFromReturns(portfolioReturns),
		SharpeRatio:       formulas.SharpeRatio(portfolioReturns, rf),
		SortinoRatio:      formulas.SortinoRatio(portfolioReturns, rf),
		Volatility:        formulas.AnnualizedVolatility(portfolioReturns),
		Warnings:          warnings,
		Usable:            true,
	}

	if len(benchReturns) >= 2 {
		core.Beta = formulas.Beta(portfolioReturns, benchReturns)
		core.Alpha = formulas.Alpha(portfolioReturns, benchReturns, rf)
	} else {
		core.Warnings = append(core.Warnings, "benchmark series too short, beta and alpha set to 0")
	}

	mc.log.Debug().
		Float64("var_95", core.DailyVaR95).
		Float64("volatility", core.Volatility).
		Float64("beta", core.Beta).
		Int("observations", len(portfolioReturns)).
		Msg("Calculated core risk metrics")

	return core
}

// buildPortfolioSeries produces the value-weighted daily return series of
// the portfolio, complete-case aligned with the benchmark: every included
// series is truncated to the common number of most recent observations, so
// each aligned day has data for all included holdings.
func (mc *MetricsCalculator) buildPortfolioSeries(
	portfolio *domain.Portfolio,
	series map[string]domain.ReturnSeries,
	benchmark domain.ReturnSeries,
) (portfolioReturns, benchReturns []float64, warnings []string) {
	type included struct {
		holding domain.Holding
		returns []float64
	}

	var parts []included
	minLen := 0

	for _, h := range portfolio.Holdings {
		rs, ok := series[h.Symbol]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no return series for %s, excluded from risk metrics", h.Symbol))
			continue
		}
		if !rs.Sufficient() {
			warnings = append(warnings, fmt.Sprintf("return series for %s has fewer than 2 points, excluded from risk metrics", h.Symbol))
			continue
		}

		parts = append(parts, included{holding: h, returns: rs.DailyReturns})
		if minLen == 0 || len(rs.DailyReturns) < minLen {
			minLen = len(rs.DailyReturns)
		}
	}

	// The benchmark participates in complete-case alignment when present.
	if len(benchmark.DailyReturns) >= 2 && len(benchmark.DailyReturns) < minLen {
		minLen = len(benchmark.DailyReturns)
	}

	if len(parts) == 0 || minLen < 2 {
		return nil, nil, warnings
	}

	// Renormalize weights over the included holdings only.
	var includedValue float64
	for _, p := range parts {
		includedValue += p.holding.CurrentValue
	}
	if includedValue <= 0 {
		return nil, nil, warnings
	}

	portfolioReturns = make([]float64, minLen)
	for _, p := range parts {
		weight := p.holding.CurrentValue / includedValue
		tail := p.returns[len(p.returns)-minLen:]
		for i, r := range tail {
			portfolioReturns[i] += weight * r
		}
	}

	if len(benchmark.DailyReturns) >= minLen && minLen >= 2 {
		benchReturns = benchmark.DailyReturns[len(benchmark.DailyReturns)-minLen:]
	}

	return portfolioReturns, benchReturns, warnings
}
