package optimization

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/arthalabs/risk-engine/internal/domain"
	"github.com/arthalabs/risk-engine/pkg/formulas"
)

// RiskModel holds annualized expected returns and the annualized sample
// covariance matrix for an ordered symbol list.
type RiskModel struct {
	Symbols         []string
	ExpectedReturns []float64     // annualized, aligned with Symbols
	Covariance      *mat.SymDense // annualized, len(Symbols) square
	Warnings        []string
}

// BuildRiskModel derives the model from per-symbol daily return series.
// Series are complete-case aligned on their common most recent
// observations; symbols with fewer than two points are excluded with a
// warning.
func BuildRiskModel(symbols []string, series map[string]domain.ReturnSeries) (*RiskModel, error) {
	var included []string
	var warnings []string
	minLen := 0

	for _, symbol := range symbols {
		rs, ok := series[symbol]
		if !ok || !rs.Sufficient() {
			warnings = append(warnings, fmt.Sprintf("no usable return series for %s, excluded from optimization", symbol))
			continue
		}
		included = append(included, symbol)
		if minLen == 0 || len(rs.DailyReturns) < minLen {
			minLen = len(rs.DailyReturns)
		}
	}

	if len(included) < 2 {
		return nil, fmt.Errorf("need return series for at least 2 symbols, have %d", len(included))
	}

	aligned := make([][]float64, len(included))
	mu := make([]float64, len(included))
	for i, symbol := range included {
		returns := series[symbol].DailyReturns
		aligned[i] = returns[len(returns)-minLen:]
		mu[i] = formulas.AnnualizedReturn(aligned[i])
	}

	cov := mat.NewSymDense(len(included), nil)
	for i := 0; i < len(included); i++ {
		for j := i; j < len(included); j++ {
			c := formulas.Covariance(aligned[i], aligned[j]) * formulas.TradingDaysPerYear
			cov.SetSym(i, j, c)
		}
	}

	return &RiskModel{
		Symbols:         included,
		ExpectedReturns: mu,
		Covariance:      cov,
		Warnings:        warnings,
	}, nil
}

// PortfolioReturn computes μ'w for weights aligned with the model symbols.
func (m *RiskModel) PortfolioReturn(w []float64) float64 {
	var r float64
	for i := range m.Symbols {
		r += m.ExpectedReturns[i] * w[i]
	}
	return r
}

// PortfolioVariance computes w'Σw for weights aligned with the model
// symbols.
func (m *RiskModel) PortfolioVariance(w []float64) float64 {
	var v float64
	n := len(m.Symbols)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v += w[i] * w[j] * m.Covariance.At(i, j)
		}
	}
	return v
}
