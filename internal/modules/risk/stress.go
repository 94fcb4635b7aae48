package risk

import (
	"math"
	"strings"

	"golang.org/x/exp/rand"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arthalabs/risk-engine/internal/config"
	"github.com/arthalabs/risk-engine/internal/domain"
	"github.com/arthalabs/risk-engine/pkg/formulas"
)

// debtLikeSectors are holdings treated as low-sensitivity under equity
// shocks. These are matched case-insensitively against the holding sector.
var debtLikeSectors = map[string]bool{
	"DEBT":         true,
	"BOND":         true,
	"BONDS":        true,
	"GILT":         true,
	"CASH":         true,
	"LIQUID":       true,
	"MONEY_MARKET": true,
}

// StressEngine applies the configured shock scenario table to a portfolio.
type StressEngine struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewStressEngine creates a new stress test engine.
func NewStressEngine(cfg *config.Config, log zerolog.Logger) *StressEngine {
	return &StressEngine{
		cfg: cfg,
		log: log.With().Str("component", "stress").Logger(),
	}
}

// Run applies every scenario in the table. Equity-like holdings take the
// full shock; debt/cash-like holdings take the configured fraction of it.
func (se *StressEngine) Run(portfolio *domain.Portfolio) map[string]StressImpact {
	results := make(map[string]StressImpact, len(se.cfg.StressScenarios))

	for _, scenario := range se.cfg.StressScenarios {
		var valueImpact float64
		for _, h := range portfolio.Holdings {
			shock := scenario.EquityShock
			if isDebtLike(h.Sector) {
				shock *= se.cfg.DebtSectorShock
			}
			valueImpact += h.CurrentValue * shock
		}

		pct := 0.0
		if portfolio.TotalValue > 0 {
			pct = valueImpact / portfolio.TotalValue
		}

		results[scenario.Name] = StressImpact{
			Scenario:    scenario.Name,
			PctImpact:   pct,
			ValueImpact: valueImpact,
		}
	}

	return results
}

// MonteCarloStress simulates one-day portfolio returns from a normal fitted
// to the historical portfolio distribution and reports the simulated 99%
// tail loss as a fraction of portfolio value. The generator is seeded from
// the series so identical inputs give identical output.
func (se *StressEngine) MonteCarloStress(portfolioReturns []float64, simulations int) float64 {
	if len(portfolioReturns) < 2 {
		return 0
	}
	if simulations <= 0 {
		simulations = 10000
	}

	mean := formulas.Mean(portfolioReturns)
	std := formulas.StdDev(portfolioReturns)
	if std == 0 {
		return 0
	}

	seed := uint64(len(portfolioReturns))
	seed ^= math.Float64bits(mean) ^ math.Float64bits(std)

	normal := distuv.Normal{
		Mu:    mean,
		Sigma: std,
		Src:   rand.NewSource(seed ^ uint64(simulations)),
	}

	simulated := make([]float64, simulations)
	for i := range simulated {
		simulated[i] = normal.Rand()
	}

	return formulas.ExpectedShortfall(simulated, 0.99)
}

func isDebtLike(sector string) bool {
	return debtLikeSectors[strings.ToUpper(strings.TrimSpace(sector))]
}
