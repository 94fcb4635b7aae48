package risk

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arthalabs/risk-engine/internal/config"
	"github.com/arthalabs/risk-engine/internal/domain"
	"github.com/arthalabs/risk-engine/pkg/formulas"
)

// ConcentrationAnalyzer computes single-name and sector concentration,
// pairwise correlation risk, and liquidity risk for a portfolio.
type ConcentrationAnalyzer struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewConcentrationAnalyzer creates a new analyzer.
func NewConcentrationAnalyzer(cfg *config.Config, log zerolog.Logger) *ConcentrationAnalyzer {
	return &ConcentrationAnalyzer{
		cfg: cfg,
		log: log.With().Str("component", "concentration").Logger(),
	}
}

// ConcentrationRisk compares the largest single-name weight against the
// single-name limit and sector aggregates against the sector limit. The
// score is the ratio of the largest breach to its limit, capped at 1.0,
// or 0 when nothing breaches.
func (ca *ConcentrationAnalyzer) ConcentrationRisk(portfolio *domain.Portfolio) float64 {
	if portfolio.IsEmpty() || portfolio.TotalValue <= 0 {
		return 0
	}

	weights := portfolio.Weights()

	var maxWeight float64
	sectorWeights := make(map[string]float64)
	for _, h := range portfolio.Holdings {
		w := weights[h.Symbol]
		if w > maxWeight {
			maxWeight = w
		}
		sectorWeights[h.Sector] += w
	}

	var maxSector float64
	for _, w := range sectorWeights {
		if w > maxSector {
			maxSector = w
		}
	}

	var worst float64
	if maxWeight > ca.cfg.SingleNameLimit {
		worst = (maxWeight - ca.cfg.SingleNameLimit) / ca.cfg.SingleNameLimit
	}
	if maxSector > ca.cfg.SectorLimit {
		sectorBreach := (maxSector - ca.cfg.SectorLimit) / ca.cfg.SectorLimit
		if sectorBreach > worst {
			worst = sectorBreach
		}
	}

	if worst > 1.0 {
		worst = 1.0
	}

	return worst
}

// CorrelationScore is the mean pairwise Pearson correlation of holding
// return series, weighted by the product of the two holdings' portfolio
// weights. A single-holding portfolio has correlation risk 0 by definition.
func (ca *ConcentrationAnalyzer) CorrelationScore(
	portfolio *domain.Portfolio,
	series map[string]domain.ReturnSeries,
) float64 {
	if len(portfolio.Holdings) < 2 || portfolio.TotalValue <= 0 {
		return 0
	}

	weights := portfolio.Weights()

	var weightedSum, weightTotal float64
	holdings := portfolio.Holdings
	for i := 0; i < len(holdings); i++ {
		si, ok := series[holdings[i].Symbol]
		if !ok || !si.Sufficient() {
			continue
		}
		for j := i + 1; j < len(holdings); j++ {
			sj, ok := series[holdings[j].Symbol]
			if !ok || !sj.Sufficient() {
				continue
			}

			// Align the pair on their common most recent observations.
			n := len(si.DailyReturns)
			if len(sj.DailyReturns) < n {
				n = len(sj.DailyReturns)
			}
			corr := formulas.Correlation(
				si.DailyReturns[len(si.DailyReturns)-n:],
				sj.DailyReturns[len(sj.DailyReturns)-n:],
			)

			pairWeight := weights[holdings[i].Symbol] * weights[holdings[j].Symbol]
			weightedSum += pairWeight * corr
			weightTotal += pairWeight
		}
	}

	if weightTotal == 0 {
		return 0
	}

	return weightedSum / weightTotal
}

// LiquidityRisk is the value-weighted fraction of the portfolio held in
// instruments whose average daily volume falls below the configured
// threshold. Symbols with unknown volume are not flagged but produce a
// warning.
func (ca *ConcentrationAnalyzer) LiquidityRisk(
	portfolio *domain.Portfolio,
	volumes map[string]float64,
) (float64, []string) {
	if portfolio.IsEmpty() || portfolio.TotalValue <= 0 {
		return 0, nil
	}

	var warnings []string
	var flaggedValue float64
	for _, h := range portfolio.Holdings {
		vol, ok := volumes[h.Symbol]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no volume data for %s, liquidity unknown", h.Symbol))
			continue
		}
		if vol < ca.cfg.LiquidityVolume {
			flaggedValue += h.CurrentValue
		}
	}

	return flaggedValue / portfolio.TotalValue, warnings
}
