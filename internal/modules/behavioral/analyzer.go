package behavioral

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthalabs/risk-engine/internal/config"
	"github.com/arthalabs/risk-engine/internal/domain"
	"github.com/arthalabs/risk-engine/pkg/formulas"
)

const (
	// minTrades is the smallest history that produces a real analysis.
	minTrades = 3

	// revengeSizeMultiple: a trade at or above this multiple of the prior
	// losing trade's notional counts as a revenge sequence.
	revengeSizeMultiple = 1.5

	// runUpPeriodDays and runUpThreshold define a "recent price run-up"
	// for FOMO detection: a 5% gain over 5 sessions.
	runUpPeriodDays = 5
	runUpThreshold  = 0.05
)

// Analyzer scans a user's trade history for behavioral bias signatures.
// All scores are deterministic functions of the inputs; no randomness.
type Analyzer struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewAnalyzer creates a new behavioral analyzer.
func NewAnalyzer(cfg *config.Config, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		cfg: cfg,
		log: log.With().Str("component", "behavioral").Logger(),
	}
}

// Analyze scores the trades with timestamps inside [now - window, now].
// closes optionally supplies recent price series per symbol for run-up
// detection; when absent, run-ups are inferred from entry prices.
func (a *Analyzer) Analyze(
	userID string,
	trades []domain.TradeRecord,
	periodDays int,
	closes map[string][]float64,
	now time.Time,
) Analysis {
	if periodDays <= 0 {
		periodDays = a.cfg.AnalysisWindowDays
	}

	windowed := filterWindow(trades, now, periodDays)
	if len(windowed) < minTrades {
		a.log.Debug().
			Str("user_id", userID).
			Int("trades_in_window", len(windowed)).
			Msg("Insufficient trading history for behavioral analysis")
		return EmptyAnalysis(userID, periodDays, len(windowed))
	}

	sort.Slice(windowed, func(i, j int) bool {
		return windowed[i].Timestamp.Before(windowed[j].Timestamp)
	})

	analysis := Analysis{
		UserID:     userID,
		PeriodDays: periodDays,
		TradeCount: len(windowed),

		OvertradingScore:    a.overtradingScore(windowed, periodDays),
		RevengeTradingScore: a.revengeScore(windowed),
		FOMOScore:           a.fomoScore(windowed, closes, now),
		LossAversionScore:   a.lossAversionScore(windowed),
		ConfidenceScore:     a.confidenceScore(windowed),
		DisciplineScore:     a.disciplineScore(windowed),
	}

	analysis.BehavioralRiskScore = mean5(
		analysis.OvertradingScore,
		analysis.RevengeTradingScore,
		analysis.FOMOScore,
		analysis.LossAversionScore,
		10-analysis.DisciplineScore,
	)

	a.detectBiases(&analysis)

	return analysis
}

// overtradingScore maps trades per day to 0-10 via fixed breakpoints.
func (a *Analyzer) overtradingScore(trades []domain.TradeRecord, periodDays int) float64 {
	perDay := float64(len(trades)) / float64(periodDays)
	switch {
	case perDay > 5:
		return 10
	case perDay > 3:
		return 8
	case perDay > 2:
		return 6
	case perDay > 1:
		return 4
	default:
		return 2
	}
}

// revengeScore counts revenge sequences: a losing trade immediately
// followed by one whose notional is at least 1.5x the loser's.
func (a *Analyzer) revengeScore(trades []domain.TradeRecord) float64 {
	count := 0
	for i := 1; i < len(trades); i++ {
		prev := trades[i-1]
		if !prev.IsClosed() || *prev.PnL >= 0 {
			continue
		}
		if prev.Notional() <= 0 {
			continue
		}
		if trades[i].Notional() >= revengeSizeMultiple*prev.Notional() {
			count++
		}
	}

	return math.Min(float64(count)*2, 10)
}

// fomoScore measures how often the user buys into a recent run-up. With
// price series available, a buy chases when the symbol had gained at
// least 5% over the five sessions ending on the trade date; run-ups for
// trades the series does not cover are inferred from the user's own
// entry prices in the prior 5 days. Series end on the analysis date,
// one close per day.
func (a *Analyzer) fomoScore(trades []domain.TradeRecord, closes map[string][]float64, now time.Time) float64 {
	var buys, chasing int
	for i, t := range trades {
		if t.Action != domain.TradeActionBuy {
			continue
		}
		buys++

		if series, ok := closes[t.Symbol]; ok {
			daysAgo := int(now.Sub(t.Timestamp).Hours() / 24)
			idx := len(series) - 1 - daysAgo
			if up := formulas.RunUpAt(series, idx, runUpPeriodDays); up != nil {
				if *up >= runUpThreshold {
					chasing++
				}
				continue
			}
		}

		// Fallback: compare against the lowest entry price this user paid
		// for the same symbol in the preceding run-up window.
		low := math.Inf(1)
		for j := 0; j < i; j++ {
			prior := trades[j]
			if prior.Symbol != t.Symbol {
				continue
			}
			age := t.Timestamp.Sub(prior.Timestamp)
			if age > time.Duration(runUpPeriodDays)*24*time.Hour {
				continue
			}
			if prior.EntryPrice < low {
				low = prior.EntryPrice
			}
		}
		if !math.IsInf(low, 1) && low > 0 && t.EntryPrice >= low*(1+runUpThreshold) {
			chasing++
		}
	}

	if buys == 0 {
		return 0
	}

	fraction := float64(chasing) / float64(buys)
	switch {
	case fraction > 0.6:
		return 10
	case fraction > 0.4:
		return 8
	case fraction > 0.25:
		return 6
	case fraction > 0.1:
		return 4
	default:
		return 2
	}
}

// lossAversionScore measures the asymmetry between how large losses run
// versus how early profits are taken: mean loss magnitude over mean win
// magnitude among closed trades.
func (a *Analyzer) lossAversionScore(trades []domain.TradeRecord) float64 {
	var lossSum, winSum float64
	var losses, wins int
	for _, t := range trades {
		if !t.IsClosed() {
			continue
		}
		if *t.PnL < 0 {
			lossSum += -*t.PnL
			losses++
		} else if *t.PnL > 0 {
			winSum += *t.PnL
			wins++
		}
	}

	if losses == 0 || wins == 0 {
		return 0
	}

	ratio := (lossSum / float64(losses)) / (winSum / float64(wins))
	switch {
	case ratio > 2.5:
		return 10
	case ratio > 2.0:
		return 8
	case ratio > 1.5:
		return 6
	case ratio > 1.2:
		return 4
	default:
		return 2
	}
}

// confidenceScore is the closed-trade win rate scaled to 0-10.
func (a *Analyzer) confidenceScore(trades []domain.TradeRecord) float64 {
	var closed, wins int
	for _, t := range trades {
		if !t.IsClosed() {
			continue
		}
		closed++
		if *t.PnL > 0 {
			wins++
		}
	}

	if closed == 0 {
		return 0
	}

	return math.Round(float64(wins)/float64(closed)*100) / 10
}

// disciplineScore rewards consistent position sizing: the coefficient of
// variation of trade notionals mapped inversely to 0-10.
func (a *Analyzer) disciplineScore(trades []domain.TradeRecord) float64 {
	notionals := make([]float64, 0, len(trades))
	for _, t := range trades {
		notionals = append(notionals, t.Notional())
	}

	m := formulas.Mean(notionals)
	if m <= 0 {
		return 0
	}

	cv := formulas.StdDev(notionals) / m
	switch {
	case cv <= 0.2:
		return 10
	case cv <= 0.4:
		return 8
	case cv <= 0.6:
		return 6
	case cv <= 0.8:
		return 4
	default:
		return 2
	}
}

// detectBiases raises bias flags when sub-scores exceed their configured
// thresholds, and emits matching suggestions and intervention triggers in
// a fixed order.
func (a *Analyzer) detectBiases(analysis *Analysis) {
	th := a.cfg.BiasThresholds
	analysis.DetectedBiases = []domain.Bias{}
	analysis.ImprovementSuggestions = []string{}
	analysis.InterventionTriggers = []string{}

	flag := func(bias domain.Bias, suggestion string) {
		analysis.DetectedBiases = append(analysis.DetectedBiases, bias)
		analysis.ImprovementSuggestions = append(analysis.ImprovementSuggestions, suggestion)
		analysis.InterventionTriggers = append(analysis.InterventionTriggers,
			fmt.Sprintf("bias_detected:%s", bias))
	}

	if analysis.OvertradingScore > th.Overconfidence {
		flag(domain.BiasOverconfidence,
			"Trading frequency is very high; set a daily trade limit and review each entry against your plan.")
	}
	if analysis.RevengeTradingScore > th.Revenge {
		flag(domain.BiasRevengeTrading,
			"Position sizes grow sharply after losses; pause trading for a session after a losing trade.")
	}
	if analysis.FOMOScore > th.FOMO {
		flag(domain.BiasFOMO,
			"Many entries chase recent run-ups; wait for pullbacks instead of buying strength.")
	}
	if analysis.LossAversionScore > th.LossAversion {
		flag(domain.BiasLossAversion,
			"Losses run much larger than wins; predefine stop-losses and honor them.")
	}
	if 10-analysis.DisciplineScore > th.Anchoring {
		flag(domain.BiasAnchoring,
			"Position sizing is erratic; size positions as a fixed fraction of portfolio value.")
	}
	if analysis.RevengeTradingScore > th.Herding && analysis.FOMOScore > th.Herding {
		flag(domain.BiasHerding,
			"Entries cluster around momentum and loss recovery; trade from your own signals, not the crowd's.")
	}
}

// filterWindow keeps trades with timestamp >= now - periodDays.
func filterWindow(trades []domain.TradeRecord, now time.Time, periodDays int) []domain.TradeRecord {
	cutoff := now.AddDate(0, 0, -periodDays)
	var out []domain.TradeRecord
	for _, t := range trades {
		if !t.Timestamp.Before(cutoff) && !t.Timestamp.After(now) {
			out = append(out, t)
		}
	}
	return out
}

func mean5(a, b, c, d, e float64) float64 {
	return math.Round((a+b+c+d+e)/5*100) / 100
}
