package behavioral

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/arthalabs/risk-engine/internal/config"
	"github.com/arthalabs/risk-engine/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		AnalysisWindowDays: 90,
		BiasThresholds: config.BiasThresholds{
			Overconfidence: 7,
			Revenge:        5,
			FOMO:           6,
			LossAversion:   7,
			Anchoring:      6,
			Herding:        5,
		},
	}
}

var analysisNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func buy(symbol string, price, qty float64, daysAgo int) domain.TradeRecord {
	return domain.TradeRecord{
		UserID:     "user-1",
		Symbol:     symbol,
		Action:     domain.TradeActionBuy,
		EntryPrice: price,
		Quantity:   qty,
		Timestamp:  analysisNow.AddDate(0, 0, -daysAgo),
	}
}

func closed(trade domain.TradeRecord, pnl float64) domain.TradeRecord {
	trade.PnL = &pnl
	return trade
}

func TestAnalyze_InsufficientHistory(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	trades := []domain.TradeRecord{
		buy("A", 100, 1, 5),
		buy("B", 100, 1, 4),
	}

	analysis := analyzer.Analyze("user-1", trades, 30, nil, analysisNow)

	assert.Equal(t, 2, analysis.TradeCount)
	assert.Zero(t, analysis.BehavioralRiskScore)
	assert.Empty(t, analysis.DetectedBiases)
	assert.Equal(t, []string{"insufficient trading history"}, analysis.ImprovementSuggestions)
}

func TestAnalyze_WindowFiltersOldTrades(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	trades := []domain.TradeRecord{
		buy("A", 100, 1, 5),
		buy("B", 100, 1, 4),
		buy("C", 100, 1, 45), // outside the 30-day window
	}

	analysis := analyzer.Analyze("user-1", trades, 30, nil, analysisNow)

	assert.Equal(t, 2, analysis.TradeCount, "only in-window trades count")
	assert.Equal(t, []string{"insufficient trading history"}, analysis.ImprovementSuggestions)
}

func TestRevengeScore_SizeMultipleBoundary(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	// A losing trade of notional 100 followed by a trade of notional 150
	// (exactly 1.5x) counts as one revenge sequence.
	atBoundary := []domain.TradeRecord{
		closed(buy("A", 100, 1, 10), -50),
		buy("B", 150, 1, 9),
		buy("C", 100, 1, 8),
	}
	assert.InDelta(t, 2.0, analyzer.revengeScore(copyTrades(atBoundary)), 1e-9)

	// Notional 149 stays under the multiple: no sequence.
	below := []domain.TradeRecord{
		closed(buy("A", 100, 1, 10), -50),
		buy("B", 149, 1, 9),
		buy("C", 100, 1, 8),
	}
	assert.Zero(t, analyzer.revengeScore(copyTrades(below)))

	// A winning prior trade never starts a sequence.
	afterWin := []domain.TradeRecord{
		closed(buy("A", 100, 1, 10), 50),
		buy("B", 200, 1, 9),
		buy("C", 100, 1, 8),
	}
	assert.Zero(t, analyzer.revengeScore(copyTrades(afterWin)))
}

func TestRevengeScore_CountsCap(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	// Six loss-then-double sequences saturate the score at 10.
	var trades []domain.TradeRecord
	for i := 0; i < 7; i++ {
		trades = append(trades, closed(buy("A", 100, 1, 20-i), -10))
	}
	for i := 1; i < len(trades); i++ {
		trades[i].EntryPrice = trades[i-1].EntryPrice * 2
	}
	assert.InDelta(t, 10.0, analyzer.revengeScore(copyTrades(trades)), 1e-9)
}

func TestFOMOScore_WithPriceSeries(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	// The five-session gain reaches 5% only on the last two days of the
	// series: 4% at index 7, 5% at 8, 6% at 9.
	running := []float64{100, 100, 100, 100, 100, 100, 103, 104, 105, 106}
	closes := map[string][]float64{"HOT": running}

	trades := []domain.TradeRecord{
		buy("HOT", 104, 1, 2),
		buy("HOT", 105, 1, 1),
		buy("HOT", 106, 1, 0),
	}

	// Two of three buys chase: fraction 0.67 lands in the top bucket.
	score := analyzer.fomoScore(trades, closes, analysisNow)
	assert.InDelta(t, 10.0, score, 1e-9)
}

func TestFOMOScore_MeasuredAtTradeTime(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	// The latest five-session gain is 6%, but both buys predate the
	// run-up: 0% at index 5, 3% at 6. Neither counts as chasing.
	running := []float64{100, 100, 100, 100, 100, 100, 103, 104, 105, 106}
	closes := map[string][]float64{"HOT": running}

	trades := []domain.TradeRecord{
		buy("HOT", 100, 1, 4),
		buy("HOT", 103, 1, 3),
	}

	score := analyzer.fomoScore(trades, closes, analysisNow)
	assert.InDelta(t, 2.0, score, 1e-9)
}

func TestFOMOScore_EntryPriceFallback(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	// Without price series, a buy at 5%+ above the user's own recent entry
	// in the same symbol counts as chasing.
	trades := []domain.TradeRecord{
		buy("A", 100, 1, 4),
		buy("A", 106, 1, 2),
		buy("B", 100, 1, 1),
	}

	// 1 of 3 buys chasing: fraction 0.33 lands in the (0.25, 0.4] bucket.
	score := analyzer.fomoScore(trades, nil, analysisNow)
	assert.InDelta(t, 6.0, score, 1e-9)
}

func TestLossAversionScore(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	// Average loss 300 vs average win 100: ratio 3 maps to the top bucket.
	trades := []domain.TradeRecord{
		closed(buy("A", 100, 1, 10), -300),
		closed(buy("B", 100, 1, 9), 100),
		closed(buy("C", 100, 1, 8), 100),
		closed(buy("D", 100, 1, 7), -300),
	}
	assert.InDelta(t, 10.0, analyzer.lossAversionScore(trades), 1e-9)

	// All winners: asymmetry undefined, reported 0.
	winners := []domain.TradeRecord{
		closed(buy("A", 100, 1, 10), 50),
		closed(buy("B", 100, 1, 9), 60),
	}
	assert.Zero(t, analyzer.lossAversionScore(winners))
}

func TestConfidenceScore(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	// Two wins out of three closed trades: 66.67% win rate scores 6.7.
	trades := []domain.TradeRecord{
		closed(buy("A", 100, 1, 10), 50),
		closed(buy("B", 100, 1, 9), 50),
		closed(buy("C", 100, 1, 8), -50),
		buy("D", 100, 1, 7), // open, ignored
	}
	assert.InDelta(t, 6.7, analyzer.confidenceScore(trades), 1e-9)

	assert.Zero(t, analyzer.confidenceScore([]domain.TradeRecord{buy("A", 100, 1, 1)}))
}

func TestDisciplineScore(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	// Identical notionals: zero variation, perfect discipline.
	uniform := []domain.TradeRecord{
		buy("A", 100, 1, 3),
		buy("B", 100, 1, 2),
		buy("C", 100, 1, 1),
	}
	assert.InDelta(t, 10.0, analyzer.disciplineScore(uniform), 1e-9)

	// Wildly varying notionals land in the bottom bucket.
	erratic := []domain.TradeRecord{
		buy("A", 100, 1, 3),
		buy("B", 100, 50, 2),
		buy("C", 100, 2, 1),
	}
	assert.InDelta(t, 2.0, analyzer.disciplineScore(erratic), 1e-9)
}

func TestOvertradingScore(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	tests := []struct {
		trades     int
		periodDays int
		want       float64
	}{
		{trades: 3, periodDays: 30, want: 2},
		{trades: 45, periodDays: 30, want: 4},  // 1.5/day
		{trades: 75, periodDays: 30, want: 6},  // 2.5/day
		{trades: 120, periodDays: 30, want: 8}, // 4/day
		{trades: 180, periodDays: 30, want: 10},
	}

	for _, tt := range tests {
		trades := make([]domain.TradeRecord, tt.trades)
		for i := range trades {
			trades[i] = buy("A", 100, 1, 1)
		}
		got := analyzer.overtradingScore(trades, tt.periodDays)
		if got != tt.want {
			t.Errorf("overtradingScore(%d trades, %d days) = %.0f, want %.0f",
				tt.trades, tt.periodDays, got, tt.want)
		}
	}
}

func TestAnalyze_DetectsBiasesInFixedOrder(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	// Heavy revenge pattern plus FOMO chasing pushes both scores over the
	// herding threshold as well.
	running := []float64{100, 100, 100, 100, 100, 100, 104, 106, 108, 110}
	closes := map[string][]float64{"HOT": running}

	var trades []domain.TradeRecord
	price := 100.0
	for i := 0; i < 8; i++ {
		trades = append(trades, closed(buy("HOT", price, 1, 20-i), -10))
		price *= 2
	}

	analysis := analyzer.Analyze("user-1", trades, 30, closes, analysisNow)

	assert.Contains(t, analysis.DetectedBiases, domain.BiasRevengeTrading)
	assert.Contains(t, analysis.DetectedBiases, domain.BiasFOMO)
	assert.Contains(t, analysis.DetectedBiases, domain.BiasHerding)

	// Triggers mirror the detected biases one-to-one.
	assert.Len(t, analysis.InterventionTriggers, len(analysis.DetectedBiases))
	for i, bias := range analysis.DetectedBiases {
		assert.Equal(t, "bias_detected:"+string(bias), analysis.InterventionTriggers[i])
	}

	// Herding is always flagged after its component biases.
	last := analysis.DetectedBiases[len(analysis.DetectedBiases)-1]
	assert.Equal(t, domain.BiasHerding, last)
}

func TestAnalyze_Deterministic(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	trades := []domain.TradeRecord{
		closed(buy("A", 100, 1, 10), -50),
		buy("B", 150, 1, 9),
		closed(buy("C", 100, 1, 8), 75),
		buy("A", 110, 1, 5),
	}

	first := analyzer.Analyze("user-1", trades, 30, nil, analysisNow)
	second := analyzer.Analyze("user-1", trades, 30, nil, analysisNow)

	assert.Equal(t, first, second)
}

func TestAnalyze_RiskScoreFormula(t *testing.T) {
	analyzer := NewAnalyzer(testConfig(), zerolog.Nop())

	trades := []domain.TradeRecord{
		closed(buy("A", 100, 1, 10), -50),
		buy("B", 150, 1, 9),
		closed(buy("C", 100, 1, 8), 75),
	}

	analysis := analyzer.Analyze("user-1", trades, 30, nil, analysisNow)

	want := (analysis.OvertradingScore +
		analysis.RevengeTradingScore +
		analysis.FOMOScore +
		analysis.LossAversionScore +
		(10 - analysis.DisciplineScore)) / 5
	assert.InDelta(t, want, analysis.BehavioralRiskScore, 0.005)
}

func copyTrades(trades []domain.TradeRecord) []domain.TradeRecord {
	out := make([]domain.TradeRecord, len(trades))
	copy(out, trades)
	return out
}
