package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// valueTolerance is the relative tolerance used when checking that stored
// monetary values agree with their recomputed counterparts.
const valueTolerance = 1e-6

// Holding represents an immutable snapshot of a position in a portfolio.
type Holding struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	CurrentPrice float64 `json:"current_price"`
	CurrentValue float64 `json:"current_value"`
	Sector       string  `json:"sector"`
}

// Validate checks holding data. CurrentValue must equal Quantity *
// CurrentPrice within relative tolerance; it is checked, never silently
// recomputed.
func (h *Holding) Validate() error {
	if h.Symbol == "" || strings.TrimSpace(h.Symbol) == "" {
		return fmt.Errorf("symbol cannot be empty")
	}

	if h.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative for %s", h.Symbol)
	}

	if h.CurrentPrice < 0 {
		return fmt.Errorf("price cannot be negative for %s", h.Symbol)
	}

	expected := h.Quantity * h.CurrentPrice
	if !approxEqual(h.CurrentValue, expected) {
		return fmt.Errorf("current_value %.6f does not match quantity*price %.6f for %s",
			h.CurrentValue, expected, h.Symbol)
	}

	return nil
}

// Portfolio is an ordered collection of holdings with a caller-supplied
// total value.
type Portfolio struct {
	Holdings   []Holding `json:"holdings"`
	TotalValue float64   `json:"total_value"`
}

// Validate checks each holding and the total-value invariant. An empty
// portfolio is valid.
func (p *Portfolio) Validate() error {
	var sum float64
	for i := range p.Holdings {
		if err := p.Holdings[i].Validate(); err != nil {
			return err
		}
		sum += p.Holdings[i].CurrentValue
	}

	if len(p.Holdings) > 0 && !approxEqual(p.TotalValue, sum) {
		return fmt.Errorf("total_value %.6f does not match sum of holdings %.6f", p.TotalValue, sum)
	}

	return nil
}

// IsEmpty reports whether the portfolio has no holdings.
func (p *Portfolio) IsEmpty() bool {
	return len(p.Holdings) == 0
}

// Weights returns portfolio weight per symbol. Zero total value yields an
// empty map.
func (p *Portfolio) Weights() map[string]float64 {
	weights := make(map[string]float64, len(p.Holdings))
	if p.TotalValue <= 0 {
		return weights
	}
	for _, h := range p.Holdings {
		weights[h.Symbol] = h.CurrentValue / p.TotalValue
	}
	return weights
}

// Symbols returns holding symbols in portfolio order.
func (p *Portfolio) Symbols() []string {
	symbols := make([]string, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		symbols = append(symbols, h.Symbol)
	}
	return symbols
}

// ReturnSeries holds a daily return series for one symbol.
type ReturnSeries struct {
	Symbol       string    `json:"symbol"`
	DailyReturns []float64 `json:"daily_returns"`
	AsOf         time.Time `json:"as_of"`
}

// Sufficient reports whether the series is long enough for any statistic
// that requires variance.
func (rs *ReturnSeries) Sufficient() bool {
	return len(rs.DailyReturns) >= 2
}

// TradeAction represents the trade direction (BUY or SELL)
type TradeAction string

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

// IsValid checks if the trade action is valid
func (ta TradeAction) IsValid() bool {
	return ta == TradeActionBuy || ta == TradeActionSell
}

// TradeActionFromString creates TradeAction from string (case-insensitive)
func TradeActionFromString(value string) (TradeAction, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY":
		return TradeActionBuy, nil
	case "SELL":
		return TradeActionSell, nil
	default:
		return "", fmt.Errorf("invalid trade action: %q", value)
	}
}

// TradeRecord represents one trade in a user's append-only history. A
// record is mutated exactly once, when the exit price and PnL become known.
type TradeRecord struct {
	UserID     string      `json:"user_id"`
	Symbol     string      `json:"symbol"`
	Action     TradeAction `json:"action"`
	EntryPrice float64     `json:"entry_price"`
	ExitPrice  *float64    `json:"exit_price,omitempty"`
	Quantity   float64     `json:"quantity"`
	Timestamp  time.Time   `json:"timestamp"`
	PnL        *float64    `json:"pnl,omitempty"`
}

// Validate validates trade data and normalizes the symbol.
func (t *TradeRecord) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("symbol cannot be empty")
	}

	if !t.Action.IsValid() {
		return fmt.Errorf("invalid trade action: %q", t.Action)
	}

	if t.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}

	if t.EntryPrice <= 0 {
		return fmt.Errorf("entry price must be positive")
	}

	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))

	return nil
}

// Notional is the position size of the trade at entry.
func (t *TradeRecord) Notional() float64 {
	return t.Quantity * t.EntryPrice
}

// IsClosed reports whether the trade outcome is known.
func (t *TradeRecord) IsClosed() bool {
	return t.PnL != nil
}

// RiskLevel buckets an aggregate 0-10 risk score.
type RiskLevel string

const (
	RiskLevelVeryLow  RiskLevel = "VERY_LOW"
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelVeryHigh RiskLevel = "VERY_HIGH"
	RiskLevelExtreme  RiskLevel = "EXTREME"
)

// Bias identifies a behavioral trading bias.
type Bias string

const (
	BiasOverconfidence Bias = "OVERCONFIDENCE"
	BiasRevengeTrading Bias = "REVENGE_TRADING"
	BiasFOMO           Bias = "FOMO"
	BiasLossAversion   Bias = "LOSS_AVERSION"
	BiasAnchoring      Bias = "ANCHORING"
	BiasHerding        Bias = "HERDING"
)

func approxEqual(a, b float64) bool {
	diff := math.Abs(a - b)
	if diff == 0 {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return diff == 0
	}
	return diff/scale <= valueTolerance
}
