package formulas

import (
	"github.com/markcheno/go-talib"
)

// RunUpAt reports the rate of change over `period` sessions ending at
// index idx of a price series, as a fraction (0.05 = 5%). Used to detect
// price run-ups that preceded a trade. Returns nil when idx is out of
// range or not enough history exists before it.
func RunUpAt(closes []float64, idx, period int) *float64 {
	if idx < period || idx >= len(closes) {
		return nil
	}

	roc := talib.Roc(closes, period)
	v := roc[idx]
	if isNaN(v) {
		return nil
	}

	frac := v / 100.0
	return &frac
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
