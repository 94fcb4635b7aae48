package marketdata

import (
	"context"
	"fmt"

	"github.com/arthalabs/risk-engine/internal/domain"
)

// Provider supplies historical return series and liquidity metadata for
// instrument symbols. The engine depends on this abstraction and never on
// a live market-data protocol.
type Provider interface {
	// GetReturnSeries returns one series per symbol. A symbol that cannot
	// be served is simply absent from the map; callers exclude-and-warn.
	GetReturnSeries(ctx context.Context, symbols []string, lookbackDays int) (map[string]domain.ReturnSeries, error)

	// GetBenchmarkSeries returns the benchmark index series for beta/alpha.
	GetBenchmarkSeries(ctx context.Context, benchmarkSymbol string, lookbackDays int) (domain.ReturnSeries, error)

	// GetAverageVolume returns the average daily traded volume for a symbol.
	GetAverageVolume(ctx context.Context, symbol string) (float64, error)
}

// UpstreamDataError marks a provider failure for one symbol. It is isolated
// to that symbol, not fatal to a whole computation.
type UpstreamDataError struct {
	Symbol string
	Err    error
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("upstream data error for %s: %v", e.Symbol, e.Err)
}

func (e *UpstreamDataError) Unwrap() error {
	return e.Err
}
