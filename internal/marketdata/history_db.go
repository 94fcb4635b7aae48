package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
	"github.com/rs/zerolog"

	"github.com/arthalabs/risk-engine/internal/domain"
	"github.com/arthalabs/risk-engine/pkg/formulas"
)

// HistoryProvider serves return series from per-symbol SQLite history
// databases laid out as <historyDir>/<SYMBOL>.db with a daily_prices table.
type HistoryProvider struct {
	historyDir string
	log        zerolog.Logger
}

// NewHistoryProvider creates a provider reading from historyDir.
func NewHistoryProvider(historyDir string, log zerolog.Logger) *HistoryProvider {
	return &HistoryProvider{
		historyDir: historyDir,
		log:        log.With().Str("component", "history_provider").Logger(),
	}
}

// GetReturnSeries fetches closes for each symbol and converts them to daily
// returns. Symbols whose history cannot be read are skipped with a warning
// and absent from the result.
func (h *HistoryProvider) GetReturnSeries(ctx context.Context, symbols []string, lookbackDays int) (map[string]domain.ReturnSeries, error) {
	result := make(map[string]domain.ReturnSeries, len(symbols))

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		closes, err := h.fetchCloses(symbol, lookbackDays+1)
		if err != nil {
			h.log.Warn().
				Str("symbol", symbol).
				Err(err).
				Msg("Failed to load price history, excluding symbol")
			continue
		}

		result[symbol] = domain.ReturnSeries{
			Symbol:       symbol,
			DailyReturns: formulas.CalculateReturns(closes),
			AsOf:         time.Now().UTC(),
		}
	}

	return result, nil
}

// GetBenchmarkSeries fetches the benchmark index series. Unlike per-holding
// series, a missing benchmark is a hard error since beta and alpha cannot
// be computed without it.
func (h *HistoryProvider) GetBenchmarkSeries(ctx context.Context, benchmarkSymbol string, lookbackDays int) (domain.ReturnSeries, error) {
	if err := ctx.Err(); err != nil {
		return domain.ReturnSeries{}, err
	}

	closes, err := h.fetchCloses(benchmarkSymbol, lookbackDays+1)
	if err != nil {
		return domain.ReturnSeries{}, &UpstreamDataError{Symbol: benchmarkSymbol, Err: err}
	}

	return domain.ReturnSeries{
		Symbol:       benchmarkSymbol,
		DailyReturns: formulas.CalculateReturns(closes),
		AsOf:         time.Now().UTC(),
	}, nil
}

// GetAverageVolume returns the mean daily volume over the last 30 sessions.
func (h *HistoryProvider) GetAverageVolume(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	db, err := h.openHistoryDB(symbol)
	if err != nil {
		return 0, &UpstreamDataError{Symbol: symbol, Err: err}
	}
	defer db.Close()

	var avg sql.NullFloat64
	query := `
		SELECT AVG(volume) FROM (
			SELECT volume FROM daily_prices
			WHERE volume IS NOT NULL
			ORDER BY date DESC
			LIMIT 30
		)
	`
	if err := db.QueryRow(query).Scan(&avg); err != nil {
		return 0, &UpstreamDataError{Symbol: symbol, Err: err}
	}

	if !avg.Valid {
		return 0, nil
	}

	return avg.Float64, nil
}

// fetchCloses loads the most recent closes in chronological order.
func (h *HistoryProvider) fetchCloses(symbol string, limit int) ([]float64, error) {
	db, err := h.openHistoryDB(symbol)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `
		SELECT close_price FROM daily_prices
		ORDER BY date DESC
		LIMIT ?
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan close price: %w", err)
		}
		closes = append(closes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	// Reverse to chronological order (query returns newest first).
	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}

	return closes, nil
}

// openHistoryDB opens the per-symbol history database read-only.
func (h *HistoryProvider) openHistoryDB(symbol string) (*sql.DB, error) {
	safe := strings.ToUpper(strings.TrimSpace(symbol))
	if safe == "" || strings.ContainsAny(safe, "/\\") {
		return nil, fmt.Errorf("invalid symbol: %q", symbol)
	}

	path := filepath.Join(h.historyDir, safe+".db")
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open history db for %s: %w", safe, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history db for %s: %w", safe, err)
	}

	return db, nil
}
