package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arthalabs/risk-engine/internal/domain"
)

// TradeRepository persists the append-only trade history used by
// behavioral analysis when the caller does not supply one inline.
type TradeRepository struct {
	db *DB
}

// NewTradeRepository creates a repository over db.
func NewTradeRepository(db *DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Save inserts one trade record.
func (r *TradeRepository) Save(trade *domain.TradeRecord) error {
	if err := trade.Validate(); err != nil {
		return err
	}

	_, err := r.db.conn.Exec(`
		INSERT INTO trades (user_id, symbol, action, entry_price, exit_price, quantity, timestamp, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.UserID,
		trade.Symbol,
		string(trade.Action),
		trade.EntryPrice,
		nullableFloat(trade.ExitPrice),
		trade.Quantity,
		trade.Timestamp.UTC().Format(time.RFC3339),
		nullableFloat(trade.PnL),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	return nil
}

// ListByUser returns a user's trades in chronological order.
func (r *TradeRepository) ListByUser(userID string) ([]domain.TradeRecord, error) {
	rows, err := r.db.conn.Query(`
		SELECT user_id, symbol, action, entry_price, exit_price, quantity, timestamp, pnl
		FROM trades
		WHERE user_id = ?
		ORDER BY timestamp ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		var action, ts string
		var exitPrice, pnl sql.NullFloat64

		if err := rows.Scan(&t.UserID, &t.Symbol, &action, &t.EntryPrice, &exitPrice, &t.Quantity, &ts, &pnl); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		t.Action = domain.TradeAction(action)
		if exitPrice.Valid {
			v := exitPrice.Float64
			t.ExitPrice = &v
		}
		if pnl.Valid {
			v := pnl.Float64
			t.PnL = &v
		}
		t.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse trade timestamp %q: %w", ts, err)
		}

		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// WatchlistRepository stores portfolios whose risk is refreshed on a
// schedule.
type WatchlistRepository struct {
	db *DB
}

// NewWatchlistRepository creates a repository over db.
func NewWatchlistRepository(db *DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Upsert stores or replaces the watched portfolio for a user.
func (r *WatchlistRepository) Upsert(userID string, portfolio *domain.Portfolio) error {
	if err := portfolio.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(portfolio)
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio: %w", err)
	}

	_, err = r.db.conn.Exec(`
		INSERT INTO watchlist (user_id, portfolio_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			portfolio_json = excluded.portfolio_json,
			updated_at = excluded.updated_at`,
		userID, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert watchlist entry: %w", err)
	}

	return nil
}

// All returns every watched portfolio keyed by user id.
func (r *WatchlistRepository) All() (map[string]domain.Portfolio, error) {
	rows, err := r.db.conn.Query(`SELECT user_id, portfolio_json FROM watchlist`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	result := make(map[string]domain.Portfolio)
	for rows.Next() {
		var userID, payload string
		if err := rows.Scan(&userID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist row: %w", err)
		}

		var p domain.Portfolio
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal portfolio for %s: %w", userID, err)
		}
		result[userID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist: %w", err)
	}

	return result, nil
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
