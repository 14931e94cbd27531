package database

import (
	"context"
	"fmt"
)

// WatchlistRepository persists (user, symbol) watchlist pairs. The
// primary key on (user_id, symbol) makes duplicate adds structurally
// impossible; ON CONFLICT DO NOTHING turns them into no-ops.
type WatchlistRepository struct {
	pool Querier
}

// NewWatchlistRepository creates a watchlist repository.
func NewWatchlistRepository(pool Querier) *WatchlistRepository {
	return &WatchlistRepository{pool: pool}
}

// Add inserts the pair, reporting whether a row was actually created.
func (r *WatchlistRepository) Add(ctx context.Context, ownerID, symbol string) (bool, error) {
	query := `
		INSERT INTO watchlist (user_id, symbol, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, symbol) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, ownerID, symbol)
	if err != nil {
		return false, fmt.Errorf("adding %s to watchlist: %w", symbol, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Remove deletes the pair; no-op when absent.
func (r *WatchlistRepository) Remove(ctx context.Context, ownerID, symbol string) error {
	query := `DELETE FROM watchlist WHERE user_id = $1 AND symbol = $2`
	if _, err := r.pool.Exec(ctx, query, ownerID, symbol); err != nil {
		return fmt.Errorf("removing %s from watchlist: %w", symbol, err)
	}
	return nil
}

// List returns the owner's tracked symbols.
func (r *WatchlistRepository) List(ctx context.Context, ownerID string) ([]string, error) {
	query := `SELECT symbol FROM watchlist WHERE user_id = $1 ORDER BY symbol`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning watchlist row: %w", err)
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing watchlist: %w", err)
	}
	return symbols, nil
}
