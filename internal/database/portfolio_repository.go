package database

import (
	"context"
	"fmt"

	"github.com/finsightlab/finsight-go/internal/models"
)

// PortfolioRepository persists holdings per owner. Quantity and average
// cost are stored as NUMERIC so the weighted-average basis survives a
// round trip without floating drift.
type PortfolioRepository struct {
	pool Querier
}

// NewPortfolioRepository creates a portfolio repository.
func NewPortfolioRepository(pool Querier) *PortfolioRepository {
	return &PortfolioRepository{pool: pool}
}

// Upsert writes one holding, replacing any previous row for the symbol.
func (r *PortfolioRepository) Upsert(ctx context.Context, ownerID string, h models.Holding) error {
	query := `
		INSERT INTO holdings (user_id, symbol, quantity, average_cost, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, symbol)
		DO UPDATE SET quantity = EXCLUDED.quantity, average_cost = EXCLUDED.average_cost, updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, ownerID, h.Symbol, h.Quantity, h.AverageCost); err != nil {
		return fmt.Errorf("upserting holding %s: %w", h.Symbol, err)
	}
	return nil
}

// Delete removes the holding row; no-op when absent.
func (r *PortfolioRepository) Delete(ctx context.Context, ownerID, symbol string) error {
	query := `DELETE FROM holdings WHERE user_id = $1 AND symbol = $2`
	if _, err := r.pool.Exec(ctx, query, ownerID, symbol); err != nil {
		return fmt.Errorf("deleting holding %s: %w", symbol, err)
	}
	return nil
}

// List loads every holding for an owner.
func (r *PortfolioRepository) List(ctx context.Context, ownerID string) ([]models.Holding, error) {
	query := `
		SELECT symbol, quantity, average_cost, updated_at
		FROM holdings
		WHERE user_id = $1
		ORDER BY symbol
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.Symbol, &h.Quantity, &h.AverageCost, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	return holdings, nil
}
