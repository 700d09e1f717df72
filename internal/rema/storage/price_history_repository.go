package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"madpriser_api/internal/rema/models"
)

type PriceHistoryRepository struct {
	db *sql.DB
}

func NewPriceHistoryRepository(db *sql.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db: db}
}

// Append adds one ledger entry. Entries are never updated afterwards.
func (r *PriceHistoryRepository) Append(ctx context.Context, entry models.PriceHistoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rema.price_history (product_external_id, price, original_price, is_on_sale, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ProductExternalID, entry.Price, entry.OriginalPrice, entry.IsOnSale, entry.RecordedAt)
	if err != nil {
		return fmt.Errorf("appending price history for %s: %w", entry.ProductExternalID, err)
	}
	return nil
}

// ListByExternalID returns a product's ledger oldest-first.
func (r *PriceHistoryRepository) ListByExternalID(ctx context.Context, externalID string) ([]models.PriceHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_external_id, price, original_price, is_on_sale, recorded_at
		FROM rema.price_history
		WHERE product_external_id = $1
		ORDER BY recorded_at ASC`, externalID)
	if err != nil {
		return nil, fmt.Errorf("listing price history for %s: %w", externalID, err)
	}
	defer rows.Close()

	var entries []models.PriceHistoryEntry
	for rows.Next() {
		var e models.PriceHistoryEntry
		if err := rows.Scan(&e.ProductExternalID, &e.Price, &e.OriginalPrice, &e.IsOnSale, &e.RecordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteOlderThan purges ledger entries past the retention window. This is
// the only path that ever removes history rows.
func (r *PriceHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM rema.price_history WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging price history: %w", err)
	}
	return result.RowsAffected()
}
