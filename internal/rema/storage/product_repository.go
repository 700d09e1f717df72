package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"madpriser_api/internal/rema/models"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByExternalID returns nil without error when no row exists.
func (r *ProductRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Product, error) {
	query := `
		SELECT external_id, name, description, category, price, original_price,
		       is_on_sale, image_url, available, last_updated, source, store
		FROM rema.products
		WHERE external_id = $1`

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, externalID).Scan(
		&p.ExternalID, &p.Name, &p.Description, &p.Category,
		&p.Price, &p.OriginalPrice, &p.IsOnSale, &p.ImageURL,
		&p.Available, &p.LastUpdated, &p.Source, &p.Store,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading product %s: %w", externalID, err)
	}
	return &p, nil
}

// Upsert writes a product keyed on external_id. The write is a single
// atomic statement so concurrent batch invocations cannot race an insert
// against an update.
func (r *ProductRepository) Upsert(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO rema.products (
			external_id, name, description, category, price, original_price,
			is_on_sale, image_url, available, last_updated, source, store
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			is_on_sale = EXCLUDED.is_on_sale,
			image_url = EXCLUDED.image_url,
			available = EXCLUDED.available,
			last_updated = EXCLUDED.last_updated,
			source = EXCLUDED.source,
			store = EXCLUDED.store`

	_, err := r.db.ExecContext(ctx, query,
		p.ExternalID, p.Name, p.Description, p.Category, p.Price, p.OriginalPrice,
		p.IsOnSale, p.ImageURL, p.Available, p.LastUpdated, p.Source, p.Store,
	)
	if err != nil {
		return fmt.Errorf("upserting product %s: %w", p.ExternalID, err)
	}
	return nil
}

// ListExternalIDs returns every known external ID for one source.
func (r *ProductRepository) ListExternalIDs(ctx context.Context, source string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT external_id FROM rema.products WHERE source = $1`, source)
	if err != nil {
		return nil, fmt.Errorf("listing external ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListForRefresh returns tracked products ordered stalest-first, the order
// delta strategies walk them in.
func (r *ProductRepository) ListForRefresh(ctx context.Context, source string, limit int) ([]models.Product, error) {
	query := `
		SELECT external_id, name, description, category, price, original_price,
		       is_on_sale, image_url, available, last_updated, source, store
		FROM rema.products
		WHERE source = $1
		ORDER BY last_updated ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, source, limit)
	if err != nil {
		return nil, fmt.Errorf("listing products for refresh: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ExternalID, &p.Name, &p.Description, &p.Category,
			&p.Price, &p.OriginalPrice, &p.IsOnSale, &p.ImageURL,
			&p.Available, &p.LastUpdated, &p.Source, &p.Store,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListSaleAnomalies finds products flagged on sale whose original price never
// got recorded, the target set of the price repair pass.
func (r *ProductRepository) ListSaleAnomalies(ctx context.Context, source string, limit int) ([]models.Product, error) {
	query := `
		SELECT external_id, name, description, category, price, original_price,
		       is_on_sale, image_url, available, last_updated, source, store
		FROM rema.products
		WHERE source = $1 AND is_on_sale AND original_price = price
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, source, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sale anomalies: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ExternalID, &p.Name, &p.Description, &p.Category,
			&p.Price, &p.OriginalPrice, &p.IsOnSale, &p.ImageURL,
			&p.Available, &p.LastUpdated, &p.Source, &p.Store,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// MarkUnavailable flags the given products as discontinued. Rows are kept;
// nothing is ever hard-deleted here.
func (r *ProductRepository) MarkUnavailable(ctx context.Context, externalIDs []string) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE rema.products
		SET available = FALSE, last_updated = NOW()
		WHERE external_id = ANY($1)`,
		pq.Array(externalIDs))
	if err != nil {
		return 0, fmt.Errorf("marking products unavailable: %w", err)
	}
	return result.RowsAffected()
}
