package sync

import (
	"context"
	"fmt"

	"madpriser_api/internal/rema/models"
	"madpriser_api/metrics"
)

// ProductStore is the slice of the product repository the engine needs.
type ProductStore interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.Product, error)
	Upsert(ctx context.Context, p *models.Product) error
}

// HistoryStore appends to the price history ledger.
type HistoryStore interface {
	Append(ctx context.Context, entry models.PriceHistoryEntry) error
}

// Outcome reports what Apply did with one product.
type Outcome struct {
	Added   bool
	Updated bool
}

// Engine decides per product whether it is new, changed or unchanged, and
// performs the persistence writes. On a change the prior values go into the
// ledger before the row is touched.
type Engine struct {
	products ProductStore
	history  HistoryStore
	store    string
}

func NewEngine(products ProductStore, history HistoryStore, store string) *Engine {
	return &Engine{products: products, history: history, store: store}
}

func (e *Engine) Apply(ctx context.Context, product *models.Product) (Outcome, error) {
	existing, err := e.products.GetByExternalID(ctx, product.ExternalID)
	if err != nil {
		return Outcome{}, err
	}

	if existing == nil {
		// Brand-new product: no prior values exist, so no ledger entry.
		if err := e.products.Upsert(ctx, product); err != nil {
			return Outcome{}, err
		}
		metrics.RecordUpsert(e.store, "added")
		return Outcome{Added: true}, nil
	}

	priceChanged := !existing.Price.Equal(product.Price) ||
		!existing.OriginalPrice.Equal(product.OriginalPrice) ||
		existing.IsOnSale != product.IsOnSale
	changed := priceChanged || existing.Category != product.Category

	if !changed {
		// Still upsert so last_updated advances, but count it as neither
		// added nor updated.
		if err := e.products.Upsert(ctx, product); err != nil {
			return Outcome{}, err
		}
		metrics.RecordUpsert(e.store, "unchanged")
		return Outcome{}, nil
	}

	// The ledger is price-focused: a category-only change updates the row
	// without an entry. When prices moved, the entry must land before the
	// row update so a crash in between never loses the old values.
	if priceChanged {
		entry := models.PriceHistoryEntry{
			ProductExternalID: existing.ExternalID,
			Price:             existing.Price,
			OriginalPrice:     existing.OriginalPrice,
			IsOnSale:          existing.IsOnSale,
			RecordedAt:        product.LastUpdated,
		}
		if err := e.history.Append(ctx, entry); err != nil {
			return Outcome{}, fmt.Errorf("recording price history before update: %w", err)
		}
		metrics.RecordHistoryRow(e.store)
	}

	if err := e.products.Upsert(ctx, product); err != nil {
		return Outcome{}, err
	}
	metrics.RecordUpsert(e.store, "updated")
	return Outcome{Updated: true}, nil
}
