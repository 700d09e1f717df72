package delta

import (
	"context"
	"time"

	"madpriser_api/internal/rema/client"
	"madpriser_api/internal/rema/models"
	"madpriser_api/internal/rema/sync"
)

// Result summarises one delta run. TotalChanges counts the products whose
// stored row actually changed, always New + Updated regardless of strategy.
type Result struct {
	Strategy     string `json:"strategy"`
	New          int    `json:"new"`
	Updated      int    `json:"updated"`
	Unchanged    int    `json:"unchanged"`
	TotalChanges int    `json:"totalChanges"`
}

// Strategy refreshes the already-known catalog without a full crawl. Which
// one runs depends on what the upstream turns out to support; see Selector.
type Strategy interface {
	Name() string
	Sync(ctx context.Context) (Result, error)
}

// Transformer turns raw payloads into canonical products.
type Transformer interface {
	Transform(raw *client.RawProduct, departmentID int) (*models.Product, bool)
}

// Applier persists one canonical product.
type Applier interface {
	Apply(ctx context.Context, product *models.Product) (sync.Outcome, error)
}

// CatalogLister yields stored products ordered by refresh staleness.
type CatalogLister interface {
	ListForRefresh(ctx context.Context, source string, limit int) ([]models.Product, error)
}

// ChangesFetcher is the client slice the change-feed strategy uses.
type ChangesFetcher interface {
	FetchChanges(ctx context.Context, since time.Time) ([]client.RawProduct, error)
}

// ConditionalFetcher is the client slice the conditional strategy uses.
type ConditionalFetcher interface {
	FetchProductIfModified(ctx context.Context, productID int, since time.Time) (*client.RawProduct, bool, error)
}

// ProductFetcher is the client slice the tiered strategy uses.
type ProductFetcher interface {
	FetchProduct(ctx context.Context, productID int) (*client.RawProduct, error)
}

func departmentOf(raw *client.RawProduct) int {
	if raw.Department != nil {
		return raw.Department.ID
	}
	return 0
}

func count(result *Result, outcome sync.Outcome) {
	switch {
	case outcome.Added:
		result.New++
	case outcome.Updated:
		result.Updated++
	default:
		result.Unchanged++
		return
	}
	result.TotalChanges++
}
