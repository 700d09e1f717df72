package maintenance

import (
	"context"
	"errors"

	"madpriser_api/internal/rema/client"
	"madpriser_api/internal/rema/models"
	"madpriser_api/internal/rema/sync"
	"madpriser_api/pkg/logger"
)

// AnomalyStore is the repository slice the repair pass reads from.
type AnomalyStore interface {
	ListSaleAnomalies(ctx context.Context, source string, limit int) ([]models.Product, error)
}

// ProductFetcher is the client slice the repair pass refetches with.
type ProductFetcher interface {
	FetchProduct(ctx context.Context, productID int) (*client.RawProduct, error)
}

// Transformer turns raw payloads into canonical products.
type Transformer interface {
	Transform(raw *client.RawProduct, departmentID int) (*models.Product, bool)
}

// Applier persists one canonical product.
type Applier interface {
	Apply(ctx context.Context, product *models.Product) (sync.Outcome, error)
}

// SaleRepair refetches products stored with a sale flag but no distinct
// original price. The anomaly comes from payloads that carried only the
// campaign price; a later refetch usually carries both.
type SaleRepair struct {
	store       AnomalyStore
	fetcher     ProductFetcher
	transformer Transformer
	applier     Applier
	source      string
	limit       int
	log         logger.Logger
}

func NewSaleRepair(store AnomalyStore, fetcher ProductFetcher, transformer Transformer, applier Applier, source string, limit int, log logger.Logger) *SaleRepair {
	if limit <= 0 {
		limit = 50
	}
	return &SaleRepair{
		store:       store,
		fetcher:     fetcher,
		transformer: transformer,
		applier:     applier,
		source:      source,
		limit:       limit,
		log:         log.WithPrefix("[SaleRepair]"),
	}
}

// Run returns how many anomalous products were rewritten.
func (s *SaleRepair) Run(ctx context.Context) (int, error) {
	anomalies, err := s.store.ListSaleAnomalies(ctx, s.source, s.limit)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, p := range anomalies {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		upstreamID, ok := models.UpstreamID(p.ExternalID)
		if !ok {
			continue
		}

		raw, err := s.fetcher.FetchProduct(ctx, upstreamID)
		if errors.Is(err, client.ErrNotFound) {
			continue
		}
		if err != nil {
			s.log.Errorf("refetching %s: %v", p.ExternalID, err)
			continue
		}

		product, ok := s.transformer.Transform(raw, departmentOf(raw))
		if !ok {
			continue
		}
		if _, err := s.applier.Apply(ctx, product); err != nil {
			s.log.Errorf("applying %s: %v", product.ExternalID, err)
			continue
		}
		repaired++
	}

	if repaired > 0 {
		s.log.Log("repaired %d sale anomalies", repaired)
	}
	return repaired, nil
}

func departmentOf(raw *client.RawProduct) int {
	if raw.Department != nil {
		return raw.Department.ID
	}
	return 0
}
