package delta

import (
	"context"

	"madpriser_api/internal/rema/models"
	"madpriser_api/pkg/logger"
)

// ConditionalRefresh revisits stored products with If-Modified-Since. A 304
// costs the upstream almost nothing, so the stalest slice of the catalog can
// be swept on every run.
type ConditionalRefresh struct {
	products    CatalogLister
	fetcher     ConditionalFetcher
	transformer Transformer
	applier     Applier
	source      string
	limit       int
	log         logger.Logger
}

func NewConditionalRefresh(products CatalogLister, fetcher ConditionalFetcher, transformer Transformer, applier Applier, source string, limit int, log logger.Logger) *ConditionalRefresh {
	if limit <= 0 {
		limit = 100
	}
	return &ConditionalRefresh{
		products:    products,
		fetcher:     fetcher,
		transformer: transformer,
		applier:     applier,
		source:      source,
		limit:       limit,
		log:         log.WithPrefix("[ConditionalRefresh]"),
	}
}

func (s *ConditionalRefresh) Name() string { return "conditional-refresh" }

func (s *ConditionalRefresh) Sync(ctx context.Context) (Result, error) {
	result := Result{Strategy: s.Name()}

	stored, err := s.products.ListForRefresh(ctx, s.source, s.limit)
	if err != nil {
		return result, err
	}

	for _, p := range stored {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		upstreamID, ok := models.UpstreamID(p.ExternalID)
		if !ok {
			continue
		}

		raw, notModified, err := s.fetcher.FetchProductIfModified(ctx, upstreamID, p.LastUpdated)
		if err != nil {
			s.log.Errorf("refreshing %s: %v", p.ExternalID, err)
			continue
		}
		if notModified {
			result.Unchanged++
			continue
		}

		product, ok := s.transformer.Transform(raw, departmentOf(raw))
		if !ok {
			continue
		}
		outcome, err := s.applier.Apply(ctx, product)
		if err != nil {
			s.log.Errorf("applying %s: %v", product.ExternalID, err)
			continue
		}
		count(&result, outcome)
	}
	return result, nil
}
