package delta

import (
	"context"
	"sync/atomic"

	"madpriser_api/internal/rema/models"
	"madpriser_api/pkg/logger"
)

// TieredRefresh is the fallback when the upstream supports neither a change
// feed nor conditional requests. Fast-moving categories are refetched on
// every run; the long tail only every Nth run.
type TieredRefresh struct {
	products    CatalogLister
	fetcher     ProductFetcher
	transformer Transformer
	applier     Applier
	source      string
	limit       int
	priority    map[string]bool
	stableEvery int
	runs        atomic.Int64
	log         logger.Logger
}

func NewTieredRefresh(products CatalogLister, fetcher ProductFetcher, transformer Transformer, applier Applier, source string, limit int, priorityCategories []string, stableEvery int, log logger.Logger) *TieredRefresh {
	if limit <= 0 {
		limit = 100
	}
	if stableEvery <= 0 {
		stableEvery = 4
	}
	priority := make(map[string]bool, len(priorityCategories))
	for _, c := range priorityCategories {
		priority[c] = true
	}
	return &TieredRefresh{
		products:    products,
		fetcher:     fetcher,
		transformer: transformer,
		applier:     applier,
		source:      source,
		limit:       limit,
		priority:    priority,
		stableEvery: stableEvery,
		log:         log.WithPrefix("[TieredRefresh]"),
	}
}

func (s *TieredRefresh) Name() string { return "tiered-refresh" }

func (s *TieredRefresh) Sync(ctx context.Context) (Result, error) {
	result := Result{Strategy: s.Name()}
	run := s.runs.Add(1)
	includeStable := run%int64(s.stableEvery) == 0

	stored, err := s.products.ListForRefresh(ctx, s.source, s.limit)
	if err != nil {
		return result, err
	}

	refreshed := 0
	for _, p := range stored {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !s.priority[p.Category] && !includeStable {
			continue
		}
		refreshed++

		upstreamID, ok := models.UpstreamID(p.ExternalID)
		if !ok {
			continue
		}
		raw, err := s.fetcher.FetchProduct(ctx, upstreamID)
		if err != nil {
			s.log.Errorf("refreshing %s: %v", p.ExternalID, err)
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

	s.log.Log("run %d: refreshed %d/%d products (stable tier included: %v)", run, refreshed, len(stored), includeStable)
	return result, nil
}
