package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"madpriser_api/internal/rema/client"
	"madpriser_api/internal/rema/models"
	"madpriser_api/metrics"
	"madpriser_api/pkg/logger"
)

// PageFetcher is the slice of the source client the runner needs.
type PageFetcher interface {
	FetchPage(ctx context.Context, departmentID, page, limit int) (*client.RawPage, error)
}

// Transformer turns raw payloads into canonical products.
type Transformer interface {
	Transform(raw *client.RawProduct, departmentID int) (*models.Product, bool)
}

// Applier persists one canonical product.
type Applier interface {
	Apply(ctx context.Context, product *models.Product) (Outcome, error)
}

type BatchRequest struct {
	DepartmentID int `json:"departmentId"`
	Page         int `json:"page"`
	Limit        int `json:"limit"`
}

type BatchResult struct {
	RunID           string `json:"runId"`
	Success         bool   `json:"success"`
	Message         string `json:"message,omitempty"`
	ProductsFound   int    `json:"productsFound"`
	ProductsAdded   int    `json:"productsAdded"`
	ProductsUpdated int    `json:"productsUpdated"`
	HasMore         bool   `json:"hasMore"`
	NextPage        *int   `json:"nextPage"`
	ExecutionTime   int64  `json:"executionTime"`
}

// Runner drives one bounded batch: fetch a department page, transform it and
// upsert the results under a wall-clock budget. When the budget runs out the
// remaining work is signalled through HasMore/NextPage so an external
// scheduler can resume; re-running the same page is safe.
type Runner struct {
	fetcher     PageFetcher
	transformer Transformer
	applier     Applier
	budget      time.Duration
	store       string
	log         logger.Logger
	now         func() time.Time
}

func NewRunner(fetcher PageFetcher, transformer Transformer, applier Applier, budget time.Duration, store string, log logger.Logger) *Runner {
	return &Runner{
		fetcher:     fetcher,
		transformer: transformer,
		applier:     applier,
		budget:      budget,
		store:       store,
		log:         log.WithPrefix("[BatchRunner]"),
		now:         time.Now,
	}
}

func (r *Runner) RunBatch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	start := r.now()
	deadline := start.Add(r.budget)

	result := BatchResult{RunID: uuid.NewString()}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 100
	}

	r.log.Log("run %s: department %d page %d limit %d", result.RunID, req.DepartmentID, req.Page, req.Limit)

	rawPage, err := r.fetcher.FetchPage(ctx, req.DepartmentID, req.Page, req.Limit)
	if err != nil {
		result.ExecutionTime = r.now().Sub(start).Milliseconds()
		return result, err
	}

	if len(rawPage.Data) == 0 {
		result.Success = true
		result.Message = "no more products found"
		result.ExecutionTime = r.now().Sub(start).Milliseconds()
		metrics.RecordBatchDuration(r.store, r.now().Sub(start))
		return result, nil
	}

	products := r.transformPage(rawPage.Data, req.DepartmentID)
	result.ProductsFound = len(products)

	budgetHit := false
	for _, product := range products {
		// The budget is checked between products, never mid-product, so a
		// row and its ledger entry are never left half-written.
		if r.now().After(deadline) {
			r.log.Log("run %s: time budget exceeded after %d/%d products",
				result.RunID, result.ProductsAdded+result.ProductsUpdated, len(products))
			budgetHit = true
			break
		}

		outcome, err := r.applier.Apply(ctx, product)
		if err != nil {
			// Best effort: one broken product must not sink the batch.
			r.log.Errorf("run %s: applying %s: %v", result.RunID, product.ExternalID, err)
			continue
		}
		if outcome.Added {
			result.ProductsAdded++
		}
		if outcome.Updated {
			result.ProductsUpdated++
		}
	}

	if budgetHit {
		// Resume on the same page; upserts are idempotent.
		result.HasMore = true
		page := req.Page
		result.NextPage = &page
	} else if lastPage := rawPage.Meta.Pagination.LastPage; lastPage > 0 && req.Page < lastPage {
		result.HasMore = true
		next := req.Page + 1
		result.NextPage = &next
	}

	result.Success = true
	elapsed := r.now().Sub(start)
	result.ExecutionTime = elapsed.Milliseconds()
	metrics.RecordBatchDuration(r.store, elapsed)

	r.log.Log("run %s: found=%d added=%d updated=%d hasMore=%v in %s",
		result.RunID, result.ProductsFound, result.ProductsAdded, result.ProductsUpdated, result.HasMore, elapsed)
	return result, nil
}

// transformPage drops malformed items and deduplicates by external ID,
// keeping the first occurrence.
func (r *Runner) transformPage(raws []client.RawProduct, departmentID int) []*models.Product {
	seen := make(map[string]bool, len(raws))
	products := make([]*models.Product, 0, len(raws))
	for i := range raws {
		product, ok := r.transformer.Transform(&raws[i], departmentID)
		if !ok {
			continue
		}
		if seen[product.ExternalID] {
			continue
		}
		seen[product.ExternalID] = true
		products = append(products, product)
	}
	return products
}
