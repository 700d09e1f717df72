package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"madpriser_api/internal/rema/maintenance"
	"madpriser_api/internal/rema/sync"
	"madpriser_api/internal/stores"
	"madpriser_api/pkg/logger"
)

// ScraperResolver picks the retailer integration a request addresses.
type ScraperResolver interface {
	Resolve(source string) (stores.Scraper, error)
}

// MaintenanceRunner piggybacks sampled maintenance on a batch.
type MaintenanceRunner interface {
	MaybeRun(ctx context.Context) maintenance.Summary
}

type batchResponse struct {
	sync.BatchResult
	Maintenance *maintenance.Summary `json:"maintenance,omitempty"`
}

type BatchHandler struct {
	scrapers    ScraperResolver
	maintenance MaintenanceRunner
	log         logger.Logger
}

func NewBatchHandler(scrapers ScraperResolver, maintenance MaintenanceRunner, log logger.Logger) *BatchHandler {
	return &BatchHandler{
		scrapers:    scrapers,
		maintenance: maintenance,
		log:         log.WithPrefix("[BatchHandler]"),
	}
}

// ServeHTTP handles POST /api/batch-scrape. The page may arrive either in
// the JSON body or as a ?page= query parameter; the query wins so external
// schedulers can chain calls by rewriting just the URL.
func (h *BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST", h.log)
		return
	}

	scraper, err := h.scrapers.Resolve(r.URL.Query().Get("store"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), h.log)
		return
	}

	var req sync.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", h.log)
		return
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page <= 0 {
			writeError(w, http.StatusBadRequest, "invalid page parameter", h.log)
			return
		}
		req.Page = page
	}

	result, err := scraper.RunBatch(r.Context(), req)
	if err != nil {
		h.log.Errorf("batch failed: %v", err)
		result.Message = "batch failed: " + err.Error()
		writeJSON(w, http.StatusBadGateway, batchResponse{BatchResult: result}, h.log)
		return
	}

	response := batchResponse{BatchResult: result}
	// Maintenance only piggybacks on batches that actually saw products; an
	// empty page means there is nothing fresh to cross-check against.
	if h.maintenance != nil && result.ProductsFound > 0 {
		if summary := h.maintenance.MaybeRun(r.Context()); summary.Ran {
			response.Maintenance = &summary
		}
	}
	writeJSON(w, http.StatusOK, response, h.log)
}
