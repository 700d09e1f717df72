package handlers

import (
	"context"
	"net/http"

	"madpriser_api/internal/rema/client"
	"madpriser_api/internal/rema/discovery"
	"madpriser_api/internal/rema/models"
	"madpriser_api/internal/rema/sync"
	"madpriser_api/pkg/logger"
)

// Discoverer produces candidate products through whichever tactic works.
type Discoverer interface {
	Name() string
	Discover(ctx context.Context) ([]discovery.Candidate, error)
}

// Transformer turns raw payloads into canonical products.
type Transformer interface {
	Transform(raw *client.RawProduct, departmentID int) (*models.Product, bool)
}

// Applier persists one canonical product.
type Applier interface {
	Apply(ctx context.Context, product *models.Product) (sync.Outcome, error)
}

type discoveryResponse struct {
	Success         bool   `json:"success"`
	ProductsFound   int    `json:"productsFound"`
	ProductsAdded   int    `json:"productsAdded"`
	ProductsUpdated int    `json:"productsUpdated"`
	Message         string `json:"message,omitempty"`
}

// DiscoveryHandler runs a full discovery pass and persists everything found.
// Unlike batch scraping it is unbounded; callers invoke it rarely.
type DiscoveryHandler struct {
	discoverer  Discoverer
	transformer Transformer
	applier     Applier
	log         logger.Logger
}

func NewDiscoveryHandler(discoverer Discoverer, transformer Transformer, applier Applier, log logger.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoverer:  discoverer,
		transformer: transformer,
		applier:     applier,
		log:         log.WithPrefix("[DiscoveryHandler]"),
	}
}

// ServeHTTP handles POST /api/discover.
func (h *DiscoveryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST", h.log)
		return
	}

	candidates, err := h.discoverer.Discover(r.Context())
	if err != nil {
		h.log.Errorf("discovery failed: %v", err)
		writeError(w, http.StatusBadGateway, "discovery failed: "+err.Error(), h.log)
		return
	}

	response := discoveryResponse{Success: true, ProductsFound: len(candidates)}
	for i := range candidates {
		product, ok := h.transformer.Transform(&candidates[i].Raw, candidates[i].DepartmentID)
		if !ok {
			continue
		}
		outcome, err := h.applier.Apply(r.Context(), product)
		if err != nil {
			h.log.Errorf("applying %s: %v", product.ExternalID, err)
			continue
		}
		if outcome.Added {
			response.ProductsAdded++
		}
		if outcome.Updated {
			response.ProductsUpdated++
		}
	}
	if len(candidates) == 0 {
		response.Message = "no products discovered"
	}
	writeJSON(w, http.StatusOK, response, h.log)
}
