package handlers

import (
	"net/http"

	"madpriser_api/pkg/logger"
)

type DeltaHandler struct {
	scrapers ScraperResolver
	log      logger.Logger
}

func NewDeltaHandler(scrapers ScraperResolver, log logger.Logger) *DeltaHandler {
	return &DeltaHandler{scrapers: scrapers, log: log.WithPrefix("[DeltaHandler]")}
}

// ServeHTTP handles POST /api/delta-sync.
func (h *DeltaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST", h.log)
		return
	}

	scraper, err := h.scrapers.Resolve(r.URL.Query().Get("store"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), h.log)
		return
	}

	result, err := scraper.DeltaSync(r.Context())
	if err != nil {
		h.log.Errorf("delta sync failed: %v", err)
		writeError(w, http.StatusBadGateway, "delta sync failed: "+err.Error(), h.log)
		return
	}
	writeJSON(w, http.StatusOK, result, h.log)
}
