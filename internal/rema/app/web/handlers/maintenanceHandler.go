package handlers

import (
	"context"
	"net/http"

	"madpriser_api/pkg/logger"
)

// DiscontinuedRunner walks the live catalog and flags vanished products.
type DiscontinuedRunner interface {
	Run(ctx context.Context) (int64, error)
}

type discontinuedResponse struct {
	Success           bool  `json:"success"`
	MarkedUnavailable int64 `json:"markedUnavailable"`
}

type DiscontinuedHandler struct {
	sweep DiscontinuedRunner
	log   logger.Logger
}

func NewDiscontinuedHandler(sweep DiscontinuedRunner, log logger.Logger) *DiscontinuedHandler {
	return &DiscontinuedHandler{sweep: sweep, log: log.WithPrefix("[DiscontinuedHandler]")}
}

// ServeHTTP handles POST /api/maintenance/discontinued.
func (h *DiscontinuedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST", h.log)
		return
	}

	marked, err := h.sweep.Run(r.Context())
	if err != nil {
		h.log.Errorf("discontinued sweep failed: %v", err)
		writeError(w, http.StatusBadGateway, "discontinued sweep failed: "+err.Error(), h.log)
		return
	}
	writeJSON(w, http.StatusOK, discontinuedResponse{Success: true, MarkedUnavailable: marked}, h.log)
}
