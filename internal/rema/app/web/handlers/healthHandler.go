package handlers

import (
	"net/http"

	"madpriser_api/pkg/logger"
)

// Pinger checks the database connection.
type Pinger interface {
	Ping() error
}

type HealthHandler struct {
	db  Pinger
	log logger.Logger
}

func NewHealthHandler(db Pinger, log logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log.WithPrefix("[HealthHandler]")}
}

// ServeHTTP handles GET /healthz.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		h.log.Errorf("health check: %v", err)
		writeError(w, http.StatusServiceUnavailable, "database unreachable", h.log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.log)
}
