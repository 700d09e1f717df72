package handlers

import (
	"context"
	"net/http"

	"madpriser_api/internal/rema/storage"
	"madpriser_api/pkg/logger"
)

// DepartmentLister reads the seeded department table.
type DepartmentLister interface {
	List(ctx context.Context) ([]storage.Department, error)
}

type DepartmentsHandler struct {
	departments DepartmentLister
	log         logger.Logger
}

func NewDepartmentsHandler(departments DepartmentLister, log logger.Logger) *DepartmentsHandler {
	return &DepartmentsHandler{departments: departments, log: log.WithPrefix("[DepartmentsHandler]")}
}

// ServeHTTP handles GET /api/departments.
func (h *DepartmentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET", h.log)
		return
	}

	departments, err := h.departments.List(r.Context())
	if err != nil {
		h.log.Errorf("listing departments: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list departments", h.log)
		return
	}
	if departments == nil {
		departments = []storage.Department{}
	}
	writeJSON(w, http.StatusOK, departments, h.log)
}
