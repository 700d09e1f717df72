package handlers

import (
	"encoding/json"
	"net/http"

	"madpriser_api/pkg/logger"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("encoding response: %v", err)
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string, log logger.Logger) {
	writeJSON(w, status, errorResponse{Success: false, Error: message}, log)
}
