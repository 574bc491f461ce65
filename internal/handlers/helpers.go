package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/origin-guard/internal/models"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondDetail sends the gateway's {"detail": ...} error body.
func respondDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.DetailResponse{Detail: detail})
}

// NotFound answers unrouted paths when no upstream is configured.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondDetail(w, http.StatusNotFound, models.DetailNotFound)
}
