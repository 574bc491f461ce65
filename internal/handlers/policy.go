package handlers

import (
	"net/http"

	"github.com/benvon/origin-guard/internal/models"
	"github.com/gorilla/mux"
)

// CorsPolicyHandler exposes the resolved origin policy so front-end developers
// can see why their origin is or is not accepted.
type CorsPolicyHandler struct {
	policy models.CorsPolicy
}

// NewCorsPolicyHandler creates a new policy handler
func NewCorsPolicyHandler(policy models.CorsPolicy) *CorsPolicyHandler {
	return &CorsPolicyHandler{policy: policy}
}

// RegisterRoutes registers the policy route
func (h *CorsPolicyHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/cors-policy", h.GetPolicy).Methods("GET")
}

// GetPolicy handles GET /cors-policy
func (h *CorsPolicyHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.policy)
}
