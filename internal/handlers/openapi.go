package handlers

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var embeddedOpenAPI []byte

// OpenAPIHandler serves the gateway's OpenAPI document
type OpenAPIHandler struct {
	spec []byte
}

// NewOpenAPIHandler creates a handler for spec, or for the embedded document when spec is nil.
func NewOpenAPIHandler(spec []byte) *OpenAPIHandler {
	if spec == nil {
		spec = embeddedOpenAPI
	}
	return &OpenAPIHandler{spec: spec}
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/openapi.json", h.ServeJSON).Methods("GET")
}

// ServeYAML serves the OpenAPI spec in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	if _, err := w.Write(h.spec); err != nil {
		return
	}
}

// ServeJSON serves the OpenAPI spec in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := yaml.Unmarshal(h.spec, &doc); err != nil {
		http.Error(w, "Failed to parse OpenAPI specification", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
		return
	}
}
