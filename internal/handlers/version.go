package handlers

import (
	"net/http"
)

// VersionHandler reports the build version.
type VersionHandler struct {
	version string
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(version string) *VersionHandler {
	return &VersionHandler{version: version}
}

// GetVersion handles GET /version
func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": h.version})
}
