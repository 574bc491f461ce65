package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker handles health check requests
type HealthChecker struct {
	deps map[string]Pinger
}

// NewHealthChecker creates a health checker over named dependencies. A nil
// Pinger is reported as "not configured".
func NewHealthChecker(deps map[string]Pinger) *HealthChecker {
	return &HealthChecker{deps: deps}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. ?mode=extended also pings every dependency.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = h.runChecks(r.Context())
		for _, result := range response.Checks {
			if result != "healthy" && result != "not configured" {
				response.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) runChecks(ctx context.Context) map[string]string {
	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	for _, name := range names {
		dep := h.deps[name]
		if dep == nil {
			checks[name] = "not configured"
			continue
		}
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := dep.Ping(checkCtx)
		cancel()
		if err != nil {
			checks[name] = "unhealthy: " + err.Error()
			continue
		}
		checks[name] = "healthy"
	}
	return checks
}
