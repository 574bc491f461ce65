package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	healthy := pingFunc(func(context.Context) error { return nil })
	failing := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		deps       map[string]Pinger
		query      string
		wantStatus int
		wantHealth string
		wantChecks map[string]string
	}{
		{
			name:       "basic mode skips checks",
			deps:       map[string]Pinger{"redis": failing},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name:       "extended mode all healthy",
			deps:       map[string]Pinger{"redis": healthy, "upstream": healthy},
			query:      "?mode=extended",
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
			wantChecks: map[string]string{"redis": "healthy", "upstream": "healthy"},
		},
		{
			name:       "extended mode not configured",
			deps:       map[string]Pinger{"redis": nil},
			query:      "?mode=extended",
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
			wantChecks: map[string]string{"redis": "not configured"},
		},
		{
			name:       "extended mode failing dependency",
			deps:       map[string]Pinger{"redis": healthy, "upstream": failing},
			query:      "?mode=extended",
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
			wantChecks: map[string]string{"redis": "healthy", "upstream": "unhealthy: connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			NewHealthChecker(tt.deps).HealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz"+tt.query, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("Expected status %q, got %q", tt.wantHealth, resp.Status)
			}
			if resp.Timestamp == "" {
				t.Error("Expected timestamp to be set")
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Fatalf("Expected checks %v, got %v", tt.wantChecks, resp.Checks)
			}
			for name, want := range tt.wantChecks {
				if got := resp.Checks[name]; !strings.HasPrefix(got, want) {
					t.Errorf("Expected check[%s] = %q, got %q", name, want, got)
				}
			}
		})
	}
}
