package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/benvon/origin-guard/internal/models"
	"go.uber.org/zap"
)

func TestNewUpstreamProxy_InvalidURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"::not a url", "ftp://engine.local", "http://"} {
		if _, err := NewUpstreamProxy(raw, zap.NewNop()); err == nil {
			t.Errorf("NewUpstreamProxy(%q) expected error", raw)
		}
	}
}

func TestUpstreamProxy_Forwards(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("X-Engine", "voice")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, r.Method+" "+r.URL.RequestURI()+" "+r.Header.Get("X-Forwarded-Host"))
	}))
	defer upstream.Close()

	p, err := NewUpstreamProxy(upstream.URL, zap.NewNop())
	if err != nil {
		t.Fatalf("NewUpstreamProxy() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "http://gateway.local/audio_query?speaker=1", nil)
	w := httptest.NewRecorder()
	w.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
	p.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if got := w.Body.String(); got != "POST /audio_query?speaker=1 gateway.local" {
		t.Errorf("Unexpected upstream echo %q", got)
	}
	if w.Header().Get("X-Engine") != "voice" {
		t.Error("Expected upstream headers to be copied")
	}
	if got := w.Header().Values("Access-Control-Allow-Origin"); len(got) != 1 || got[0] != "http://localhost:5173" {
		t.Errorf("Expected only the gateway's Access-Control-Allow-Origin, got %v", got)
	}

	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestUpstreamProxy_Unreachable(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	p, err := NewUpstreamProxy(url, zap.NewNop())
	if err != nil {
		t.Fatalf("NewUpstreamProxy() error = %v", err)
	}

	w := httptest.NewRecorder()
	p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/speakers", nil))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", w.Code)
	}
	var body models.DetailResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Detail != "Bad Gateway" {
		t.Errorf("Expected detail 'Bad Gateway', got %q", body.Detail)
	}

	if err := p.Ping(context.Background()); err == nil {
		t.Error("Expected Ping() to fail for a closed upstream")
	}
}

func TestStripUpstreamCORS_Vary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vary []string
		want []string
	}{
		{"no upstream vary", nil, nil},
		{"origin appended", []string{"Accept-Encoding"}, []string{"Accept-Encoding", "Origin"}},
		{"origin already listed", []string{"accept-encoding, origin"}, []string{"accept-encoding, origin"}},
		{"vary star", []string{"*"}, []string{"*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := &http.Response{Header: http.Header{}}
			for _, v := range tt.vary {
				resp.Header.Add("Vary", v)
			}
			resp.Header.Set("Access-Control-Allow-Origin", "*")

			if err := stripUpstreamCORS(resp); err != nil {
				t.Fatalf("stripUpstreamCORS() error = %v", err)
			}
			if got := resp.Header.Values("Vary"); !slices.Equal(got, tt.want) {
				t.Errorf("Expected Vary %v, got %v", tt.want, got)
			}
			if resp.Header.Get("Access-Control-Allow-Origin") != "" {
				t.Error("Expected upstream Access-Control-Allow-Origin to be dropped")
			}
		})
	}
}
