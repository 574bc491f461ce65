package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	logpkg "github.com/benvon/origin-guard/internal/logger"
	"github.com/benvon/origin-guard/internal/models"
	"go.uber.org/zap"
)

// UpstreamProxy forwards requests the gateway does not serve itself to the engine.
type UpstreamProxy struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
	client *http.Client
	logger *zap.Logger
}

// NewUpstreamProxy creates a reverse proxy to rawURL.
func NewUpstreamProxy(rawURL string, logger *zap.Logger) (*UpstreamProxy, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q must use http or https", rawURL)
	}
	if target.Host == "" {
		return nil, fmt.Errorf("upstream url %q has no host", rawURL)
	}

	p := &UpstreamProxy{
		target: target,
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
	}
	p.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ModifyResponse: stripUpstreamCORS,
		ErrorHandler:   p.handleError,
	}
	return p, nil
}

// ServeHTTP implements http.Handler.
func (p *UpstreamProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.proxy.ServeHTTP(w, r)
}

// Ping reports whether the upstream answers at all. Any HTTP response counts.
func (p *UpstreamProxy) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.target.String(), nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (p *UpstreamProxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		// Client went away; nobody is left to read a response.
		return
	}
	p.logger.Error("upstream_request_failed",
		zap.String("error", logpkg.SanitizeError(err)),
		zap.String("method", r.Method),
		zap.String("path", logpkg.SanitizePath(r.URL.Path)),
	)
	respondDetail(w, http.StatusBadGateway, models.DetailBadGateway)
}

// stripUpstreamCORS drops CORS headers set by the upstream. The gateway's own
// policy is the only one a browser should see, and the reverse proxy would
// otherwise add duplicate values. Origin is added to Vary because the upstream
// Vary replaces the one the CORS middleware set on the way in.
func stripUpstreamCORS(resp *http.Response) error {
	for key := range resp.Header {
		if strings.HasPrefix(key, "Access-Control-") {
			resp.Header.Del(key)
		}
	}
	if vary := resp.Header.Values("Vary"); len(vary) > 0 && !varies(vary, "Origin") {
		resp.Header.Add("Vary", "Origin")
	}
	return nil
}

func varies(values []string, header string) bool {
	for _, v := range values {
		for _, field := range strings.Split(v, ",") {
			field = strings.TrimSpace(field)
			if field == "*" || strings.EqualFold(field, header) {
				return true
			}
		}
	}
	return false
}
