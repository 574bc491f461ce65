package main

import (
	"fmt"
	"net/http"

	"github.com/benvon/origin-guard/internal/config"
	"github.com/benvon/origin-guard/internal/handlers"
	"github.com/benvon/origin-guard/internal/middleware"
	"github.com/benvon/origin-guard/internal/models"
	"github.com/benvon/origin-guard/internal/originpolicy"
	"github.com/benvon/origin-guard/internal/telemetry"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type dependencies struct {
	cfg      *config.Config
	logger   *zap.Logger
	policy   *originpolicy.Policy
	redis    *middleware.RedisClient
	upstream *handlers.UpstreamProxy
	tracing  bool
}

// newHandler builds the full request pipeline. Gateway endpoints take
// precedence over the upstream; everything else is proxied when an upstream
// is configured and answered with 404 otherwise.
func newHandler(d dependencies) (http.Handler, error) {
	r := mux.NewRouter()

	if d.tracing {
		r.Use(telemetry.RouterMiddleware(serviceName))
		d.logger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.SecurityHeaders(d.cfg.EnableHSTS))
	r.Use(middleware.MaxRequestSize(d.cfg.MaxRequestSize, d.logger))
	r.Use(middleware.Timeout(d.cfg.RequestTimeout))

	if d.cfg.RateLimit != "" {
		store, err := middleware.NewLimiterStore(d.redis)
		if err != nil {
			return nil, err
		}
		rateLimit, err := middleware.RateLimit(d.cfg.RateLimit, store, d.logger)
		if err != nil {
			return nil, fmt.Errorf("configure rate limit: %w", err)
		}
		r.Use(rateLimit)
		d.logger.Info("rate_limit_enabled",
			zap.String("rate", d.cfg.RateLimit),
			zap.Bool("shared_store", d.redis != nil),
		)
	}

	checks := map[string]handlers.Pinger{"redis": nil, "upstream": nil}
	if d.redis != nil {
		checks["redis"] = d.redis
	}
	if d.upstream != nil {
		checks["upstream"] = d.upstream
	}
	healthChecker := handlers.NewHealthChecker(checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", handlers.NewVersionHandler(version).GetVersion).Methods("GET")
	handlers.NewCorsPolicyHandler(models.NewCorsPolicy(d.policy)).RegisterRoutes(r)
	handlers.NewOpenAPIHandler(nil).RegisterRoutes(r)

	if d.upstream != nil {
		r.PathPrefix("/").Handler(d.upstream)
	} else {
		r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	}

	guard := middleware.OriginGuard(d.policy, d.logger, middleware.GuardOptions{Debug: d.cfg.ServerDebugMode})

	return middleware.Chain(r,
		middleware.RequestID,
		middleware.Logging(d.logger),
		middleware.Audit(d.logger),
		guard,
	), nil
}
