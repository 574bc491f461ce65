package middleware

import (
	"net/http"

	"github.com/benvon/origin-guard/internal/originpolicy"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// corsAllowedMethods is what "allow every method" expands to.
var corsAllowedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// CORS attaches Access-Control-Allow-* headers for origins the policy grants
// CORS access to, with credentials allowed and any request header accepted.
// Preflight requests are passed on so the origin filter still sees them.
func CORS(policy *originpolicy.Policy, logger *zap.Logger, debug bool) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowOriginFunc:    policy.AllowsCORS,
		AllowedMethods:     corsAllowedMethods,
		AllowedHeaders:     []string{"*"},
		AllowCredentials:   true,
		OptionsPassthrough: true,
	}
	if debug {
		opts.Debug = true
		opts.Logger = zap.NewStdLog(logger.Named("cors"))
	}
	logger.Info("cors_middleware_initialized",
		zap.String("cors_policy_mode", string(policy.Mode())),
		zap.Strings("allowed_origins", policy.AllowedOrigins()),
	)
	return cors.New(opts).Handler
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}
