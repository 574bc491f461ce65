package middleware

import (
	"io"
	"net/http"

	"github.com/benvon/origin-guard/internal/originpolicy"
	"go.uber.org/zap"
)

// GuardOptions tunes OriginGuard.
type GuardOptions struct {
	// Debug routes rs/cors decision traces to the logger.
	Debug bool
}

// OriginGuard composes, outermost first, ErrorBoundary, CORS and OriginFilter
// around next. Allowed preflight requests are answered here with 200 "OK".
// A preflight from an origin that passes the filter without CORS access, such
// as a browser extension, gets 400 "Disallowed CORS origin".
//
// CORS headers are written before the rest of the chain runs, so a 500 from the
// boundary still carries them.
func OriginGuard(policy *originpolicy.Policy, logger *zap.Logger, opts GuardOptions) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	boundary := ErrorBoundary(logger)
	corsHeaders := CORS(policy, logger, opts.Debug)
	filter := OriginFilter(policy, logger)

	return func(next http.Handler) http.Handler {
		return Chain(answerPreflight(policy, next), boundary, corsHeaders, filter)
	}
}

const disallowedCORSOrigin = "Disallowed CORS origin"

func answerPreflight(policy *originpolicy.Policy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isPreflight(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if origins := r.Header.Values("Origin"); len(origins) > 0 && !policy.AllowsCORS(origins[0]) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, disallowedCORSOrigin)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "OK")
	})
}
