package middleware

import (
	"net/http"

	logpkg "github.com/benvon/origin-guard/internal/logger"
	"github.com/benvon/origin-guard/internal/request"
	"go.uber.org/zap"
)

// Audit logs rate limit violations and server errors. Origin rejections are
// logged by OriginFilter itself.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			statusCode := wrapped.statusCode
			switch {
			case statusCode == http.StatusTooManyRequests:
				logger.Warn("rate_limit_violation",
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeIP(request.ClientIP(r))),
				)
			case statusCode >= http.StatusInternalServerError:
				logger.Warn("server_error_response",
					zap.Int("status_code", statusCode),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("request_id", request.RequestIDFromContext(r.Context())),
				)
			}
		})
	}
}
