package middleware

import (
	"net/http"
	"time"

	logpkg "github.com/benvon/origin-guard/internal/logger"
	"github.com/benvon/origin-guard/internal/request"
	"go.uber.org/zap"
)

// Logging creates logging middleware
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.Int("status_code", wrapped.statusCode),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", request.RequestIDFromContext(r.Context())),
			}
			if origin, ok := request.Origin(r); ok {
				fields = append(fields, zap.String("origin", logpkg.SanitizeOrigin(origin)))
			}
			logger.Info("http_request", fields...)
		})
	}
}
