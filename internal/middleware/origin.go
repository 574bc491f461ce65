package middleware

import (
	"net/http"

	logpkg "github.com/benvon/origin-guard/internal/logger"
	"github.com/benvon/origin-guard/internal/models"
	"github.com/benvon/origin-guard/internal/originpolicy"
	"github.com/benvon/origin-guard/internal/request"
	"go.uber.org/zap"
)

// OriginFilter rejects requests whose Origin the evaluator does not allow with
// 403 {"detail": "Origin not allowed"}. Rejected requests never reach next.
func OriginFilter(evaluator originpolicy.Evaluator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := evaluator.Evaluate(r.Header)
			if !decision.Allowed {
				origin, _ := request.Origin(r)
				logger.Warn("origin_rejected",
					zap.String("origin", logpkg.SanitizeOrigin(origin)),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeIP(request.ClientIP(r))),
					zap.String("request_id", request.RequestIDFromContext(r.Context())),
				)
				writeDetail(w, http.StatusForbidden, models.DetailOriginNotAllowed, logger)
				return
			}

			if ce := logger.Check(zap.DebugLevel, "origin_allowed"); ce != nil {
				origin, _ := request.Origin(r)
				ce.Write(
					zap.String("origin", logpkg.SanitizeOrigin(origin)),
					zap.Stringer("rule", decision.Rule),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}
