package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	logpkg "github.com/benvon/origin-guard/internal/logger"
	"github.com/benvon/origin-guard/internal/models"
	"github.com/benvon/origin-guard/internal/request"
	"go.uber.org/zap"
)

// ErrorBoundary recovers panics from everything it wraps and answers with a
// fixed 500 body. The panic value, its type and the stack only go to the log.
func ErrorBoundary(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracked := wrapResponseWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := zap.Stack("stack")
				if sp, ok := rec.(*stackedPanic); ok {
					rec = sp.value
					stack = zap.ByteString("stack", sp.stack)
				}

				logger.Error("panic_recovered",
					zap.Any("error", rec),
					zap.String("error_type", fmt.Sprintf("%T", rec)),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("request_id", request.RequestIDFromContext(r.Context())),
					stack,
				)

				if tracked.wroteHeader {
					// Too late to change the status line.
					return
				}
				writeDetail(w, http.StatusInternalServerError, models.DetailInternalServerError, logger)
			}()

			next.ServeHTTP(tracked, r)
		})
	}
}

// stackedPanic carries a panic value across a goroutine boundary together
// with the stack of the goroutine that panicked.
type stackedPanic struct {
	value any
	stack []byte
}

func (p *stackedPanic) String() string {
	return fmt.Sprint(p.value)
}

// capturePanicStack re-panics with a *stackedPanic so the original stack
// survives handlers that recover and re-panic elsewhere.
func capturePanicStack(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			if _, ok := rec.(*stackedPanic); ok {
				panic(rec)
			}
			panic(&stackedPanic{value: rec, stack: debug.Stack()})
		}()
		next.ServeHTTP(w, r)
	})
}
