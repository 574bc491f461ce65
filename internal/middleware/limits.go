package middleware

import (
	"net/http"
	"time"

	"github.com/benvon/origin-guard/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultMaxRequestSize is the default maximum request body size (1MB)
	DefaultMaxRequestSize int64 = 1 << 20
	// DefaultRequestTimeout is the default request timeout (30 seconds)
	DefaultRequestTimeout = 30 * time.Second
)

// MaxRequestSize rejects bodies declared larger than maxBytes and caps the
// rest with http.MaxBytesReader.
func MaxRequestSize(maxBytes int64, logger *zap.Logger) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeDetail(w, http.StatusRequestEntityTooLarge, models.DetailEntityTooLarge, logger)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

const timeoutBody = `{"detail":"Request Timeout"}`

// Timeout bounds handler run time. Timed out requests get 503 with a
// {"detail": "Request Timeout"} JSON body.
//
// http.TimeoutHandler runs next on its own goroutine and re-panics with only
// the recovered value, so panics are captured there together with their stack
// for ErrorBoundary to log.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		inner := http.TimeoutHandler(capturePanicStack(withContentType(next)), timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// TimeoutHandler writes its own 503 body without a Content-Type.
			// Completed responses replace this with the handler's header.
			if _, ok := w.Header()["Content-Type"]; !ok {
				w.Header().Set("Content-Type", "application/json")
			}
			inner.ServeHTTP(w, r)
		})
	}
}

// withContentType settles the Content-Type inside the timeout buffer the way
// net/http would on a direct write: sniffed from the first body bytes, and
// left unset for an empty body.
func withContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &contentTypeWriter{ResponseWriter: w}
		next.ServeHTTP(cw, r)
		if !cw.wroteBody {
			if _, ok := w.Header()["Content-Type"]; !ok {
				// A nil value suppresses the header entirely.
				w.Header()["Content-Type"] = nil
			}
		}
	})
}

type contentTypeWriter struct {
	http.ResponseWriter
	wroteBody bool
}

func (cw *contentTypeWriter) Write(b []byte) (int, error) {
	if !cw.wroteBody && len(b) > 0 {
		cw.wroteBody = true
		if _, ok := cw.Header()["Content-Type"]; !ok {
			cw.Header().Set("Content-Type", http.DetectContentType(b))
		}
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *contentTypeWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
