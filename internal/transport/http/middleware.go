package httptransport

import (
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const apiKeyHeader = "x-api-key"

// responseRecorder keeps the status code and body size for the access log.
type responseRecorder struct {
	http.ResponseWriter
	code    int
	written int
}

func (rec *responseRecorder) WriteHeader(code int) {
	if rec.code == 0 {
		rec.code = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	if rec.code == 0 {
		rec.code = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.written += n
	return n, err
}

// AccessLog writes one line per request to logger. It reads the id set by
// middleware.RequestID and the client address rewritten by middleware.RealIP,
// so it has to be mounted after both.
func AccessLog(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &responseRecorder{ResponseWriter: w}
			began := time.Now()

			next.ServeHTTP(rec, r)

			if rec.code == 0 {
				rec.code = http.StatusOK
			}
			logger.Printf("[http] req_id=%s remote=%s %s %s status=%d bytes=%d duration_ms=%d",
				middleware.GetReqID(r.Context()), r.RemoteAddr, r.Method, r.URL.Path,
				rec.code, rec.written, time.Since(began).Milliseconds(),
			)
		})
	}
}

// APIKey rejects requests whose x-api-key header does not match key.
// Preflight requests pass so CORS keeps working. An empty key disables the check.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeErr(w, http.StatusForbidden, "Invalid or missing API Key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
