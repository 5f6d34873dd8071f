package api

import (
	"compress/gzip"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	kzip "github.com/klauspost/compress/gzip"
)

// requestIDHeader carries a per-request id through to the client, so a
// report of one request can be correlated with one line in the server log.
const requestIDHeader = "X-Request-ID"

// LoggingMiddleware logs method, path, status, duration, and a generated
// request id for every request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf("[http] %s %s id=%s status=%d duration=%s", r.Method, r.URL.Path, requestID, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// RecoveryMiddleware converts a panicking handler into a 500 response
// instead of crashing the server (spec.md §9: "every I/O at the HTTP
// boundary must translate to a 4xx/5xx response, never crash the process").
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[http] panic handling %s %s: %v", r.Method, r.URL.Path, rec)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// gzipResponseWriter wraps http.ResponseWriter so Write goes through the
// gzip encoder transparently.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz *kzip.Writer
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.gz.Write(b)
}

// GzipMiddleware compresses responses for clients advertising gzip support.
// Routes serving already-compressed or latency-sensitive binary payloads
// (the chunk envelope, proxied images) should not be wrapped with this.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gz, err := kzip.NewWriterLevel(w, gzip.BestSpeed)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		defer gz.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, gz: gz}, r)
	})
}
