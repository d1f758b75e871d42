package api

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey string

// ContextKeyRequestID holds the per-request correlation id.
const ContextKeyRequestID contextKey = "requestID"

// RequestID returns the correlation id attached by RequestIDMiddleware,
// empty when the middleware did not run.
func RequestID(r *http.Request) string {
	if id, ok := r.Context().Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// RequestIDMiddleware attaches a correlation id to every request. An id
// supplied by the client via X-Request-ID is honored, otherwise a fresh
// one is generated. The id is echoed back on the response.
func RequestIDMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)
			ctx := context.WithValue(r.Context(), ContextKeyRequestID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the status code written by the handler chain.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware logs one line per request with method, path, status
// and latency. OPTIONS preflights are skipped to keep the log readable.
func LoggingMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Printf("[http] %s %s status=%d duration=%s requestId=%s",
				r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond), RequestID(r))
		})
	}
}
