// Package middleware provides HTTP middleware shared by the snippet services.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey struct{ name string }

var traceIDKey = contextKey{"trace-id"}

// TraceHeader is the request/response header carrying the trace ID.
const TraceHeader = "X-Trace-ID"

// NewTraceID returns a fresh trace ID.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores a trace ID on the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFrom returns the trace ID on the context, or "".
func TraceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// RequestLogger logs one structured line per request: method, route, status,
// size, duration and trace ID. The trace ID comes from the X-Trace-ID header
// when present, is generated otherwise, and is echoed on the response.
func RequestLogger(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			traceID := r.Header.Get(TraceHeader)
			if traceID == "" {
				traceID = NewTraceID()
			}

			ctx := WithTraceID(r.Context(), traceID)
			w.Header().Set(TraceHeader, traceID)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					path = tmpl
				}
			}

			log.Info("request",
				"method", r.Method,
				"path", path,
				"status", wrapped.statusCode,
				"bytes", wrapped.bytes,
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"trace_id", traceID,
			)
		})
	}
}

// responseWriter captures the status code and body size written downstream.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
