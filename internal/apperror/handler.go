package apperror

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"pollex.nl/folio/internal/httputil"
)

// Handler is an http.Handler whose handlers return errors instead of writing
// error responses themselves. A returned error is translated to its mapped
// status with a JSON body; nil means the handler already responded.
type Handler struct {
	Log *slog.Logger
	Fn  func(w http.ResponseWriter, r *http.Request) error
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.Fn(w, r)
	if err == nil {
		return
	}

	kind := KindOf(err)
	status := Status(kind)
	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
	}

	httputil.Error(w, status, Message(err))
}

// Recover converts a handler panic into a 500 response and logs the stack.
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered",
						"method", r.Method,
						"path", r.URL.Path,
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					httputil.InternalError(w, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
