package flags

import (
	"net/http"

	"pollex.nl/folio/internal/httputil"
)

// RequireFlag guards a handler behind a feature flag. Requests are rejected
// with 403 while the flag is off.
func RequireFlag(client *Client, key string, def bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !client.Enabled(r.Context(), key, def) {
				httputil.Error(w, http.StatusForbidden, "feature not enabled")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
