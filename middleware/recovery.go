package middleware

import (
	"log/slog"
	"net/http"
)

// PanicRecoveryMiddleware converts handler panics into 500 responses.
func PanicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Handler panic recovered", "panic", rec, "path", r.URL.Path, "method", r.Method)
				respondJSONError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
