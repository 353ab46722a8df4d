package middleware

import (
	"net/http"
	"runtime/debug"

	"gemhub-inventory-api/pkg/apierror"
	"gemhub-inventory-api/pkg/logger"
)

// NewRecovery returns a middleware that recovers from panics.
func NewRecovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write(apierror.InternalError("internal server error").ToJSON())
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
