package middlewares

import (
	"net/http"

	apperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/security/apikey"
)

const adminKeyHeader = "X-Admin-Key"

// WithAdminKey rejects requests whose X-Admin-Key does not verify against
// the configured hash. An empty hash closes the routes entirely.
func WithAdminKey(keyHash string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(adminKeyHeader)
			if presented == "" || !apikey.Verify(keyHash, presented) {
				logger.From(r.Context()).Warn("admin key rejected",
					logger.Path(r.URL.Path),
				)
				apperrors.WriteError(w, apperrors.ErrInvalidAdminKey)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
