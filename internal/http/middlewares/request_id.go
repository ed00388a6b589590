package middlewares

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dropDatabas3/socialgate/internal/observability/logger"
)

const requestIDHeader = "X-Request-Id"

// WithRequestID assigns each request an id, honoring one supplied by a
// trusted proxy, and hangs a request-scoped logger off the context.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			ctx := setRequestID(r.Context(), id)
			ctx = logger.ToContext(ctx, logger.L().With(logger.RequestID(id)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
