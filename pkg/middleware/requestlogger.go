package middleware

import (
	"log/slog"
	"net/http"

	"github.com/blueworldgit/epc-parts-store/pkg/logger"
)

// RequestLogger stashes a request-scoped logger in the context, enriched with
// correlation_id, user_id, trace_id and span_id. Handlers pull it back out
// with logger.FromContext.
//
// Mount it after RequestLogging (correlation ID) and Tracing (span context) so
// both are already in the context. Identity already placed in the context by
// earlier middleware wins over the X-User-ID header; authentication happens
// upstream at the gateway, the header is only a hint.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if logger.UserIDFromContext(ctx) == "" {
				if userID := r.Header.Get("X-User-ID"); userID != "" {
					ctx = logger.WithUserID(ctx, userID)
				}
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
