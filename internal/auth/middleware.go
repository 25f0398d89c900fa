package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/arcadia-retail/arcadia-retail/internal/platform/httpx"
	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

// Middleware extracts and verifies the bearer token, placing the principal
// in the request context. Requests without a valid token are rejected.
func Middleware(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.Fail(w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}
			principal, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("token rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
				httpx.Fail(w, http.StatusUnauthorized, "invalid token", nil)
				return
			}
			ctx := shared.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
