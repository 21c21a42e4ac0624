package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"custodia/pkg/domain"
	"custodia/pkg/requestcontext"
)

// TokenValidator resolves the principal a bearer token asserts. Keeping the
// interface here inverts the dependency so the middleware never imports the
// JWT implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (domain.Principal, error)
}

// RequireAuth resolves the calling principal from the Authorization header
// and injects it into the request context. Requests without a valid bearer
// token are rejected; downstream services read the principal per invocation
// via requestcontext.Principal.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			principal, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + description + `"}`))
}
