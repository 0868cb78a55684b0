package httpserver

import (
	"context"
	"net/http"
	"strings"

	"westrates-service/internal/application"
	"westrates-service/internal/domain"
)

const claimsKey contextKey = "claims"

func claimsFromContext(ctx context.Context) (application.TokenClaims, bool) {
	c, ok := ctx.Value(claimsKey).(application.TokenClaims)
	return c, ok
}

// requireAuth verifies the Bearer token and stashes its claims in the
// request context.
func requireAuth(tokens application.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if !strings.HasPrefix(raw, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := tokens.Verify(strings.TrimPrefix(raw, "Bearer "))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireRole allows only the listed roles past. Must sit behind requireAuth.
func requireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if !allowed[claims.Role] {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
