package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/auth"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/http/apierr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
)

type claimsCtxKey struct{}

// ClaimsFromContext returns the session claims attached by Authenticate.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(auth.Claims)
	return claims, ok
}

// Authenticate verifies the Bearer token and attaches its claims to the
// request context.
func Authenticate(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
				writeAuthError(w, apierr.New(apperr.InvalidCredentials.WithMsg("missing bearer token")))
				return
			}

			claims, err := tokens.Parse(strings.TrimSpace(header[len("bearer "):]))
			if err != nil {
				writeAuthError(w, apierr.New(apperr.InvalidCredentials.WithMsg("invalid or expired token")))
				return
			}

			ctx := context.WithValue(r.Context(), claimsCtxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose session role is not the admin role.
// It must be mounted after Authenticate.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || claims.Role != model.RoleAdmin {
				writeAuthError(w, apierr.New(apperr.InsufficientPrivErr))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, res apierr.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	//nolint:errcheck
	json.NewEncoder(w).Encode(res)
}
