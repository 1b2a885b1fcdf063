package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crucial707/expense-tracker/internal/auth"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const identityKey ctxKey = "identity"

// TokenVerifier resolves a bearer token to an identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Authenticate rejects requests without a valid "Authorization: Bearer <token>"
// header and stores the caller's identity in the request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "authorization header missing")
				return
			}

			scheme, tokenStr, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenStr) == "" {
				writeJSONError(w, http.StatusUnauthorized, "authorization header must be Bearer <token>")
				return
			}

			id, err := verifier.Verify(tokenStr)
			if err != nil {
				slog.Debug("token rejected", "request_id", chimw.GetReqID(r.Context()), "error", err)
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored by Authenticate.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
