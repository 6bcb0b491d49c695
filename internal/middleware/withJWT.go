// Package middleware provides the HTTP middleware of the report server:
// admin authentication, subnet filtering, gzip compression and request
// logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atinyakov/go-unveil/internal/app/service"
)

// ContextKey is a custom type used for keys in the context.
// It helps prevent collisions in context keys.
type ContextKey string

// ClaimsKey is the key the verified admin claims are stored under.
const ClaimsKey ContextKey = "claims"

// TokenCookie is the name of the cookie carrying the admin token.
const TokenCookie = "token"

// InjectClaims adds admin claims to the request context.
func InjectClaims(req *http.Request, claims *service.Claims) *http.Request {
	ctx := context.WithValue(req.Context(), ClaimsKey, claims)
	return req.WithContext(ctx)
}

// ClaimsFrom returns the admin claims stored in ctx, if any.
func ClaimsFrom(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*service.Claims)
	return claims, ok && claims != nil
}

// IsElevated reports whether ctx carries superuser claims.
func IsElevated(ctx context.Context) bool {
	claims, ok := ClaimsFrom(ctx)
	return ok && claims.IsSuperuser
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// WithAdmin verifies the admin token found in the token cookie or in a
// bearer header and stores its claims in the request context. The bearer
// header is tried when the cookie is missing or invalid. Requests without a
// valid token pass through anonymously.
func WithAdmin(auth service.AuthIface) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var claims *service.Claims

			if cookie, err := r.Cookie(TokenCookie); err == nil {
				claims, _ = auth.ParseClaims(cookie)
			}
			if claims == nil {
				if raw := BearerToken(r); raw != "" {
					claims, _ = auth.ParseRawJWT(raw)
				}
			}

			if claims != nil {
				r = InjectClaims(r, claims)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireElevated rejects requests that do not carry superuser claims.
func RequireElevated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsElevated(r.Context()) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
