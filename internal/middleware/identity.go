// Package middleware provides HTTP middleware for authentication, request
// identification, and rate limiting.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"laci-tracker/internal/domain"
)

type identityKey struct{}

// WithIdentity stores the resolved identity in the context.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext extracts the resolved identity from the context.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}

// Authenticator validates the HS256 bearer token and places the caller's
// identity in the request context. Requests without a valid token get 401.
func Authenticator(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w, "missing bearer token")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims,
				func(*jwt.Token) (any, error) { return secret, nil },
				jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				unauthorized(w, "invalid token")
				return
			}

			identity := identityFromClaims(claims)
			if identity.Email == "" && identity.UPN == "" && identity.PreferredUsername == "" {
				unauthorized(w, "token carries no identity")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// identityFromClaims maps the token claims onto a domain identity. Group
// membership arrives as a string array claim; anything else is ignored.
func identityFromClaims(claims jwt.MapClaims) domain.Identity {
	identity := domain.Identity{
		Email:             stringClaim(claims, "email"),
		DisplayName:       stringClaim(claims, "name"),
		UPN:               stringClaim(claims, "upn"),
		PreferredUsername: stringClaim(claims, "preferred_username"),
	}
	if raw, ok := claims["groups"].([]any); ok {
		for _, g := range raw {
			if s, ok := g.(string); ok {
				identity.Groups = append(identity.Groups, s)
			}
		}
	}
	return identity
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
