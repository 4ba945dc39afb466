// Package middleware provides HTTP middleware for candidate authentication.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// candidateIDKey is the context key for storing the authenticated candidate ID.
const candidateIDKey ContextKey = "candidateID"

// TokenValidator validates bearer tokens.
// The server's JWT service satisfies it through an adapter, which keeps this package free of import cycles.
type TokenValidator interface {
	ValidateToken(tokenString string) (CandidateIDGetter, error)
}

// CandidateIDGetter extracts the candidate ID from token claims.
type CandidateIDGetter interface {
	GetCandidateID() uuid.UUID
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the candidate ID to the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				unauthorized(w)
				return
			}

			candidateID := claims.GetCandidateID()
			if candidateID == uuid.Nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCandidateID(r.Context(), candidateID)))
		})
	}
}

// bearerToken extracts the token from a case-insensitive "Bearer <token>" Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}

// WithCandidateID returns a context carrying the authenticated candidate ID.
func WithCandidateID(ctx context.Context, candidateID uuid.UUID) context.Context {
	return context.WithValue(ctx, candidateIDKey, candidateID)
}

// GetCandidateID extracts the authenticated candidate ID from the request context.
func GetCandidateID(r *http.Request) (uuid.UUID, error) {
	candidateID, ok := r.Context().Value(candidateIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("candidate ID not found in request context")
	}
	return candidateID, nil
}
