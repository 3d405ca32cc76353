package jwt

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Middleware rejects requests without a valid bearer token with 401 and
// stores the verified claims in the request context.
func Middleware(s *Service) func(http.Handler) http.Handler {
	if s == nil {
		panic("jwt: service is required")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				unauthorized(w, err)
				return
			}
			claims, err := s.Parse(token)
			if err != nil {
				unauthorized(w, err)
				return
			}
			if _, err := claims.AccountID(); err != nil {
				unauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	msg := "unauthorized"
	if errors.Is(err, ErrMissingToken) {
		msg = "missing authorization"
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
