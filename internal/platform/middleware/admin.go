package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"crossgov/pkg/domain"
	"crossgov/pkg/requestcontext"
)

// AdminClaims is the token shape for administrator-gated routes. The address
// claim becomes the caller identity services authorize against.
type AdminClaims struct {
	Address string `json:"addr"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAdmin authenticates a Bearer token signed with the admin key and
// injects the admin's address as the request caller. Authorization against
// the stored administrator identity stays in the services; this middleware
// only establishes who is calling.
func RequireAdmin(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				unauthorized(w)
				return
			}

			claims := &AdminClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(signingKey), nil
			})
			if err != nil || !parsed.Valid || claims.Role != "admin" {
				logger.WarnContext(r.Context(), "rejected admin token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				unauthorized(w)
				return
			}

			addr, err := domain.ParseAddress(claims.Address)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := requestcontext.WithCaller(r.Context(), addr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
