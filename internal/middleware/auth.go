package middleware

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/victor-nwoseh/finance-tracker/internal/auth"
	"github.com/victor-nwoseh/finance-tracker/internal/http/respond"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// token's claims on the request context.
func RequireAuth(tokens *auth.TokenManager, log logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tokens.Configured() {
			log.Error("JWT secret is not configured")
			respond.Error(w, http.StatusInternalServerError, "server authentication is misconfigured")
			return
		}

		header := r.Header.Get("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			respond.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			log.WithError(err).Debug("rejected bearer token")
			respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}
