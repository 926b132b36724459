package handler

import (
	"net/http"
	"strings"

	"github.com/clinicstock/backend/internal/auth/jwt"
	"github.com/clinicstock/backend/pkg/actor"
	"github.com/clinicstock/backend/pkg/errors"
	"github.com/clinicstock/backend/pkg/httputil"
)

// RequireAuth rejects requests without a valid bearer token and attaches the
// token's user as the request actor.
func RequireAuth(manager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				httputil.Error(w, errors.Unauthorized("missing bearer token"))
				return
			}

			claims, err := manager.Validate(strings.TrimSpace(token))
			if err != nil {
				httputil.Error(w, err)
				return
			}

			next.ServeHTTP(w, httputil.WithActor(r, &actor.Actor{
				ID:       claims.UserID,
				Username: claims.Username,
				Role:     claims.Role,
			}))
		})
	}
}
