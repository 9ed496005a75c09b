package middleware

import (
	"net/http"

	"perfeval/internal/domain/auth"
	"perfeval/internal/transport/http/api"
)

// RequireRole admits callers whose role is at least as senior as required.
func RequireRole(required auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				failUnauthenticated(w, r)
				return
			}
			if err := auth.Authorize(user.Role, required); err != nil {
				api.FromError(w, err, GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
