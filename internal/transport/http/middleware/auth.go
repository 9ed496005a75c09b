package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"perfeval/internal/domain/auth"
	"perfeval/internal/transport/http/api"
)

type ctxKey string

const (
	ctxKeyUser       ctxKey = "user"
	ctxKeyTokenError ctxKey = "token_error"
)

// Auth resolves the bearer token into a UserContext. Requests with a missing
// or unusable token continue anonymously; RequireAuth and RequireRole answer
// 401 for them.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r.WithContext(withTokenError(r.Context(), "invalid authorization header")))
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil || !claims.Role.Valid() {
				slog.Debug("token rejected", "requestId", GetRequestID(r.Context()), "err", err)
				next.ServeHTTP(w, r.WithContext(withTokenError(r.Context(), "invalid or expired token")))
				return
			}

			ctx := WithUser(r.Context(), auth.UserContext{UserID: claims.UserID, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

func withTokenError(ctx context.Context, message string) context.Context {
	return context.WithValue(ctx, ctxKeyTokenError, message)
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			failUnauthenticated(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// failUnauthenticated reports invalid_token when a bearer token was sent but
// rejected, and unauthorized when none was sent.
func failUnauthenticated(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	if message, ok := r.Context().Value(ctxKeyTokenError).(string); ok {
		api.Fail(w, http.StatusUnauthorized, "invalid_token", message, requestID)
		return
	}
	api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
}
