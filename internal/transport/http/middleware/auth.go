package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/complaints-api/internal/domain"
	jwtinfra "github.com/complaints-api/internal/infrastructure/jwt"
)

type contextKey string

const UserKey contextKey = "current_user"

// SessionCookie is the cookie the browser flow stores the session token in.
// API clients use the Authorization header instead.
const SessionCookie = "token"

// CurrentUser is what a verified request carries: the token claims plus the
// freshly loaded profile. Authorization reads the profile role, not the token
// role, so demotions apply immediately.
type CurrentUser struct {
	Claims  *jwtinfra.Claims
	Profile *domain.Profile
}

type sessionVerifier interface {
	VerifySession(token string) (*jwtinfra.Claims, error)
}

type profileLoader interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

// Auth returns middleware that authenticates the request from the Bearer
// header or the session cookie and injects the CurrentUser into context.
func Auth(tokens sessionVerifier, profiles profileLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authentication token")
				return
			}
			claims, err := tokens.VerifySession(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
				writeJSONError(w, http.StatusUnauthorized, "token expired")
				return
			}
			profile, err := profiles.Get(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					writeJSONError(w, http.StatusNotFound, "user profile not found")
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "failed to load user profile")
				return
			}
			ctx := context.WithValue(r.Context(), UserKey, &CurrentUser{Claims: claims, Profile: profile})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*CurrentUser, bool) {
	u, ok := ctx.Value(UserKey).(*CurrentUser)
	return u, ok
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
