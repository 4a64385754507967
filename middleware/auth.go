package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cavemicro/isolate-api/auth"
	"github.com/cavemicro/isolate-api/models"
	"github.com/cavemicro/isolate-api/services"
)

type contextKey string

const userContextKey contextKey = "authenticated_user"

// AuthMiddleware authenticates bearer credentials and attaches the
// resolved user to the request context.
type AuthMiddleware struct {
	tokens *auth.TokenService
	users  *services.UserService
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(tokens *auth.TokenService, users *services.UserService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// UserFrom returns the authenticated user from the request context, or
// nil for an anonymous caller.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// extractBearerToken pulls the token out of the Authorization header,
// falling back to the mirrored auth cookie.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// resolve verifies the credential and loads the subject user.
func (m *AuthMiddleware) resolve(r *http.Request) (*models.User, error) {
	tokenString := extractBearerToken(r)
	if tokenString == "" {
		return nil, nil
	}
	claims, err := m.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return m.users.Load(claims.UserID)
}

// Required rejects requests without a valid credential.
func (m *AuthMiddleware) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolve(r)
		if err != nil || user == nil {
			if err != nil {
				slog.Warn("Token validation failed", "error", err, "path", r.URL.Path, "method", r.Method)
			}
			respondJSONError(w, http.StatusUnauthorized, "Invalid or missing credential")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

// Optional attaches the user when a valid credential is present and
// leaves the caller anonymous otherwise. An invalid credential on an
// optional endpoint is not an error.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolve(r)
		if err != nil {
			slog.Debug("Ignoring invalid credential on optional endpoint", "path", r.URL.Path)
		}
		if user != nil {
			r = r.WithContext(context.WithValue(r.Context(), userContextKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
