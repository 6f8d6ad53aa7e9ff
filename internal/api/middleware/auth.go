package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/go-crm/internal/api/dto"
	"github.com/hugh/go-crm/internal/apperr"
	"github.com/hugh/go-crm/internal/database/models"
)

type contextKey string

const userKey contextKey = "user"

// TokenCookie is the cookie login sets for browser clients.
const TokenCookie = "token"

// Authenticator resolves a token to the user whose current session it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func Auth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			user, err := a.Authenticate(r.Context(), token)
			if err != nil {
				switch apperr.KindOf(err) {
				case apperr.Unauthorized, apperr.InvalidToken:
					writeError(w, http.StatusUnauthorized, "Unauthorized")
				case apperr.Deactivated:
					writeError(w, http.StatusForbidden, "Account is deactivated")
				default:
					writeError(w, http.StatusInternalServerError, "Authentication failed")
				}
				return
			}

			noteUser(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// TokenFromRequest looks for the token in the Authorization header, then the
// token cookie, then X-Auth-Token.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get("X-Auth-Token")
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the authenticated user, or nil outside Auth.
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(userKey).(*models.User); ok {
		return user
	}
	return nil
}

func GetUserID(ctx context.Context) uuid.UUID {
	if user := GetUser(ctx); user != nil {
		return user.ID
	}
	return uuid.Nil
}

// RequireRole middleware ensures user has specific role
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, "Forbidden")
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg})
}
