package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/junexi0828/focusmate-sub001/internal/model"
	"github.com/junexi0828/focusmate-sub001/internal/repository"
)

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware validates a bearer JWT (Authorization header, or the
// token query parameter for WebSocket upgrades) and resolves it to an
// active user row.
type AuthMiddleware struct {
	userRepo repository.UserRepository
	secret   []byte
}

func NewAuthMiddleware(userRepo repository.UserRepository, secret string) *AuthMiddleware {
	return &AuthMiddleware{userRepo: userRepo, secret: []byte(secret)}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing authentication token",
			})
			return
		}

		user, err := m.Authenticate(r.Context(), token)
		if err != nil {
			log.Warn().Err(err).Msg("auth middleware: rejected token")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authenticate maps a token to an active user, the only contract the
// core has with the auth domain.
func (m *AuthMiddleware) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidSubject
	}

	user, err := m.userRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, jwt.ErrTokenInvalidSubject
	}
	return user, nil
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// WebSocket clients cannot set headers from the browser
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	return ""
}
