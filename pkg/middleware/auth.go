package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ecom-backend/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*utils.SessionClaims, error)
}

// Auth validates the bearer session token and puts the caller's id and role
// on the request context.
func Auth(tokens TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseError(w, http.StatusUnauthorized, "Unauthenticated", "Missing authorization token")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				utils.ResponseError(w, http.StatusUnauthorized, "Unauthenticated", "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					utils.ResponseError(w, http.StatusUnauthorized, "TokenExpired", "Session expired, please log in again")
					return
				}
				logger.Debug("Rejected session token", zap.Error(err), zap.String("path", r.URL.Path))
				utils.ResponseError(w, http.StatusUnauthorized, "InvalidToken", "Invalid session token")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				logger.Warn("Session token with malformed subject", zap.String("subject", claims.Subject))
				utils.ResponseError(w, http.StatusUnauthorized, "InvalidToken", "Invalid session token")
				return
			}

			ctx := utils.SetUserContext(r.Context(), userID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through only when Auth stored the given role.
// The role comes from the signed token, so no lookup is made.
func RequireRole(role string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseError(w, http.StatusUnauthorized, "Unauthenticated", "Authentication required")
				return
			}

			if got, _ := utils.GetRoleFromContext(r.Context()); got != role {
				logger.Warn("Role check failed",
					zap.String("user_id", userID.String()),
					zap.String("required", role),
					zap.String("path", r.URL.Path))
				utils.ResponseError(w, http.StatusForbidden, "Forbidden", "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
