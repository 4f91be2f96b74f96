package middleware

import (
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/telemed-assistant/errors"
	"github.com/johnquangdev/telemed-assistant/internal/adapter/dto/videocall"
	"github.com/johnquangdev/telemed-assistant/pkg/jwt"
)

// Echo context keys set by EchoAuth
const (
	UserIDKey = "user_id"
	ClaimsKey = "claims"
)

// TokenValidator parses a bearer token into claims
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// EchoAuth returns an Echo middleware that validates the bearer token and sets
// "user_id" (string) and "claims" (*jwt.Claims) into Echo context
func EchoAuth(validator TokenValidator, logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return respondError(c, errors.ErrUnauthenticated())
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				logger.Debug("auth.token.rejected",
					zap.String("path", c.Path()),
					zap.Error(err),
				)
				if stdErrors.Is(err, jwt.ErrTokenExpired) {
					return respondError(c, errors.ErrTokenExpired())
				}
				return respondError(c, errors.ErrInvalidToken())
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, claims.UserID)

			return next(c)
		}
	}
}

// RequireRole only lets through tokens carrying one of roles.
// Must run after EchoAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := GetClaims(c)
			if !ok {
				return respondError(c, errors.ErrUnauthenticated())
			}
			for _, role := range roles {
				if strings.EqualFold(claims.Role, role) {
					return next(c)
				}
			}
			return respondError(c, errors.ErrForbidden("Insufficient permissions"))
		}
	}
}

// GetClaims retrieves the verified claims from the Echo context
func GetClaims(c echo.Context) (*jwt.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*jwt.Claims)
	return claims, ok
}

// Helper functions

func extractToken(c echo.Context) string {
	// Try Authorization header first
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// Browsers cannot set headers on a WebSocket handshake
	if token := c.QueryParam("access_token"); token != "" && c.Request().Method == http.MethodGet {
		return token
	}

	return ""
}

func respondError(c echo.Context, appErr errors.AppError) error {
	return c.JSON(appErr.HTTPCode, videocall.ErrorResponse{
		Success: false,
		Error:   appErr.Message,
		Code:    appErr.Code.String(),
	})
}
