package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ContextUserIDKey is the echo context key the middleware stores the
// authenticated user id under.
const ContextUserIDKey = "user_id"

// Middleware returns an echo middleware that requires a valid Bearer token.
// Paths matched by skipper bypass the check.
func Middleware(svc *Service, skipper func(c echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header required")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			userID, err := svc.ParseToken(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(ContextUserIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id stored by Middleware, or "".
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserIDKey).(string)
	return id
}
