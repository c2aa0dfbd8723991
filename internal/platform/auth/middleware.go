package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Middleware authenticates requests using the session token from the
// Authorization header or the session cookie, and places the user id and
// role on the request context.
func Middleware(sessions *Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr := extractToken(c)
			if tokenStr == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
			}

			claims, err := sessions.Verify(tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session token")
			}

			ctx := WithUser(c.Request().Context(), claims.Subject, claims.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// extractToken pulls the token from a bearer Authorization header, falling
// back to the session cookie set at login.
func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// DevUserID is the user id DevMiddleware injects for unauthenticated
// requests. Handlers parse user ids as UUIDs, so it must be one.
const DevUserID = "00000000-0000-0000-0000-000000000001"

// DevMiddleware is a permissive middleware for development that treats
// unauthenticated requests as a fixed doctor user. Real tokens are still
// honored when present.
func DevMiddleware(sessions *Sessions) echo.MiddlewareFunc {
	sessionMW := Middleware(sessions)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		authed := sessionMW(next)
		return func(c echo.Context) error {
			if extractToken(c) == "" {
				ctx := WithUser(c.Request().Context(), DevUserID, "doctor")
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}
			return authed(c)
		}
	}
}
