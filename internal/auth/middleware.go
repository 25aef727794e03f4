package auth

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/golang-jwt/jwt/v5"
)

// EchoMiddleware returns the JWT middleware validating bearer tokens on
// protected routes.
func EchoMiddleware(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: secret,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
	})
}

// RequireRole rejects authenticated callers whose role claim differs from the
// required one. It must run after EchoMiddleware.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return c.JSON(401, map[string]string{"error": "Unauthorized"})
			}
			claims, ok := token.Claims.(*Claims)
			if !ok || claims.Role != role {
				return c.JSON(403, map[string]string{"error": "Forbidden"})
			}
			return next(c)
		}
	}
}

// AdminGuard bundles token validation and the ADMIN role check.
func AdminGuard(secret []byte) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{EchoMiddleware(secret), RequireRole(RoleAdmin)}
}
