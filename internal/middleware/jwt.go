package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/utils"
)

// JWTAuth validates the Bearer access token and stores the caller's id
// and role in the context under "user_id" (uint64) and "role" (string).
// Handlers read them back with Principal.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			id, _ := claims.UserID()
			c.Set(userIDKey, id)
			c.Set(roleKey, claims.Role)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": msg})
}
