package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"
)

// Principal returns the authenticated caller.  ok is false on public
// routes or when JWTAuth did not run.
func Principal(c echo.Context) (userID uint64, role string, ok bool) {
	id, ok := c.Get(userIDKey).(uint64)
	if !ok || id == 0 {
		return 0, "", false
	}
	role, _ = c.Get(roleKey).(string)
	return id, role, true
}

// rateSubject identifies the caller for rate limiting.
func rateSubject(c echo.Context) string {
	if id, _, ok := Principal(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
