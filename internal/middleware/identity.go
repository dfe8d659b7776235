package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// CurrentUser returns the authenticated user id and role stored by
// JWTAuth.  ok is false for anonymous requests.
func CurrentUser(c echo.Context) (id uint64, role string, ok bool) {
	id, ok = c.Get(KeyUserID).(uint64)
	if !ok || id == 0 {
		return 0, "", false
	}
	role, _ = c.Get(KeyRole).(string)
	return id, role, true
}

// identity is the rate limit key fragment for the caller.
func identity(c echo.Context) string {
	if id, _, ok := CurrentUser(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
