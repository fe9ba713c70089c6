package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// CSRF rejects any state-changing request whose token does not match
// the session's. The check runs before the handler, so a mismatch can
// never leave partial side effects. Tokens arrive in the X-CSRF-Token
// header or a csrf_token form field.
func CSRF() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return next(c)
			}

			sess := CurrentSession(c)
			if sess == nil || sess.CSRFToken == "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid csrf token"})
			}
			submitted := c.Request().Header.Get("X-CSRF-Token")
			if submitted == "" {
				submitted = c.FormValue("csrf_token")
			}
			if subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(submitted)) != 1 {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid csrf token"})
			}
			return next(c)
		}
	}
}
