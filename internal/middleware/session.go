// Package middleware carries the request-scoped guards: session
// resolution, CSRF verification, login enforcement and rate limiting.
package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/session"
)

const (
	ctxSession   = "session"
	ctxPrincipal = "principal"
)

// WithSession resolves the session cookie once per request. A missing
// or expired cookie gets a fresh anonymous session, so every request
// downstream can rely on a session (and its CSRF token) existing. The
// resolved principal is attached alongside - identity is threaded
// through the context explicitly, never read from globals.
func WithSession(mgr *session.Manager, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			var sess *session.Session
			if cookie, err := c.Cookie(session.CookieName); err == nil {
				if s, err := mgr.Sessions.Get(ctx, cookie.Value); err == nil {
					sess = s
				}
			}
			if sess == nil {
				s, err := mgr.Sessions.Create(ctx)
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
				}
				sess = s
				SetSessionCookie(c, sess, mgr.Sessions.TTL(), secure)
			}

			principal, err := mgr.Resolve(ctx, sess)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "identity resolution failed"})
			}

			c.Set(ctxSession, sess)
			if principal != nil {
				c.Set(ctxPrincipal, principal)
			}
			return next(c)
		}
	}
}

// CurrentSession returns the session attached by WithSession.
func CurrentSession(c echo.Context) *session.Session {
	s, _ := c.Get(ctxSession).(*session.Session)
	return s
}

// CurrentPrincipal returns the resolved identity, nil when anonymous.
func CurrentPrincipal(c echo.Context) *session.Principal {
	p, _ := c.Get(ctxPrincipal).(*session.Principal)
	return p
}

// SetSessionCookie (re)issues the session cookie; also used after
// login rotation.
func SetSessionCookie(c echo.Context, sess *session.Session, ttl time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the cookie on logout.
func ClearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireAuth rejects anonymous requests. Must run after WithSession.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentPrincipal(c).Anonymous() {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
			}
			return next(c)
		}
	}
}
