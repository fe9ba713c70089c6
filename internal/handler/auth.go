package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/config"
	"github.com/yeojw/kampung/internal/middleware"
	"github.com/yeojw/kampung/internal/session"
)

// AuthHandler serves login, logout and the current-user endpoint.
type AuthHandler struct {
	Cfg      config.Config
	Sessions *session.Manager
}

func NewAuthHandler(cfg config.Config, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Sessions: sessions}
}

type loginReq struct {
	Identifier string `json:"identifier"` // username or email
	Password   string `json:"password"`
}

type meResp struct {
	User        userCard `json:"user"`
	Email       string   `json:"email"`
	UnreadCount int      `json:"unread_count"`
	CSRFToken   string   `json:"csrf_token"`
}

// Login authenticates and rotates the session. Every failure mode
// answers with the same generic message.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Identifier == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identifier/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sess := middleware.CurrentSession(c)
	fresh, user, err := h.Sessions.Authenticate(ctx, sess, req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	middleware.SetSessionCookie(c, fresh, h.Sessions.Sessions.TTL(), h.Cfg.SecureCookies)
	return c.JSON(http.StatusOK, echo.Map{
		"user":       toUserCard(user),
		"csrf_token": fresh.CSRFToken,
	})
}

// Logout destroys the whole session payload and expires the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	sess := middleware.CurrentSession(c)
	if err := h.Sessions.Logout(ctx, sess); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	middleware.ClearSessionCookie(c, h.Cfg.SecureCookies)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the resolved principal with the unread badge and the CSRF
// token the client must echo on mutations.
func (h *AuthHandler) Me(c echo.Context) error {
	principal := middleware.CurrentPrincipal(c)
	sess := middleware.CurrentSession(c)
	if principal.Anonymous() {
		return c.JSON(http.StatusOK, echo.Map{
			"user":       nil,
			"csrf_token": sess.CSRFToken,
		})
	}
	return c.JSON(http.StatusOK, meResp{
		User:        toUserCard(principal.User),
		Email:       principal.User.Email,
		UnreadCount: principal.UnreadCount,
		CSRFToken:   sess.CSRFToken,
	})
}
