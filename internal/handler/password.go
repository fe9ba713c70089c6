package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/auth"
	"github.com/yeojw/kampung/internal/config"
	"github.com/yeojw/kampung/internal/middleware"
	"github.com/yeojw/kampung/internal/registration"
	"github.com/yeojw/kampung/internal/repository"
)

// PasswordHandler serves the reset and change-password flows.
type PasswordHandler struct {
	Cfg   config.Config
	Reset *auth.ResetService
	Users *repository.UserRepo
}

func NewPasswordHandler(cfg config.Config, reset *auth.ResetService, users *repository.UserRepo) *PasswordHandler {
	return &PasswordHandler{Cfg: cfg, Reset: reset, Users: users}
}

type forgotReq struct {
	Email string `json:"email"`
}

type resetReq struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type changeReq struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Forgot requests a reset token. The answer is identical whether or
// not the email exists.
func (h *PasswordHandler) Forgot(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !registration.ValidateEmail(email) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"errors": map[string]string{"email": "Please enter a valid email address."},
		})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Reset.Request(ctx, email); err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "If the email exists, a reset link has been sent.",
	})
}

// ResetPassword redeems a token. Unknown, expired and already-used
// tokens share one response.
func (h *PasswordHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := passwordPairErrors(req.Password, req.ConfirmPassword); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Reset.Redeem(ctx, strings.TrimSpace(req.Token), req.Password); err != nil {
		if errors.Is(err, auth.ErrTokenInvalid) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "This reset link is invalid or expired."})
		}
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated. Please log in."})
}

// Change replaces the credential of the logged-in user after verifying
// the current one.
func (h *PasswordHandler) Change(c echo.Context) error {
	principal := middleware.CurrentPrincipal(c)

	var req changeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	errs := passwordPairErrors(req.NewPassword, req.ConfirmPassword)
	if req.OldPassword == "" {
		errs["old_password"] = "Please enter your current password."
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}
	if !auth.VerifyPassword(principal.User.PasswordHash, req.OldPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"errors": map[string]string{"old_password": "Current password is incorrect."},
		})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	hash, err := auth.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change failed"})
	}
	if err := h.Users.UpdatePassword(ctx, principal.User.ID, hash); err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated."})
}

func passwordPairErrors(password, confirm string) map[string]string {
	errs := map[string]string{}
	if msgs := registration.PasswordPolicyErrors(password); len(msgs) > 0 {
		errs["password"] = strings.Join(msgs, " ")
	}
	if password != confirm {
		errs["confirm_password"] = "Passwords do not match."
	}
	return errs
}
