package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/config"
	"github.com/yeojw/kampung/internal/middleware"
	"github.com/yeojw/kampung/internal/registration"
	"github.com/yeojw/kampung/internal/session"
)

// RegisterHandler drives the five-step signup wizard. The accumulator
// lives inside the session payload; this handler only moves data
// between the request and the wizard.
type RegisterHandler struct {
	Cfg      config.Config
	Wizard   *registration.Wizard
	Sessions *session.Manager
}

func NewRegisterHandler(cfg config.Config, wizard *registration.Wizard, sessions *session.Manager) *RegisterHandler {
	return &RegisterHandler{Cfg: cfg, Wizard: wizard, Sessions: sessions}
}

type stepReq struct {
	Step int `json:"step"`
	registration.Input
}

type stateResp struct {
	Step        int    `json:"step"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// echoes the accumulator without the credential hash.
func toStateResp(st *registration.State) stateResp {
	return stateResp{
		Step:        st.Step,
		Username:    st.Username,
		DisplayName: st.DisplayName,
		Email:       st.Email,
	}
}

// State reports the furthest step reached so a returning client can
// resume where it left off.
func (h *RegisterHandler) State(c echo.Context) error {
	sess := middleware.CurrentSession(c)
	st := sess.Registration
	if st == nil {
		st = registration.NewState()
	}
	return c.JSON(http.StatusOK, toStateResp(st))
}

// Submit processes one wizard step. On the final step it creates the
// user, discards the accumulator and auto-logs the new account in.
func (h *RegisterHandler) Submit(c echo.Context) error {
	if !middleware.CurrentPrincipal(c).Anonymous() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "already logged in"})
	}

	var req stepReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	sess := middleware.CurrentSession(c)
	if sess.Registration == nil {
		sess.Registration = registration.NewState()
	}

	res, err := h.Wizard.Submit(ctx, sess.Registration, req.Step, req.Input)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	switch {
	case res.RedirectStep != 0:
		// Stale or forward submission: persist any reset and point the
		// client at the furthest legitimate step.
		if err := h.Sessions.Sessions.Save(ctx, sess); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
		}
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "step out of order",
			"state": toStateResp(sess.Registration),
		})
	case len(res.FieldErrors) > 0:
		status := http.StatusBadRequest
		if req.Step == registration.StepFinish {
			// Conflicts discovered at commit time (lost race on
			// username/email) keep the wizard at step five.
			status = http.StatusConflict
		}
		return c.JSON(status, echo.Map{
			"errors": res.FieldErrors,
			"state":  toStateResp(sess.Registration),
		})
	case res.User != nil:
		// Durable user exists; bind the session to it (rotation) and
		// drop the accumulator with the old session key.
		fresh, err := h.Sessions.Bind(ctx, sess, res.User.ID)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login after signup failed"})
		}
		middleware.SetSessionCookie(c, fresh, h.Sessions.Sessions.TTL(), h.Cfg.SecureCookies)
		return c.JSON(http.StatusCreated, echo.Map{
			"user":       toUserCard(*res.User),
			"csrf_token": fresh.CSRFToken,
		})
	}

	// Normal advance or idempotent replay: persist the accumulator.
	if err := h.Sessions.Sessions.Save(ctx, sess); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}
	return c.JSON(http.StatusOK, toStateResp(sess.Registration))
}
