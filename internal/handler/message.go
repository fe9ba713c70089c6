package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/middleware"
	"github.com/yeojw/kampung/internal/model"
	"github.com/yeojw/kampung/internal/repository"
	"github.com/yeojw/kampung/internal/social"
)

// MessageHandler serves direct messages. Every send re-evaluates the
// privacy gate; a recipient who went private mid-conversation stops
// receiving immediately.
type MessageHandler struct {
	Users      *repository.UserRepo
	Messages   *repository.MessageRepo
	Authorizer *social.Authorizer
}

func NewMessageHandler(users *repository.UserRepo, messages *repository.MessageRepo, authorizer *social.Authorizer) *MessageHandler {
	return &MessageHandler{Users: users, Messages: messages, Authorizer: authorizer}
}

type sendMessageReq struct {
	Body string `json:"body"`
}

type messageResp struct {
	ID          uint64    `json:"id"`
	SenderID    uint64    `json:"sender_id"`
	RecipientID uint64    `json:"recipient_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

func toMessageResp(m model.Message) messageResp {
	return messageResp{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Body:        m.Body,
		CreatedAt:   m.CreatedAt,
	}
}

// Send validates the body, runs the authorization gate, and persists
// the message.
func (h *MessageHandler) Send(c echo.Context) error {
	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message body is required"})
	}
	if len(body) > model.MaxMessageLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message must be 500 characters or less"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	recipient, err := h.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	principal := middleware.CurrentPrincipal(c)
	decision, err := h.Authorizer.CanMessage(ctx, &principal.User, &recipient)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send failed"})
	}
	if !decision.Allowed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": decision.Reason})
	}

	msg := model.Message{
		SenderID:    principal.User.ID,
		RecipientID: recipient.ID,
		Body:        body,
	}
	if err := h.Messages.Create(ctx, &msg); err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send failed"})
	}
	return c.JSON(http.StatusCreated, toMessageResp(msg))
}

// Conversation lists the two-way message history with one user, newest
// first.
func (h *MessageHandler) Conversation(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	other, err := h.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	principal := middleware.CurrentPrincipal(c)
	limit, offset := pageParams(c)
	msgs, err := h.Messages.ListConversation(ctx, principal.User.ID, other.ID, limit, offset)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}

	out := make([]messageResp, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResp(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out, "with": toUserCard(other)})
}
