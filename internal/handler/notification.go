package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/middleware"
	"github.com/yeojw/kampung/internal/repository"
)

// NotificationHandler serves the per-user notification ledger.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
}

func NewNotificationHandler(repo *repository.NotificationRepo) *NotificationHandler {
	return &NotificationHandler{Notifications: repo}
}

type notificationResp struct {
	ID            uint64     `json:"id"`
	Kind          string     `json:"kind"`
	ActorUsername string     `json:"actor_username"`
	Message       string     `json:"message"`
	CreatedAt     time.Time  `json:"created_at"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
}

// List returns the caller's notifications newest first, with the
// unread total alongside.
func (h *NotificationHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()
	principal := middleware.CurrentPrincipal(c)

	limit, offset := pageParams(c)
	items, err := h.Notifications.ListByUser(ctx, principal.User.ID, limit, offset)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}

	out := make([]notificationResp, 0, len(items))
	for _, it := range items {
		actor := it.ActorDisplayName
		if actor == "" {
			actor = it.ActorUsername
		}
		out = append(out, notificationResp{
			ID:            it.ID,
			Kind:          string(it.Kind),
			ActorUsername: it.ActorUsername,
			Message:       it.Notification.Message(actor),
			CreatedAt:     it.CreatedAt,
			ReadAt:        it.ReadAt,
		})
	}

	unread, err := h.Notifications.CountUnread(ctx, principal.User.ID)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": out, "unread_count": unread})
}

// MarkAllRead stamps every unread entry with a single read time so the
// badge drops to zero in one action.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()
	principal := middleware.CurrentPrincipal(c)

	marked, err := h.Notifications.MarkAllRead(ctx, principal.User.ID, time.Now().UTC())
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": marked})
}
