// Package handler implements the HTTP entry points. Handlers bundle
// their repository and service dependencies as struct fields and bound
// every database interaction with a short per-request timeout.
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/model"
)

const dbTimeout = 5 * time.Second

// reqContext derives the bounded context used for all storage calls in
// a handler.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// pageParams reads ?page= and ?per_page=, clamped to sane bounds.
// Pages are one-based; batches are revealed by explicit caller action.
func pageParams(c echo.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("per_page"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, (page - 1) * limit
}

// userCard is the public projection of a user embedded in lists.
type userCard struct {
	ID          uint64 `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
	Privacy     string `json:"privacy"`
}

func toUserCard(u model.User) userCard {
	return userCard{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarRef:   u.AvatarRef,
		Privacy:     u.Privacy,
	}
}

func toUserCards(users []model.User) []userCard {
	cards := make([]userCard, 0, len(users))
	for _, u := range users {
		cards = append(cards, toUserCard(u))
	}
	return cards
}
