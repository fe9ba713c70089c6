package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/middleware"
	"github.com/yeojw/kampung/internal/model"
	"github.com/yeojw/kampung/internal/repository"
	"github.com/yeojw/kampung/internal/session"
)

// SocialHandler serves the follow graph: follow/unfollow mutations and
// the follower, following and mutual lists.
type SocialHandler struct {
	Users   *repository.UserRepo
	Follows *repository.FollowRepo
}

func NewSocialHandler(users *repository.UserRepo, follows *repository.FollowRepo) *SocialHandler {
	return &SocialHandler{Users: users, Follows: follows}
}

func (h *SocialHandler) target(ctx context.Context, c echo.Context) (model.User, bool, error) {
	user, err := h.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, false, c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return model.User{}, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return user, true, nil
}

// Follow creates the edge and its notification atomically. A duplicate
// attempt - concurrent or repeated - reports the conflict instead of
// silently succeeding.
func (h *SocialHandler) Follow(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	target, ok, err := h.target(ctx, c)
	if !ok {
		return err
	}
	principal := middleware.CurrentPrincipal(c)

	switch err := h.Follows.Follow(ctx, principal.User.ID, target.ID); {
	case errors.Is(err, repository.ErrSelfFollow):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "you cannot follow yourself"})
	case errors.Is(err, repository.ErrAlreadyFollowing):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already following"})
	case err != nil:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "follow failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"following": target.Username})
}

// Unfollow removes the edge; absence is a conflict, not a no-op.
func (h *SocialHandler) Unfollow(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	target, ok, err := h.target(ctx, c)
	if !ok {
		return err
	}
	principal := middleware.CurrentPrincipal(c)

	switch err := h.Follows.Unfollow(ctx, principal.User.ID, target.ID); {
	case errors.Is(err, repository.ErrNotFollowing):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not following"})
	case err != nil:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unfollow failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// canViewConnections gates follower/following lists: public profiles
// and the owner only.
func canViewConnections(target model.User, principal *session.Principal) bool {
	if !target.IsPrivate() {
		return true
	}
	return !principal.Anonymous() && principal.User.ID == target.ID
}

// Followers lists who follows the target, one explicit page at a time.
func (h *SocialHandler) Followers(c echo.Context) error {
	return h.connectionList(c, h.Follows.Followers)
}

// Following lists who the target follows.
func (h *SocialHandler) Following(c echo.Context) error {
	return h.connectionList(c, h.Follows.Following)
}

func (h *SocialHandler) connectionList(c echo.Context, list func(context.Context, uint64, int, int) ([]model.User, error)) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	target, ok, err := h.target(ctx, c)
	if !ok {
		return err
	}
	if !canViewConnections(target, middleware.CurrentPrincipal(c)) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "this list is private"})
	}

	limit, offset := pageParams(c)
	users, err := list(ctx, target.ID, limit, offset)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": toUserCards(users)})
}

// Mutuals returns the intersection of the target's followers and the
// viewer's following, revealed page by page.
func (h *SocialHandler) Mutuals(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	target, ok, err := h.target(ctx, c)
	if !ok {
		return err
	}
	principal := middleware.CurrentPrincipal(c)

	limit, offset := pageParams(c)
	users, err := h.Follows.Mutuals(ctx, principal.User.ID, target.ID, limit, offset)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": toUserCards(users)})
}
