package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/middleware"
	"github.com/yeojw/kampung/internal/repository"
	"github.com/yeojw/kampung/internal/social"
)

// SearchHandler serves user search with the viewer's follow and
// messaging context attached to each result.
type SearchHandler struct {
	Users      *repository.UserRepo
	Follows    *repository.FollowRepo
	Authorizer *social.Authorizer
}

func NewSearchHandler(users *repository.UserRepo, follows *repository.FollowRepo, authorizer *social.Authorizer) *SearchHandler {
	return &SearchHandler{Users: users, Follows: follows, Authorizer: authorizer}
}

type searchResult struct {
	userCard
	IsFollowing bool `json:"is_following"`
	CanMessage  bool `json:"can_message"`
}

// Users matches usernames and display names against ?q=, capped at the
// page size. Anonymous viewers get plain cards.
func (h *SearchHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if len(query) < 2 {
		return c.JSON(http.StatusOK, echo.Map{"users": []searchResult{}})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	limit, _ := pageParams(c)
	users, err := h.Users.Search(ctx, query, limit)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}

	principal := middleware.CurrentPrincipal(c)
	out := make([]searchResult, 0, len(users))
	for _, u := range users {
		res := searchResult{userCard: toUserCard(u)}
		if !principal.Anonymous() && principal.User.ID != u.ID {
			if res.IsFollowing, err = h.Follows.IsFollowing(ctx, principal.User.ID, u.ID); err != nil {
				c.Logger().Error(err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
			}
			decision, err := h.Authorizer.CanMessage(ctx, &principal.User, &u)
			if err != nil {
				c.Logger().Error(err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
			}
			res.CanMessage = decision.Allowed
		}
		out = append(out, res)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}
