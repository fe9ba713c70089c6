package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/geocode"
)

// GeocodeHandler proxies location autocomplete. Lookup failures
// degrade to an empty suggestion list rather than an error.
type GeocodeHandler struct {
	Client *geocode.Client
}

func NewGeocodeHandler(client *geocode.Client) *GeocodeHandler {
	return &GeocodeHandler{Client: client}
}

// Search returns location suggestions for ?q=.
func (h *GeocodeHandler) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	results := h.Client.Search(c.Request().Context(), query)
	return c.JSON(http.StatusOK, echo.Map{"results": results})
}
