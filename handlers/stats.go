package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetStats aggregates a fresh fetch.
func (h *Handler) GetStats(c echo.Context) error {
	stats, err := h.Dashboard.FetchStats(fetchContext(c))
	if err != nil {
		return respondGatewayError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
