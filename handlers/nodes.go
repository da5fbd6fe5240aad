package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PostNodes fetches live rows. Failures are reported, never substituted.
func (h *Handler) PostNodes(c echo.Context) error {
	nodes, err := h.Dashboard.FetchNodes(fetchContext(c))
	if err != nil {
		return respondGatewayError(c, err)
	}
	return c.JSON(http.StatusOK, nodes)
}

func (h *Handler) NodesMethodNotAllowed(c echo.Context) error {
	return c.JSON(http.StatusMethodNotAllowed, map[string]string{
		"error": "Method not allowed. Use POST to fetch node data.",
	})
}
