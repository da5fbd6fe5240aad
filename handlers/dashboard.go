package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderDataMock marks responses built from synthetic rows.
const HeaderDataMock = "X-Data-Mock"

func (h *Handler) GetDashboard(c echo.Context) error {
	snapshot, err := h.Dashboard.Snapshot(fetchContext(c))
	if err != nil {
		return respondGatewayError(c, err)
	}

	if snapshot.IsMock {
		c.Response().Header().Set(HeaderDataMock, "true")
	}
	return c.JSON(http.StatusOK, snapshot)
}
