package handlers

import (
	"context"

	"github.com/labstack/echo/v4"

	"pnodedash/config"
	"pnodedash/services"
)

type Handler struct {
	Cfg       *config.Config
	Dashboard *services.DashboardService
	PRPC      *services.PRPCClient
}

func NewHandler(cfg *config.Config, dashboard *services.DashboardService, prpc *services.PRPCClient) *Handler {
	return &Handler{
		Cfg:       cfg,
		Dashboard: dashboard,
		PRPC:      prpc,
	}
}

// Register mounts the API routes on e.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.GetHealth)

	api := e.Group("/api")
	api.POST("/nodes", h.PostNodes)
	api.GET("/nodes", h.NodesMethodNotAllowed)
	api.GET("/dashboard", h.GetDashboard)
	api.GET("/stats", h.GetStats)
}

// fetchContext keeps request values but drops client cancellation; the
// gateway's own timeout bounds the call.
func fetchContext(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}
